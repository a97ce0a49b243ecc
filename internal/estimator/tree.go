// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

package estimator

import (
	"fmt"

	"github.com/goccy/go-json"
)

// KindTreeEnsemble identifies decision tree ensembles.
const KindTreeEnsemble = "tree_ensemble"

// Aggregation combines per-tree outputs.
type Aggregation string

const (
	AggregateMean Aggregation = "mean"
	AggregateSum  Aggregation = "sum"
)

// Tree is one fitted decision tree in array layout.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// TreeEnsemble is a forest or boosted ensemble of Trees.
type TreeEnsemble struct {
	Task         Task        `json:"task"`
	Aggregation  Aggregation `json:"aggregation"`
	NFeatures    int         `json:"n_features"`
	NOutputs     int         `json:"n_outputs"`
	Classes      []float64   `json:"classes,omitempty"`
	BaseScore    []float64   `json:"base_score,omitempty"`
	LearningRate float64     `json:"learning_rate,omitempty"`
	Trees        []Tree      `json:"trees"`

	// width of each leaf value: NOutputs for regression, len(Classes) otherwise
	width int
}

func decodeTreeEnsemble(data []byte) (Model, error) {
	var te TreeEnsemble
	if err := json.Unmarshal(data, &te); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := te.init(); err != nil {
		return nil, err
	}
	return &te, nil
}

func (te *TreeEnsemble) init() error {
	task, err := parseTask(te.Task)
	if err != nil {
		return err
	}
	te.Task = task

	switch te.Aggregation {
	case "":
		te.Aggregation = AggregateMean
	case AggregateMean:
	case AggregateSum:
		if te.LearningRate == 0 {
			te.LearningRate = 1
		}
	default:
		return fmt.Errorf("%w: unknown aggregation %q", ErrInvalidModel, te.Aggregation)
	}

	if te.NFeatures <= 0 {
		return fmt.Errorf("%w: n_features must be positive", ErrInvalidModel)
	}
	if len(te.Trees) == 0 {
		return fmt.Errorf("%w: ensemble has no trees", ErrInvalidModel)
	}

	if te.Task == TaskClassification {
		if len(te.Classes) < 2 {
			return fmt.Errorf("%w: classification needs at least two classes", ErrInvalidModel)
		}
		te.NOutputs = 1
		te.width = len(te.Classes)
	} else {
		if te.NOutputs <= 0 {
			te.NOutputs = 1
		}
		te.width = te.NOutputs
	}

	if te.BaseScore != nil && len(te.BaseScore) != te.width {
		return fmt.Errorf("%w: base_score has %d values, want %d", ErrInvalidModel, len(te.BaseScore), te.width)
	}

	for i := range te.Trees {
		if err := te.Trees[i].validate(te.NFeatures, te.width); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// validate checks array lengths and that every child index points forward,
// which guarantees traversal terminates.
func (t *Tree) validate(nFeatures, width int) error {
	n := len(t.Feature)
	if n == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	if len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("%w: node arrays have different lengths", ErrInvalidModel)
	}
	for node := 0; node < n; node++ {
		f := t.Feature[node]
		if f < 0 {
			if len(t.Value[node]) != width {
				return fmt.Errorf("%w: leaf %d has %d values, want %d", ErrInvalidModel, node, len(t.Value[node]), width)
			}
			continue
		}
		if f >= nFeatures {
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrInvalidModel, node, f, nFeatures)
		}
		l, r := t.ChildrenLeft[node], t.ChildrenRight[node]
		if l <= node || l >= n || r <= node || r >= n {
			return fmt.Errorf("%w: node %d has invalid children %d/%d", ErrInvalidModel, node, l, r)
		}
	}
	return nil
}

// leaf returns the value vector of the leaf x falls into.
func (t *Tree) leaf(x []float64) []float64 {
	node := 0
	for t.Feature[node] >= 0 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

func (te *TreeEnsemble) Kind() string { return KindTreeEnsemble }
func (te *TreeEnsemble) NumFeatures() int { return te.NFeatures }
func (te *TreeEnsemble) NumOutputs() int { return te.NOutputs }

// Predict evaluates the ensemble on x.
func (te *TreeEnsemble) Predict(x []float64) ([]float64, error) {
	if err := checkInput(x, te.NFeatures); err != nil {
		return nil, err
	}

	acc := make([]float64, te.width)
	normalize := te.Task == TaskClassification && te.Aggregation == AggregateMean
	for i := range te.Trees {
		v := te.Trees[i].leaf(x)
		total := 1.0
		if normalize {
			total = 0
			for _, w := range v {
				total += w
			}
			if total == 0 {
				total = 1
			}
		}
		for j, w := range v {
			acc[j] += w / total
		}
	}

	switch te.Aggregation {
	case AggregateSum:
		for j := range acc {
			acc[j] *= te.LearningRate
			if te.BaseScore != nil {
				acc[j] += te.BaseScore[j]
			}
		}
	default:
		n := float64(len(te.Trees))
		for j := range acc {
			acc[j] /= n
		}
	}

	if te.Task == TaskClassification {
		return []float64{te.Classes[argmax(acc)]}, nil
	}
	return acc, nil
}
