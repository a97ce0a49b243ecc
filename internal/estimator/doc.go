// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package estimator evaluates fitted models exported as portable JSON.
//
// Every artifact is an object with a "kind" discriminator:
//
//	{"kind": "tree_ensemble", "task": "regression", "aggregation": "mean", ...}
//	{"kind": "linear", "task": "classification", "coef": [[...]], ...}
//
// Decode looks the kind up in a registry, so additional model families can be
// added with Register without changing callers.
//
// # Tree ensembles
//
// Trees use the array layout of fitted decision trees: parallel
// children_left, children_right, feature, threshold and value arrays indexed
// by node. A node with feature < 0 is a leaf. Traversal goes left when
// x[feature] <= threshold.
//
// With aggregation "mean" the per-tree outputs are averaged (random forests,
// single trees). Classification trees are normalized to class probabilities
// before averaging. With aggregation "sum" the output is
// base_score + learning_rate * sum(tree outputs) (gradient boosting).
//
// Classification models return a single output: the class label with the
// largest aggregated score.
package estimator
