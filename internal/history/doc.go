// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

/*
Package history keeps a log of served predictions.

Three backends implement Store:

  - none: discards every record
  - memory: a bounded ring holding the most recent records
  - badger: a durable BadgerDB store

BadgerDB key layout:

	prediction:id:<uuid>              -> JSON PredictionRecord
	prediction:ts:<unix nanos>:<uuid> -> uuid

The timestamp index is zero padded so that lexical order equals time order,
which lets List walk it in reverse for newest-first results.
*/
package history
