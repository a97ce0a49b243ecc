// Pitwall - Race Strategy Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pitwall

// Package cache provides a bounded in-memory TTL cache.
//
// Entries expire after the configured TTL and the least recently used entry
// is evicted once the capacity is reached. Expired entries are removed lazily
// on access and by a background sweep; call Close to stop the sweep.
//
// Keys are usually built with GenerateKey, which hashes the JSON encoding of
// the request so that identical inputs share an entry:
//
//	key := cache.GenerateKey("predict", input)
//	if v, ok := c.Get(key); ok {
//	    return v, nil
//	}
package cache
