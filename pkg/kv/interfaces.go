/*
 * Copyright 2026 Edgewatch Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package kv provides the durable keyed state stores backing the enrichment
// pipeline: merge-source stores, the per-client session cache and the
// per-destination counters.
package kv

import (
	"context"
)

// KVStore is the byte-level keyed state store consumed by the pipeline.
// Retention and eviction are the backing store's concern; this layer only
// reads and writes single keys. Store access may block (disk or a remote
// service), so every call takes a context.
type KVStore interface {
	// Get retrieves the value for key. The boolean reports whether the key
	// was found; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key from the store. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
