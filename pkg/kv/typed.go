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

package kv

import (
	"context"
	"fmt"
	"strconv"

	"github.com/edgewatch/enrichd/pkg/record"
)

// RecordStore is a KVStore view that persists Records as JSON.
type RecordStore struct {
	store KVStore
}

func NewRecordStore(store KVStore) *RecordStore {
	return &RecordStore{store: store}
}

func (s *RecordStore) Get(ctx context.Context, key string) (record.Record, bool, error) {
	data, found, err := s.store.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	rec, err := record.Unmarshal(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode record at %s: %w", key, err)
	}

	return rec, true, nil
}

func (s *RecordStore) Put(ctx context.Context, key string, rec record.Record) error {
	data, err := record.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record at %s: %w", key, err)
	}

	return s.store.Put(ctx, key, data)
}

// CounterStore is a KVStore view that persists int64 values as decimal text.
type CounterStore struct {
	store KVStore
}

func NewCounterStore(store KVStore) *CounterStore {
	return &CounterStore{store: store}
}

func (s *CounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	data, found, err := s.store.Get(ctx, key)
	if err != nil || !found {
		return 0, false, err
	}

	value, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to decode counter at %s: %w", key, err)
	}

	return value, true, nil
}

func (s *CounterStore) Put(ctx context.Context, key string, value int64) error {
	return s.store.Put(ctx, key, []byte(strconv.FormatInt(value, 10)))
}
