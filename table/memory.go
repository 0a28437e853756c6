// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package table

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps tables in process memory. Tables are copied on the way
// in and out so callers never share rows with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]*Table),
	}
}

func (store *MemoryStore) ReadTable(ctx context.Context, name string) (*Table, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	tbl, ok := store.tables[name]
	if !ok {
		return nil, &MissingStoreError{Name: name}
	}

	return tbl.Clone(), nil
}

func (store *MemoryStore) WriteTable(ctx context.Context, name string, tbl *Table) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.tables[name] = tbl.Clone()
	return nil
}

func (store *MemoryStore) UpdateTable(ctx context.Context, name string, fn func(*Table) (*Table, error)) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, ok := store.tables[name]
	if !ok {
		current = New(nil)
	}

	updated, err := fn(current.Clone())
	if err != nil {
		return err
	}

	store.tables[name] = updated.Clone()
	return nil
}

// Names lists the stored tables in sorted order
func (store *MemoryStore) Names() []string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	names := make([]string, 0, len(store.tables))
	for name := range store.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
