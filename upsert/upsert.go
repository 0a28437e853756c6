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

// Package upsert merges batches of rows into a table by composite key.
// Rows whose key already exists are overwritten in place (only in the
// columns the batch carries); all other rows are appended in arrival order.
package upsert

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvgrowth/numeric"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/rs/zerolog"
)

// RowID is the logical identity of a row, assigned when the table is loaded
// and stable for the lifetime of one merge
type RowID int

// Result counts what a merge did
type Result struct {
	Updated  int
	Appended int
}

// KeyIndex maps encoded composite keys to logical row ids. It is built once
// per merge and never persisted.
type KeyIndex struct {
	columns   []string
	positions map[string]RowID
}

// BuildKeyIndex indexes the rows of tbl by keyColumns. If any key column is
// missing from the header the index is empty and the table is treated as
// new. When two existing rows share a key the later row wins.
func BuildKeyIndex(tbl *table.Table, keyColumns []string) *KeyIndex {
	idx := &KeyIndex{
		columns:   append([]string(nil), keyColumns...),
		positions: make(map[string]RowID),
	}

	if tbl == nil {
		return idx
	}

	cols, ok := keyPositions(tbl.Header, keyColumns)
	if !ok {
		return idx
	}

	for pos, row := range tbl.Rows {
		idx.positions[encodeKey(row, cols)] = RowID(pos)
	}

	return idx
}

// Len returns the number of distinct keys
func (idx *KeyIndex) Len() int {
	return len(idx.positions)
}

// Lookup returns the row id registered for the key values
func (idx *KeyIndex) Lookup(values ...any) (RowID, bool) {
	cols := make([]int, len(values))
	for i := range cols {
		cols[i] = i
	}
	id, ok := idx.positions[encodeKey(values, cols)]
	return id, ok
}

func (idx *KeyIndex) register(key string, id RowID) {
	idx.positions[key] = id
}

// arena holds the rows of the table being merged. ids index rows; order
// lists ids in storage order and is only consulted when materializing.
type arena struct {
	header []string
	rows   [][]any
	order  []RowID
}

func newArena(tbl *table.Table) *arena {
	work := tbl.Clone()
	a := &arena{
		header: work.Header,
		rows:   work.Rows,
		order:  make([]RowID, len(work.Rows)),
	}

	for pos := range a.order {
		a.order[pos] = RowID(pos)
	}

	return a
}

func (a *arena) addColumn(name string) int {
	a.header = append(a.header, name)
	for id, row := range a.rows {
		a.rows[id] = append(row, nil)
	}
	return len(a.header) - 1
}

func (a *arena) append(row []any) RowID {
	id := RowID(len(a.rows))
	a.rows = append(a.rows, row)
	a.order = append(a.order, id)
	return id
}

func (a *arena) materialize() *table.Table {
	out := table.New(a.header)
	out.Rows = make([][]any, 0, len(a.order))
	for _, id := range a.order {
		row := a.rows[id]
		if len(row) < len(a.header) {
			row = append(row, make([]any, len(a.header)-len(row))...)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Apply merges rows (laid out per header) into a copy of tbl and returns
// the merged table. idx must have been built from tbl; it is updated as
// rows are appended so a later row of the same batch with the same key
// updates the appended row instead of adding a duplicate.
//
// Columns of header that tbl lacks are added to the end of the merged
// header. Columns of tbl that header lacks keep their values on updated
// rows and are blank on appended rows.
func Apply(tbl *table.Table, idx *KeyIndex, header []string, rows [][]any, keyColumns []string) (*table.Table, Result, error) {
	var result Result

	incomingKey, ok := keyPositions(header, keyColumns)
	if !ok {
		for _, col := range keyColumns {
			if indexOfColumn(header, col) == table.Absent {
				return nil, result, &table.MissingColumnError{Column: col, Aliases: []string{col}}
			}
		}
	}

	work := newArena(tbl)
	if len(work.header) == 0 {
		work.header = append([]string(nil), header...)
	}

	// target position of each incoming column
	targets := make([]int, len(header))
	for pos, col := range header {
		target := indexOfColumn(work.header, col)
		if target == table.Absent {
			target = work.addColumn(col)
		}
		targets[pos] = target
	}

	for _, row := range rows {
		key := encodeKey(row, incomingKey)

		if id, found := idx.positions[key]; found {
			dest := work.rows[id]
			if len(dest) < len(work.header) {
				dest = append(dest, make([]any, len(work.header)-len(dest))...)
			}
			for pos, target := range targets {
				dest[target] = table.Cell(row, pos)
			}
			work.rows[id] = dest
			result.Updated++
			continue
		}

		dest := make([]any, len(work.header))
		for pos, target := range targets {
			dest[target] = table.Cell(row, pos)
		}
		idx.register(key, work.append(dest))
		result.Appended++
	}

	return work.materialize(), result, nil
}

// Upsert merges rows into the named table of store, creating the table if
// it does not exist. Stores implementing table.Updater run the merge as one
// atomic read-modify-write; other stores are read and then rewritten whole.
// An empty batch leaves the store untouched.
func Upsert(ctx context.Context, store table.Store, name string, header []string, rows [][]any, keyColumns []string) (Result, error) {
	var result Result
	if len(rows) == 0 {
		return result, nil
	}

	merge := func(current *table.Table) (*table.Table, error) {
		idx := BuildKeyIndex(current, keyColumns)
		merged, res, err := Apply(current, idx, header, rows, keyColumns)
		result = res
		return merged, err
	}

	if updater, ok := store.(table.Updater); ok {
		if err := updater.UpdateTable(ctx, name, merge); err != nil {
			return Result{}, err
		}
	} else {
		current, err := store.ReadTable(ctx, name)
		if errors.Is(err, table.ErrMissingStore) {
			current = table.New(nil)
		} else if err != nil {
			return Result{}, err
		}

		merged, err := merge(current)
		if err != nil {
			return Result{}, err
		}

		if err := store.WriteTable(ctx, name, merged); err != nil {
			return Result{}, err
		}
	}

	zerolog.Ctx(ctx).Debug().Str("Table", name).Int("Updated", result.Updated).Int("Appended", result.Appended).Msg("upserted rows")

	return result, nil
}

func indexOfColumn(header []string, name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for pos, col := range header {
		if strings.ToLower(strings.TrimSpace(col)) == want {
			return pos
		}
	}
	return table.Absent
}

func keyPositions(header []string, keyColumns []string) ([]int, bool) {
	cols := make([]int, len(keyColumns))
	for pos, col := range keyColumns {
		cols[pos] = indexOfColumn(header, col)
		if cols[pos] == table.Absent {
			return nil, false
		}
	}
	return cols, true
}

// encodeKey builds a structural key: the JSON array of the canonical key
// cell strings, so 2020, 2020.0 and "2020.0" are the same part. Any character may appear in a key part without colliding
// with another key.
func encodeKey(row []any, cols []int) string {
	parts := make([]string, len(cols))
	for pos, col := range cols {
		parts[pos] = keyPart(table.Cell(row, col))
	}

	encoded, err := json.Marshal(parts)
	if err != nil {
		// a []string always marshals
		panic(err)
	}

	return string(encoded)
}

// keyPart canonicalizes a key cell: numbers and numeric text share one
// spelling, other text is trimmed
func keyPart(v any) string {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}

	if f := numeric.ToNumber(v); f != nil {
		return table.CellString(*f)
	}

	return table.CellString(v)
}
