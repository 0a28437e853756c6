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

// Package table models the workbook: named rectangular tables made of a
// header row and data rows, and the stores that persist them.
package table

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table is a header plus rows of cells. A nil cell is a blank cell.
type Table struct {
	Header []string
	Rows   [][]any
}

// Store reads and replaces whole tables by name
type Store interface {
	// ReadTable returns a copy of the named table or a *MissingStoreError
	ReadTable(ctx context.Context, name string) (*Table, error)

	// WriteTable replaces the named table (creating it if needed) in a
	// single step; readers observe either the old or the new table.
	WriteTable(ctx context.Context, name string, tbl *Table) error
}

// Updater is implemented by stores that can run a read-modify-write cycle
// on one table atomically. fn receives an empty table when the named table
// does not exist yet.
type Updater interface {
	UpdateTable(ctx context.Context, name string, fn func(*Table) (*Table, error)) error
}

// New returns an empty table with a copy of header
func New(header []string) *Table {
	return &Table{
		Header: append([]string(nil), header...),
		Rows:   make([][]any, 0),
	}
}

// Clone deep copies the header and row slices
func (tbl *Table) Clone() *Table {
	if tbl == nil {
		return New(nil)
	}

	out := &Table{
		Header: append([]string(nil), tbl.Header...),
		Rows:   make([][]any, len(tbl.Rows)),
	}

	for idx, row := range tbl.Rows {
		out.Rows[idx] = append([]any(nil), row...)
	}

	return out
}

// NumRows returns the number of data rows
func (tbl *Table) NumRows() int {
	if tbl == nil {
		return 0
	}
	return len(tbl.Rows)
}

// ColumnIndex returns the position of the named column or Absent
func (tbl *Table) ColumnIndex(name string) int {
	if tbl == nil {
		return Absent
	}
	return indexOf(tbl.Header, name)
}

// Append adds a row
func (tbl *Table) Append(row ...any) {
	tbl.Rows = append(tbl.Rows, row)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func indexOf(header []string, name string) int {
	want := normalizeName(name)
	for idx, col := range header {
		if normalizeName(col) == want {
			return idx
		}
	}
	return Absent
}

// Cell returns row[idx], or nil if idx is Absent or past the end of the row
func Cell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// Float converts a nullable number into a cell value
func Float(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// CellString renders a cell the way it is persisted in text stores
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
