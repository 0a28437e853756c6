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
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Absent is the column index reported for a column that is not in the header
const Absent = -1

var (
	ErrMissingColumn = errors.New("missing column")
	ErrMissingStore  = errors.New("missing table")
)

// MissingColumnError names a logical column that matched none of its aliases
type MissingColumnError struct {
	Column  string
	Aliases []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %q (tried %s)", ErrMissingColumn, e.Column, strings.Join(e.Aliases, ", "))
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// MissingStoreError names a table that does not exist
type MissingStoreError struct {
	Name string
}

func (e *MissingStoreError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingStore, e.Name)
}

func (e *MissingStoreError) Is(target error) bool {
	return target == ErrMissingStore
}

// Aliases maps a logical column name to the literal header names accepted
// for it, in priority order.
type Aliases map[string][]string

// Columns maps logical column names to header positions
type Columns map[string]int

// ResolveColumns finds each logical column of aliases in header. Header
// names are compared case-insensitively and the first matching alias wins.
// In strict mode the first unresolved column (in name order) is returned as
// a *MissingColumnError; otherwise unresolved columns map to Absent.
func ResolveColumns(header []string, aliases Aliases, strict bool) (Columns, error) {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make(Columns, len(aliases))
	for _, name := range names {
		idx := Absent
		for _, alias := range aliases[name] {
			if idx = indexOf(header, alias); idx != Absent {
				break
			}
		}

		if idx == Absent && strict {
			return nil, &MissingColumnError{Column: name, Aliases: aliases[name]}
		}

		cols[name] = idx
	}

	return cols, nil
}

// Has reports whether the logical column was resolved
func (cols Columns) Has(name string) bool {
	idx, ok := cols[name]
	return ok && idx != Absent
}

// Get returns the cell of row for the logical column, nil if unresolved
func (cols Columns) Get(row []any, name string) any {
	idx, ok := cols[name]
	if !ok {
		return nil
	}
	return Cell(row, idx)
}
