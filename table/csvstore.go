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
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

// CSVStore keeps one CSV file per table inside Dir. Cells are read back as
// strings (blank cells as nil); callers coerce them with the numeric package.
type CSVStore struct {
	Dir string
}

func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &CSVStore{Dir: dir}, nil
}

// FileName returns the path of the CSV file backing the named table
func (store *CSVStore) FileName(name string) string {
	return filepath.Join(store.Dir, slug.Make(name)+".csv")
}

func (store *CSVStore) ReadTable(ctx context.Context, name string) (*Table, error) {
	fh, err := os.Open(store.FileName(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingStoreError{Name: name}
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return New(nil), nil
	}

	tbl := New(records[0])
	for _, record := range records[1:] {
		row := make([]any, len(record))
		for idx, val := range record {
			if val != "" {
				row[idx] = val
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	return tbl, nil
}

// WriteTable writes to a temporary file in Dir and renames it over the
// table's file.
func (store *CSVStore) WriteTable(ctx context.Context, name string, tbl *Table) error {
	fn := store.FileName(name)

	tmp, err := os.CreateTemp(store.Dir, ".tmp-*.csv")
	if err != nil {
		return err
	}

	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("FileName", tmp.Name()).Msg("could not remove temporary file")
		}
	}()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(tbl.Header); err != nil {
		tmp.Close()
		return err
	}

	for _, row := range tbl.Rows {
		record := make([]string, len(row))
		for idx, val := range row {
			record[idx] = CellString(val)
		}

		if err := writer.Write(record); err != nil {
			tmp.Close()
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), fn)
}
