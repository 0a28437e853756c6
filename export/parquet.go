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

// Package export writes workbook tables to parquet files for archiving.
package export

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ColumnNames converts a table header into unique parquet column names
func ColumnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for idx, col := range header {
		name := strings.ReplaceAll(slug.Make(col), "-", "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		if count, ok := seen[name]; ok {
			seen[name] = count + 1
			name = fmt.Sprintf("%s_%d", name, count+1)
		} else {
			seen[name] = 1
		}

		names[idx] = name
	}

	return names
}

// FileName returns the default export file name for a table
func FileName(tableName string) string {
	return slug.Make(tableName) + ".parquet"
}

// Parquet writes tbl to fn. Every column is stored as an optional UTF8
// string; blank cells are stored as nulls.
func Parquet(tbl *table.Table, fn string) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	names := ColumnNames(tbl.Header)
	schema := make([]string, len(names))
	for idx, name := range names {
		schema[idx] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)
	}

	pw, err := writer.NewCSVWriter(schema, fh, 4)
	if err != nil {
		log.Error().Err(err).Msg("parquet writer creation failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for rowIdx, row := range tbl.Rows {
		record := make([]*string, len(names))
		for idx := range names {
			cell := table.Cell(row, idx)
			if cell == nil {
				continue
			}

			val := table.CellString(cell)
			record[idx] = &val
		}

		if err := pw.WriteString(record); err != nil {
			log.Error().Err(err).Int("Row", rowIdx).Msg("parquet write failed for row")
			return err
		}
	}

	if err := pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	log.Info().Str("FileName", fn).Int("NumRows", tbl.NumRows()).Msg("parquet write finished")
	return nil
}
