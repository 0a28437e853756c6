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
package library

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/rs/zerolog"
)

// ReadTable loads the named table
func (myLibrary *Library) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var (
		header []string
		rows   []byte
	)

	err = conn.QueryRow(ctx, `SELECT header, rows FROM workbook_tables WHERE name=$1`, name).Scan(&header, &rows)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &table.MissingStoreError{Name: name}
	}
	if err != nil {
		return nil, err
	}

	return decodeTable(header, rows)
}

// WriteTable replaces the named table in a single transaction
func (myLibrary *Library) WriteTable(ctx context.Context, name string, tbl *table.Table) error {
	return myLibrary.inTx(ctx, func(tx pgx.Tx) error {
		return saveTable(ctx, tx, name, tbl)
	})
}

// UpdateTable runs fn on the named table while holding a transaction level
// lock on the table name, then saves its result in the same transaction
func (myLibrary *Library) UpdateTable(ctx context.Context, name string, fn func(*table.Table) (*table.Table, error)) error {
	return myLibrary.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
			return err
		}

		var (
			header []string
			rows   []byte
		)

		current := table.New(nil)
		err := tx.QueryRow(ctx, `SELECT header, rows FROM workbook_tables WHERE name=$1 FOR UPDATE`, name).Scan(&header, &rows)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return err
		default:
			if current, err = decodeTable(header, rows); err != nil {
				return err
			}
		}

		updated, err := fn(current)
		if err != nil {
			return err
		}

		return saveTable(ctx, tx, name, updated)
	})
}

func (myLibrary *Library) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	logger := zerolog.Ctx(ctx)

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				logger.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func saveTable(ctx context.Context, tx pgx.Tx, name string, tbl *table.Table) error {
	rows, err := json.Marshal(tbl.Rows)
	if err != nil {
		return err
	}

	header := tbl.Header
	if header == nil {
		header = []string{}
	}

	_, err = tx.Exec(ctx, `INSERT INTO workbook_tables ("name", "header", "rows", "updated_at")
VALUES ($1, $2, $3, now())
ON CONFLICT ("name") DO UPDATE SET
	header = EXCLUDED.header,
	rows = EXCLUDED.rows,
	updated_at = EXCLUDED.updated_at`, name, header, string(rows))
	return err
}

func decodeTable(header []string, rows []byte) (*table.Table, error) {
	tbl := table.New(header)
	if len(rows) == 0 {
		return tbl, nil
	}

	if err := json.Unmarshal(rows, &tbl.Rows); err != nil {
		return nil, err
	}

	if tbl.Rows == nil {
		tbl.Rows = make([][]any, 0)
	}

	return tbl, nil
}
