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
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/penny-vault/pvgrowth/data"
)

// TableStat describes one stored table
type TableStat struct {
	Name      string
	NumRows   int
	UpdatedAt time.Time
}

// RecordRun saves the outcome of a pipeline stage
func (myLibrary *Library) RecordRun(ctx context.Context, run *data.Run) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO runs ("id", "stage", "start_time", "end_time", "num_rows", "status", "message")
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Stage, run.StartTime, run.EndTime, run.NumRows, string(run.Status), run.Message)
	return err
}

// Runs returns the most recent runs, newest first
func (myLibrary *Library) Runs(ctx context.Context, limit int) ([]*data.Run, error) {
	runs := []*data.Run{}
	err := pgxscan.Select(ctx, myLibrary.Pool, &runs, `SELECT id, stage, start_time, end_time, num_rows, status, message
FROM runs ORDER BY start_time DESC LIMIT $1`, limit)
	return runs, err
}

// TableStats returns the row count and modification time of every table
func (myLibrary *Library) TableStats(ctx context.Context) ([]*TableStat, error) {
	stats := []*TableStat{}
	err := pgxscan.Select(ctx, myLibrary.Pool, &stats, `SELECT name, jsonb_array_length(rows) AS num_rows, updated_at
FROM workbook_tables ORDER BY name`)
	return stats, err
}
