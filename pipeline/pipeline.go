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

// Package pipeline runs the workbook stages in order: fetch raw facts,
// rebuild the per-share table, merge growth metrics and rebuild the
// screener.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvgrowth/cagr"
	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/pershare"
	"github.com/penny-vault/pvgrowth/provider"
	"github.com/penny-vault/pvgrowth/screener"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/rs/zerolog"
)

const (
	StageFetch    = "fetch"
	StagePerShare = "pershare"
	StageGrowth   = "growth"
	StageScreen   = "screen"
)

var (
	ErrEmptyUniverse = errors.New("no tickers to fetch")
	ErrNoSource      = errors.New("no fact source configured")
)

// Recorder persists the outcome of each stage
type Recorder interface {
	RecordRun(ctx context.Context, run *data.Run) error
}

type Runner struct {
	Config   *config.Config
	Store    table.Store
	Source   provider.FactSource
	Recorder Recorder

	// Tickers overrides the configured universe when not empty
	Tickers []string

	// Now defaults to time.Now
	Now func() time.Time

	// ScreenOptions overrides the configured screener options when set
	ScreenOptions *screener.Options
}

func (runner *Runner) now() time.Time {
	if runner.Now != nil {
		return runner.Now()
	}
	return time.Now()
}

// track times fn, logs the outcome and records it
func (runner *Runner) track(ctx context.Context, stage string, fn func(context.Context) (int, error)) (int, error) {
	logger := zerolog.Ctx(ctx).With().Str("Stage", stage).Logger()
	ctx = logger.WithContext(ctx)

	run := &data.Run{
		ID:        uuid.New(),
		Stage:     stage,
		StartTime: runner.now(),
		Status:    data.RunSuccess,
	}

	numRows, err := fn(ctx)

	run.EndTime = runner.now()
	run.NumRows = numRows
	if err != nil {
		run.Status = data.RunFailed
		run.Message = err.Error()
	}

	runTime := run.EndTime.Sub(run.StartTime)
	if err != nil {
		logger.Error().Err(err).Str("RunTime", durafmt.Parse(runTime).String()).Msg("stage failed")
	} else {
		logger.Info().Str("RunTime", durafmt.Parse(runTime).String()).Int("NumRows", numRows).Msg("stage finished")
	}

	if runner.Recorder != nil {
		if recErr := runner.Recorder.RecordRun(ctx, run); recErr != nil {
			logger.Warn().Err(recErr).Msg("could not record run")
		}
	}

	return numRows, err
}

// Universe returns the tickers the fetch stage downloads
func (runner *Runner) Universe() ([]string, error) {
	if len(runner.Tickers) > 0 {
		return provider.NormalizeUniverse(runner.Tickers, runner.Config.Universe.DefaultSuffix), nil
	}
	return provider.LoadUniverse(runner.Config.Universe)
}

// Fetch downloads every ticker of the universe into the raw and prices
// tables and returns the number of facts merged
func (runner *Runner) Fetch(ctx context.Context) (int, error) {
	return runner.track(ctx, StageFetch, func(ctx context.Context) (int, error) {
		if runner.Source == nil {
			return 0, ErrNoSource
		}

		tickers, err := runner.Universe()
		if err != nil {
			return 0, err
		}

		if len(tickers) == 0 {
			return 0, ErrEmptyUniverse
		}

		result, err := provider.Extract(ctx, runner.Source, runner.Store, tickers, runner.Config, runner.now())
		if err != nil {
			return 0, err
		}

		if len(result.Failed) > 0 {
			zerolog.Ctx(ctx).Warn().Strs("Tickers", result.Failed).Msg("some tickers could not be fetched")
		}

		return result.Facts, nil
	})
}

// PerShare rebuilds the per-share table
func (runner *Runner) PerShare(ctx context.Context) (int, error) {
	return runner.track(ctx, StagePerShare, func(ctx context.Context) (int, error) {
		return pershare.Run(ctx, runner.Store, runner.Config)
	})
}

// Growth merges the growth metrics and returns the number of tickers
// written
func (runner *Runner) Growth(ctx context.Context) (int, error) {
	return runner.track(ctx, StageGrowth, func(ctx context.Context) (int, error) {
		result, err := cagr.Run(ctx, runner.Store, runner.Config, runner.now())
		return result.Updated + result.Appended, err
	})
}

// Screen rebuilds the screener table
func (runner *Runner) Screen(ctx context.Context) ([]screener.Candidate, error) {
	var candidates []screener.Candidate

	_, err := runner.track(ctx, StageScreen, func(ctx context.Context) (int, error) {
		var err error

		opts := screener.OptionsFromConfig(runner.Config)
		if runner.ScreenOptions != nil {
			opts = *runner.ScreenOptions
		}

		candidates, err = screener.RunWithOptions(ctx, runner.Store, runner.Config, opts)
		return len(candidates), err
	})

	return candidates, err
}

// All runs every stage in order and stops at the first error
func (runner *Runner) All(ctx context.Context) ([]screener.Candidate, error) {
	if _, err := runner.Fetch(ctx); err != nil {
		return nil, err
	}

	if _, err := runner.PerShare(ctx); err != nil {
		return nil, err
	}

	if _, err := runner.Growth(ctx); err != nil {
		return nil, err
	}

	return runner.Screen(ctx)
}
