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

// Package cagr computes trailing compound annual growth rates of the tracked
// per-share metrics. Zero and negative values are floored to
// numeric.FloorValue before the ratio is taken; whether that happened is
// tracked separately from the raw sign of each endpoint.
package cagr

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/numeric"
	"github.com/penny-vault/pvgrowth/pershare"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/penny-vault/pvgrowth/upsert"
	"github.com/rs/zerolog"
)

const Decimals = 4

// PerShareAliases resolves the required per-share columns
var PerShareAliases = table.Aliases{
	data.TickerColumn:     {data.TickerColumn, "Symbol"},
	data.FiscalYearColumn: {data.FiscalYearColumn, "Year"},
}

// Window computes the growth rate over the trailing window of the given
// number of years. series is ordered by ascending fiscal year and needs at
// least years+1 entries. adjusted is true if either raw endpoint is zero or
// negative, whether or not the rate could be computed.
func Window(series []*float64, years int) (rate *float64, adjusted bool) {
	n := len(series)
	if years <= 0 || n < years+1 {
		return nil, false
	}

	end := series[n-1]
	start := series[n-1-years]

	adjusted = numeric.IsNonPositive(end) || numeric.IsNonPositive(start)

	endAdj := numeric.FloorToPositive(end)
	startAdj := numeric.FloorToPositive(start)
	if endAdj == nil || startAdj == nil || *startAdj <= 0 {
		return nil, adjusted
	}

	growth := math.Pow(*endAdj / *startAdj, 1/float64(years)) - 1
	return numeric.Round(&growth, Decimals), adjusted
}

// Growth builds the growth profile of one metric series
func Growth(series []*float64) data.MetricGrowth {
	var growth data.MetricGrowth
	if len(series) == 0 {
		return growth
	}

	latest := series[len(series)-1]
	growth.Latest = numeric.Round(numeric.FloorToPositive(latest), Decimals)
	growth.LatestAdjusted = numeric.IsNonPositive(latest)

	growth.CAGR5, growth.Adjusted5 = Window(series, 5)
	growth.CAGR9, growth.Adjusted9 = Window(series, 9)
	growth.CAGR10, growth.Adjusted10 = Window(series, 10)

	return growth
}

type observation struct {
	year   int
	values []*float64
}

// Compute builds one record per ticker of the per-share table, ordered by
// ticker. Ticker and FiscalYear must be present; a metric whose column is
// absent yields an empty profile.
func Compute(perShare *table.Table, now time.Time) ([]data.CalculatedMetricsRecord, error) {
	cols, err := table.ResolveColumns(perShare.Header, PerShareAliases, true)
	if err != nil {
		return nil, err
	}

	metricAliases := make(table.Aliases, len(data.TrackedMetrics))
	for _, metric := range data.TrackedMetrics {
		metricAliases[metric.Prefix] = metric.Columns
	}
	metricCols, _ := table.ResolveColumns(perShare.Header, metricAliases, false)

	byTicker := make(map[string]map[int]*observation)
	for _, row := range perShare.Rows {
		ticker := pershare.NormalizeTicker(table.CellString(cols.Get(row, data.TickerColumn)))
		year := numeric.ToNumber(cols.Get(row, data.FiscalYearColumn))
		if ticker == "" || year == nil {
			continue
		}

		values := make([]*float64, len(data.TrackedMetrics))
		for idx, metric := range data.TrackedMetrics {
			values[idx] = numeric.ToNumber(metricCols.Get(row, metric.Prefix))
		}

		years, ok := byTicker[ticker]
		if !ok {
			years = make(map[int]*observation)
			byTicker[ticker] = years
		}
		years[int(*year)] = &observation{year: int(*year), values: values}
	}

	tickers := make([]string, 0, len(byTicker))
	for ticker := range byTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	records := make([]data.CalculatedMetricsRecord, 0, len(tickers))
	for _, ticker := range tickers {
		observations := make([]*observation, 0, len(byTicker[ticker]))
		for _, obs := range byTicker[ticker] {
			observations = append(observations, obs)
		}
		sort.Slice(observations, func(i, j int) bool {
			return observations[i].year < observations[j].year
		})

		record := data.CalculatedMetricsRecord{
			Ticker:        ticker,
			Growth:        make([]data.MetricGrowth, len(data.TrackedMetrics)),
			CalcTimestamp: now,
		}

		for idx, metric := range data.TrackedMetrics {
			if !metricCols.Has(metric.Prefix) {
				continue
			}

			series := make([]*float64, len(observations))
			for pos, obs := range observations {
				series[pos] = obs.values[idx]
			}
			record.Growth[idx] = Growth(series)
		}

		records = append(records, record)
	}

	return records, nil
}

// Run computes growth for every ticker of the per-share table and merges the
// records into the metrics table keyed by Ticker. Columns of the metrics
// table that this engine does not own are preserved.
func Run(ctx context.Context, store table.Store, conf *config.Config, now time.Time) (upsert.Result, error) {
	logger := zerolog.Ctx(ctx)

	perShare, err := store.ReadTable(ctx, conf.Tables.PerShare)
	if err != nil {
		return upsert.Result{}, err
	}

	records, err := Compute(perShare, now)
	if err != nil {
		return upsert.Result{}, err
	}

	rows := make([][]any, len(records))
	for idx := range records {
		rows[idx] = records[idx].Row()
	}

	result, err := upsert.Upsert(ctx, store, conf.Tables.Metrics, data.MetricsColumns(), rows, []string{data.TickerColumn})
	if err != nil {
		return upsert.Result{}, err
	}

	logger.Info().Str("Table", conf.Tables.Metrics).Int("Updated", result.Updated).Int("Appended", result.Appended).Msg("merged calculated metrics")

	return result, nil
}
