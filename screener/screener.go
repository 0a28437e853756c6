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

// Package screener turns the calculated-metrics table into a ranked
// watchlist of accelerating growers.
package screener

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/numeric"
	"github.com/penny-vault/pvgrowth/pershare"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
)

// Options select the screened metric and the optional thresholds. A nil
// threshold is not applied.
type Options struct {
	Metric data.Metric

	MinCAGR5          *float64
	MaxDebtToEquity   *float64
	MinLongCAGR       *float64
	MinAvgTradedValue *float64
}

// OptionsFromConfig builds screener options from the configuration
func OptionsFromConfig(conf *config.Config) Options {
	metric, ok := conf.ScreenerMetric()
	if !ok {
		metric = data.TrackedMetrics[0]
	}

	return Options{
		Metric:            metric,
		MinCAGR5:          conf.Screener.MinCAGR5,
		MaxDebtToEquity:   conf.Screener.MaxDebtToEquity,
		MinLongCAGR:       conf.Screener.MinLongCAGR,
		MinAvgTradedValue: conf.Screener.MinAvgTradedValue,
	}
}

// Candidate is a ticker that passed every filter
type Candidate struct {
	Rank           int
	Ticker         string
	LastClose      *float64
	AvgTradedValue *float64
	Latest         *float64
	CAGR5          *float64
	LongCAGR       *float64
	DebtToEquity   *float64
	PaybackYears   *float64
	Adjusted       bool
}

// Columns returns the header of the screener table for metric
func Columns(metric data.Metric) []string {
	return []string{
		"Rank",
		data.TickerColumn,
		"LastClose",
		"AvgTradedValue30D",
		metric.LatestColumn(),
		metric.CAGRColumn(5),
		metric.Prefix + "_Long_CAGR",
		"DebtToEquity",
		"Payback_Years",
		metric.AdjustedFlagColumn(),
	}
}

func (candidate *Candidate) Row() []any {
	return []any{
		candidate.Rank,
		candidate.Ticker,
		table.Float(candidate.LastClose),
		table.Float(candidate.AvgTradedValue),
		table.Float(candidate.Latest),
		table.Float(candidate.CAGR5),
		table.Float(candidate.LongCAGR),
		table.Float(candidate.DebtToEquity),
		table.Float(candidate.PaybackYears),
		candidate.Adjusted,
	}
}

// Payback estimates how many years of earnings compounding at growth it
// takes to sum to price, starting from latest (floored). The result is
// rounded to 2 decimals; nil when it is undefined.
func Payback(price, growth, latest *float64) *float64 {
	earnings := numeric.FloorToPositive(latest)
	if price == nil || growth == nil || earnings == nil {
		return nil
	}

	p, g, e := *price, *growth, *earnings
	if math.IsNaN(p) || math.IsInf(p, 0) || math.IsNaN(g) || math.IsInf(g, 0) || g == -1 {
		return nil
	}

	denominator := math.Log1p(g)
	if denominator == 0 || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return nil
	}

	years := math.Log1p(p*g/e) / denominator
	if math.IsNaN(years) || math.IsInf(years, 0) {
		return nil
	}

	return numeric.Round(&years, 2)
}

type snapshot struct {
	lastClose      *float64
	avgTradedValue *float64
}

func readPrices(prices *table.Table) map[string]snapshot {
	out := make(map[string]snapshot)
	if prices == nil {
		return out
	}

	cols, _ := table.ResolveColumns(prices.Header, table.Aliases{
		"Ticker":            {data.TickerColumn, "Symbol"},
		"LastClose":         {"LastClose", "Close", "Price"},
		"AvgTradedValue30D": {"AvgTradedValue30D", "AvgTradedValue"},
	}, false)
	if !cols.Has("Ticker") {
		return out
	}

	for _, row := range prices.Rows {
		ticker := pershare.NormalizeTicker(table.CellString(cols.Get(row, "Ticker")))
		out[ticker] = snapshot{
			lastClose:      numeric.ToNumber(cols.Get(row, "LastClose")),
			avgTradedValue: numeric.ToNumber(cols.Get(row, "AvgTradedValue30D")),
		}
	}

	return out
}

// readDebtToEquity returns the debt-to-equity ratio of each ticker's latest
// fiscal year
func readDebtToEquity(perShare *table.Table) map[string]*float64 {
	out := make(map[string]*float64)
	if perShare == nil {
		return out
	}

	cols, _ := table.ResolveColumns(perShare.Header, table.Aliases{
		"Ticker":       {data.TickerColumn, "Symbol"},
		"FiscalYear":   {data.FiscalYearColumn, "Year"},
		"DebtToEquity": {"DebtToEquity", "DE"},
	}, false)
	if !cols.Has("Ticker") || !cols.Has("FiscalYear") || !cols.Has("DebtToEquity") {
		return out
	}

	latestYear := make(map[string]float64)
	for _, row := range perShare.Rows {
		ticker := pershare.NormalizeTicker(table.CellString(cols.Get(row, "Ticker")))
		year := numeric.ToNumber(cols.Get(row, "FiscalYear"))
		if ticker == "" || year == nil {
			continue
		}

		if seen, ok := latestYear[ticker]; ok && seen > *year {
			continue
		}

		latestYear[ticker] = *year
		out[ticker] = numeric.ToNumber(cols.Get(row, "DebtToEquity"))
	}

	return out
}

func below(v, min *float64) bool {
	return min != nil && (v == nil || *v < *min)
}

func above(v, max *float64) bool {
	return max != nil && (v == nil || *v > *max)
}

// Screen filters the metrics table and ranks the survivors. prices and
// perShare are optional and may be nil.
//
// Filters, in order: the 5 year rate must exceed the long rate (9 year,
// else 10 year); then the optional minimum 5 year rate, maximum
// debt-to-equity, minimum long rate and minimum average traded value. A
// threshold fails when the value it tests is blank.
//
// Candidates are ranked by payback ascending (blank last), then 5 year
// rate descending, then ticker.
func Screen(metrics, prices, perShare *table.Table, opts Options) ([]Candidate, error) {
	metric := opts.Metric
	if metric.Prefix == "" {
		metric = data.TrackedMetrics[0]
	}

	cols, err := table.ResolveColumns(metrics.Header, table.Aliases{
		data.TickerColumn: {data.TickerColumn, "Symbol"},
	}, true)
	if err != nil {
		return nil, err
	}

	metricCols, _ := table.ResolveColumns(metrics.Header, table.Aliases{
		"Latest":   {metric.LatestColumn()},
		"CAGR5":    {metric.CAGRColumn(5)},
		"CAGR9":    {metric.CAGRColumn(9)},
		"CAGR10":   {metric.CAGRColumn(10)},
		"Adjusted": {metric.AdjustedFlagColumn()},
	}, false)

	snapshots := readPrices(prices)
	debtToEquity := readDebtToEquity(perShare)

	candidates := make([]Candidate, 0)
	for _, row := range metrics.Rows {
		ticker := pershare.NormalizeTicker(table.CellString(cols.Get(row, data.TickerColumn)))
		if ticker == "" {
			continue
		}

		cagr5 := numeric.ToNumber(metricCols.Get(row, "CAGR5"))
		longCAGR := numeric.ToNumber(metricCols.Get(row, "CAGR9"))
		if longCAGR == nil {
			longCAGR = numeric.ToNumber(metricCols.Get(row, "CAGR10"))
		}

		if cagr5 == nil || longCAGR == nil || *cagr5 <= *longCAGR {
			continue
		}

		snap := snapshots[ticker]
		de := debtToEquity[ticker]

		if below(cagr5, opts.MinCAGR5) ||
			above(de, opts.MaxDebtToEquity) ||
			below(longCAGR, opts.MinLongCAGR) ||
			below(snap.avgTradedValue, opts.MinAvgTradedValue) {
			continue
		}

		latest := numeric.ToNumber(metricCols.Get(row, "Latest"))
		candidates = append(candidates, Candidate{
			Ticker:         ticker,
			LastClose:      snap.lastClose,
			AvgTradedValue: snap.avgTradedValue,
			Latest:         latest,
			CAGR5:          cagr5,
			LongCAGR:       longCAGR,
			DebtToEquity:   de,
			PaybackYears:   Payback(snap.lastClose, cagr5, latest),
			Adjusted:       cast.ToBool(metricCols.Get(row, "Adjusted")),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.PaybackYears == nil) != (b.PaybackYears == nil) {
			return a.PaybackYears != nil
		}
		if a.PaybackYears != nil && *a.PaybackYears != *b.PaybackYears {
			return *a.PaybackYears < *b.PaybackYears
		}
		if *a.CAGR5 != *b.CAGR5 {
			return *a.CAGR5 > *b.CAGR5
		}
		return a.Ticker < b.Ticker
	})

	for idx := range candidates {
		candidates[idx].Rank = idx + 1
	}

	return candidates, nil
}

// ToTable renders candidates as the screener table
func ToTable(candidates []Candidate, metric data.Metric) *table.Table {
	tbl := table.New(Columns(metric))
	for idx := range candidates {
		tbl.Append(candidates[idx].Row()...)
	}
	return tbl
}

func readOptional(ctx context.Context, store table.Store, name string) (*table.Table, error) {
	tbl, err := store.ReadTable(ctx, name)
	if errors.Is(err, table.ErrMissingStore) {
		zerolog.Ctx(ctx).Warn().Str("Table", name).Msg("optional table is missing")
		return nil, nil
	}
	return tbl, err
}

// Run screens the metrics table and replaces the screener table with the
// ranked candidates
func Run(ctx context.Context, store table.Store, conf *config.Config) ([]Candidate, error) {
	opts := OptionsFromConfig(conf)
	return RunWithOptions(ctx, store, conf, opts)
}

// RunWithOptions is Run with explicit screener options
func RunWithOptions(ctx context.Context, store table.Store, conf *config.Config, opts Options) ([]Candidate, error) {
	if opts.Metric.Prefix == "" {
		opts.Metric = data.TrackedMetrics[0]
	}

	metrics, err := store.ReadTable(ctx, conf.Tables.Metrics)
	if err != nil {
		return nil, err
	}

	prices, err := readOptional(ctx, store, conf.Tables.Prices)
	if err != nil {
		return nil, err
	}

	perShare, err := readOptional(ctx, store, conf.Tables.PerShare)
	if err != nil {
		return nil, err
	}

	candidates, err := Screen(metrics, prices, perShare, opts)
	if err != nil {
		return nil, err
	}

	if err := store.WriteTable(ctx, conf.Tables.Screener, ToTable(candidates, opts.Metric)); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("Table", conf.Tables.Screener).Int("NumRows", len(candidates)).Msg("rebuilt screener table")

	return candidates, nil
}
