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
package data

import (
	"fmt"
	"time"

	"github.com/penny-vault/pvgrowth/table"
)

const CalcTimestampColumn = "Calc_Timestamp"

// Metric is a per-share series tracked by the growth engine
type Metric struct {
	// Prefix is used to build the column names of the metrics table
	Prefix string

	// Columns are the per-share table headers accepted for the series
	Columns []string
}

// TrackedMetrics lists the metrics of the calculated-metrics table in
// column order
var TrackedMetrics = []Metric{
	{Prefix: "OpPS", Columns: []string{"OperatingIncomePerShare", "OpPS"}},
	{Prefix: "EPS", Columns: []string{"EPS", "NetIncomePerShare", "EarningsPerShare"}},
	{Prefix: "FCFPS", Columns: []string{"FreeCashFlowPerShare", "FCFPerShare", "FCFPS"}},
}

func (metric Metric) LatestColumn() string {
	return metric.Prefix + "_Latest"
}

func (metric Metric) CAGRColumn(years int) string {
	return fmt.Sprintf("%s_%dY_CAGR", metric.Prefix, years)
}

func (metric Metric) AdjustedFlagColumn() string {
	return metric.Prefix + "_AdjustedFlag"
}

// GrowthWindows are the trailing CAGR windows in years
var GrowthWindows = []int{5, 9, 10}

// MetricsColumns returns the columns owned by the growth engine
func MetricsColumns() []string {
	cols := []string{TickerColumn}
	for _, metric := range TrackedMetrics {
		cols = append(cols, metric.LatestColumn())
		for _, years := range GrowthWindows {
			cols = append(cols, metric.CAGRColumn(years))
		}
		cols = append(cols, metric.AdjustedFlagColumn())
	}
	return append(cols, CalcTimestampColumn)
}

// MetricGrowth is the growth profile of one metric of one ticker. Latest and
// the CAGRs are computed on floored values; the *Adjusted fields record
// whether the raw value at the corresponding endpoint was zero or negative.
type MetricGrowth struct {
	Latest *float64
	CAGR5  *float64
	CAGR9  *float64
	CAGR10 *float64

	LatestAdjusted bool
	Adjusted5      bool
	Adjusted9      bool
	Adjusted10     bool
}

// AdjustedFlag is true if the floor rule fired anywhere in the profile
func (growth MetricGrowth) AdjustedFlag() bool {
	return growth.LatestAdjusted || growth.Adjusted5 || growth.Adjusted9 || growth.Adjusted10
}

// CAGR returns the growth rate of the given window (5, 9 or 10 years)
func (growth MetricGrowth) CAGR(years int) *float64 {
	switch years {
	case 5:
		return growth.CAGR5
	case 9:
		return growth.CAGR9
	case 10:
		return growth.CAGR10
	default:
		return nil
	}
}

// CalculatedMetricsRecord is one ticker's row of the metrics table.
// Growth is indexed like TrackedMetrics.
type CalculatedMetricsRecord struct {
	Ticker        string
	Growth        []MetricGrowth
	CalcTimestamp time.Time
}

// Row renders the record in MetricsColumns order
func (record *CalculatedMetricsRecord) Row() []any {
	row := []any{record.Ticker}
	for idx := range TrackedMetrics {
		var growth MetricGrowth
		if idx < len(record.Growth) {
			growth = record.Growth[idx]
		}

		row = append(row, table.Float(growth.Latest))
		for _, years := range GrowthWindows {
			row = append(row, table.Float(growth.CAGR(years)))
		}
		row = append(row, growth.AdjustedFlag())
	}

	return append(row, record.CalcTimestamp.UTC().Format(time.RFC3339))
}
