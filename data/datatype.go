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

// Default table names in the workbook
const (
	RawTableName      = "Raw Financials"
	PerShareTableName = "Per Share"
	MetricsTableName  = "Calculated Metrics"
	PricesTableName   = "Prices"
	ScreenerTableName = "Screener"
)

const (
	TickerColumn     = "Ticker"
	FiscalYearColumn = "FiscalYear"
)

var (
	RawFactColumns = []string{
		TickerColumn,
		FiscalYearColumn,
		"FiscalQuarter",
		"Section",
		"Field",
		"Value",
		"SourceDate",
		"SourceTag",
	}

	// RawFactKey identifies a fact; FiscalQuarter is blank for annual facts
	RawFactKey = []string{TickerColumn, FiscalYearColumn, "FiscalQuarter", "Section", "Field"}

	PriceColumns = []string{
		TickerColumn,
		"LastClose",
		"AvgTradedValue30D",
		"PriceDate",
	}

	PriceKey = []string{TickerColumn}
)
