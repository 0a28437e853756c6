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

// Package pershare derives per-share ratios from the long table of raw
// financial facts. The output table is rebuilt from scratch on every run.
package pershare

import (
	"context"
	"sort"
	"strings"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/numeric"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/rs/zerolog"
)

// DefaultMaxYears is both the default and the largest per-ticker window
const DefaultMaxYears = 10

// Canonical raw field names. Fallback chains are tried in order.
var (
	RevenueFields         = []string{"totalRevenue"}
	GrossProfitFields     = []string{"grossProfit"}
	OperatingIncomeFields = []string{"operatingIncome"}
	NetIncomeFields       = []string{"netIncome"}
	IncomeSharesFields    = []string{"weightedAverageShsOutDil"}
	BalanceSharesFields   = []string{"commonStockSharesOutstanding"}
	EquityFields          = []string{"totalStockholderEquity", "totalEquity", "totalStockholdersEquity", "commonStockTotalEquity"}
	DebtFields            = []string{"shortLongTermDebtTotal", "totalDebt", "longTermDebtTotal"}
	FreeCashFlowFields    = []string{"freeCashFlow", "freeCashflow"}
)

// RawAliases are the accepted headers of the raw facts table
var RawAliases = table.Aliases{
	"Ticker":        {"Ticker", "Symbol"},
	"FiscalYear":    {"FiscalYear", "Year"},
	"FiscalQuarter": {"FiscalQuarter", "Quarter"},
	"Section":       {"Section", "Statement"},
	"Field":         {"Field", "LineItem"},
	"Value":         {"Value"},
}

type Options struct {
	// MaxYears outside 1..DefaultMaxYears means DefaultMaxYears
	MaxYears int
}

// fields of one statement section for a ticker and fiscal year
type fieldMap map[string]any

type yearFacts struct {
	income  fieldMap
	balance fieldMap
	cash    fieldMap
}

func (facts *yearFacts) section(section data.Section) fieldMap {
	switch section {
	case data.IncomeStatement:
		return facts.income
	case data.BalanceSheet:
		return facts.balance
	case data.CashFlow:
		return facts.cash
	default:
		return nil
	}
}

func lookup(fields fieldMap, names []string) any {
	values := make([]any, len(names))
	for idx, name := range names {
		values[idx] = fields[name]
	}
	return numeric.FirstNonNull(values...)
}

// lookupAny tries each section in order and returns the first value found
func lookupAny(names []string, sections ...fieldMap) any {
	for _, fields := range sections {
		if v := lookup(fields, names); v != nil {
			return v
		}
	}
	return nil
}

// NormalizeTicker trims and upper-cases a ticker
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// group nests the annual facts of raw by ticker and fiscal year
func group(raw *table.Table) (map[string]map[int]*yearFacts, error) {
	cols, err := table.ResolveColumns(raw.Header, table.Aliases{
		"Ticker":     RawAliases["Ticker"],
		"FiscalYear": RawAliases["FiscalYear"],
		"Section":    RawAliases["Section"],
		"Field":      RawAliases["Field"],
		"Value":      RawAliases["Value"],
	}, true)
	if err != nil {
		return nil, err
	}

	optional, _ := table.ResolveColumns(raw.Header, table.Aliases{
		"FiscalQuarter": RawAliases["FiscalQuarter"],
	}, false)

	grouped := make(map[string]map[int]*yearFacts)
	for _, row := range raw.Rows {
		if quarter := numeric.ToNumber(optional.Get(row, "FiscalQuarter")); quarter != nil && *quarter != 0 {
			continue
		}

		ticker := NormalizeTicker(table.CellString(cols.Get(row, "Ticker")))
		if ticker == "" {
			continue
		}

		year := numeric.ToNumber(cols.Get(row, "FiscalYear"))
		if year == nil {
			continue
		}

		field := strings.TrimSpace(table.CellString(cols.Get(row, "Field")))
		section := data.ParseSection(table.CellString(cols.Get(row, "Section")))
		if field == "" || section == data.UnknownSection {
			continue
		}

		years, ok := grouped[ticker]
		if !ok {
			years = make(map[int]*yearFacts)
			grouped[ticker] = years
		}

		facts, ok := years[int(*year)]
		if !ok {
			facts = &yearFacts{income: fieldMap{}, balance: fieldMap{}, cash: fieldMap{}}
			years[int(*year)] = facts
		}

		facts.section(section)[field] = cols.Get(row, "Value")
	}

	return grouped, nil
}

// validShares returns the diluted share count of the year, preferring the
// income statement figure, or nil if neither source has a positive count
func validShares(facts *yearFacts) *float64 {
	if shares := numeric.ToNumber(lookup(facts.income, IncomeSharesFields)); shares != nil && *shares > 0 {
		return shares
	}

	if shares := numeric.ToNumber(lookup(facts.balance, BalanceSharesFields)); shares != nil && *shares > 0 {
		return shares
	}

	return nil
}

func perShare(value any, shares *float64) *float64 {
	return numeric.Round(numeric.SafeDivide(numeric.ToNumber(value), shares), 3)
}

// Build derives per-share records from the raw facts table. Records are
// ordered by ticker and then ascending fiscal year; each ticker keeps at
// most opts.MaxYears of its most recent years with a valid share count.
func Build(raw *table.Table, opts Options) ([]data.PerShareRecord, error) {
	maxYears := opts.MaxYears
	if maxYears <= 0 || maxYears > DefaultMaxYears {
		maxYears = DefaultMaxYears
	}

	grouped, err := group(raw)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(grouped))
	for ticker := range grouped {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	records := make([]data.PerShareRecord, 0)
	for _, ticker := range tickers {
		years := make([]int, 0, len(grouped[ticker]))
		for year := range grouped[ticker] {
			years = append(years, year)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(years)))

		kept := make([]data.PerShareRecord, 0, maxYears)
		for _, year := range years {
			if len(kept) == maxYears {
				break
			}

			facts := grouped[ticker][year]
			shares := validShares(facts)
			if shares == nil {
				continue
			}

			equity := numeric.ToNumber(lookup(facts.balance, EquityFields))
			debt := numeric.ToNumber(lookup(facts.balance, DebtFields))

			kept = append(kept, data.PerShareRecord{
				Ticker:                  ticker,
				FiscalYear:              year,
				RevenuePerShare:         perShare(lookup(facts.income, RevenueFields), shares),
				GrossProfitPerShare:     perShare(lookup(facts.income, GrossProfitFields), shares),
				OperatingIncomePerShare: perShare(lookup(facts.income, OperatingIncomeFields), shares),
				NetIncomePerShare:       perShare(lookup(facts.income, NetIncomeFields), shares),
				EquityPerShare:          numeric.Round(numeric.SafeDivide(equity, shares), 3),
				DebtToEquity:            numeric.Round(numeric.SafeDivide(debt, equity), 3),
				FreeCashFlowPerShare:    perShare(lookupAny(FreeCashFlowFields, facts.cash, facts.income), shares),
			})
		}

		for left, right := 0, len(kept)-1; left < right; left, right = left+1, right-1 {
			kept[left], kept[right] = kept[right], kept[left]
		}

		records = append(records, kept...)
	}

	return records, nil
}

// ToTable renders records as the per-share table
func ToTable(records []data.PerShareRecord) *table.Table {
	tbl := table.New(data.PerShareColumns)
	for idx := range records {
		tbl.Append(records[idx].Row()...)
	}
	return tbl
}

// Run rebuilds the per-share table from the raw facts table and returns the
// number of rows written. A missing raw table is an error.
func Run(ctx context.Context, store table.Store, conf *config.Config) (int, error) {
	logger := zerolog.Ctx(ctx)

	raw, err := store.ReadTable(ctx, conf.Tables.Raw)
	if err != nil {
		return 0, err
	}

	records, err := Build(raw, Options{MaxYears: conf.PerShare.MaxYears})
	if err != nil {
		return 0, err
	}

	if err := store.WriteTable(ctx, conf.Tables.PerShare, ToTable(records)); err != nil {
		return 0, err
	}

	logger.Info().Str("Table", conf.Tables.PerShare).Int("NumRows", len(records)).Msg("rebuilt per-share table")

	return len(records), nil
}
