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
	"strings"
	"time"

	"github.com/penny-vault/pvgrowth/table"
)

type Section string

const (
	IncomeStatement Section = "IncomeStatement"
	BalanceSheet    Section = "BalanceSheet"
	CashFlow        Section = "CashFlow"
	UnknownSection  Section = "Unknown"
)

// ParseSection accepts the canonical names as well as vendor spellings such
// as "Income_Statement" or "balance sheet"
func ParseSection(s string) Section {
	normalized := strings.Map(func(r rune) rune {
		if r == '_' || r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.ToLower(s))

	switch normalized {
	case "incomestatement":
		return IncomeStatement
	case "balancesheet":
		return BalanceSheet
	case "cashflow", "cashflowstatement":
		return CashFlow
	default:
		return UnknownSection
	}
}

// RawFinancialFact is one observed value of one line item for a ticker and
// fiscal period
type RawFinancialFact struct {
	Ticker string

	// FiscalYear is the year of the period end date
	FiscalYear int

	// FiscalQuarter is 1-4 for quarterly facts and 0 for annual facts
	FiscalQuarter int

	Section Section
	Field   string
	Value   *float64

	// SourceDate is the filing date when the vendor reports one, otherwise
	// the period end date
	SourceDate time.Time
	SourceTag  string
}

func (fact *RawFinancialFact) IsAnnual() bool {
	return fact.FiscalQuarter == 0
}

// Row renders the fact in RawFactColumns order
func (fact *RawFinancialFact) Row() []any {
	var quarter any
	if !fact.IsAnnual() {
		quarter = fact.FiscalQuarter
	}

	var sourceDate any
	if !fact.SourceDate.IsZero() {
		sourceDate = fact.SourceDate.Format("2006-01-02")
	}

	return []any{
		fact.Ticker,
		fact.FiscalYear,
		quarter,
		string(fact.Section),
		fact.Field,
		table.Float(fact.Value),
		sourceDate,
		fact.SourceTag,
	}
}

// PriceSnapshot is the latest close and liquidity of a ticker
type PriceSnapshot struct {
	Ticker         string
	PriceDate      time.Time
	LastClose      *float64
	AvgTradedValue *float64
}

func (snapshot *PriceSnapshot) Row() []any {
	return []any{
		snapshot.Ticker,
		table.Float(snapshot.LastClose),
		table.Float(snapshot.AvgTradedValue),
		snapshot.PriceDate.Format("2006-01-02"),
	}
}
