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
	"github.com/penny-vault/pvgrowth/table"
)

// PerShareColumns is the header of the per-share table. FreeCashFlowPerShare
// trails the other columns so readers that only know the first eight keep
// working.
var PerShareColumns = []string{
	TickerColumn,
	FiscalYearColumn,
	"RevenuePerShare",
	"GrossProfitPerShare",
	"OperatingIncomePerShare",
	"NetIncomePerShare",
	"EquityPerShare",
	"DebtToEquity",
	"FreeCashFlowPerShare",
}

// PerShareRecord holds the ratios derived for one ticker and fiscal year.
// All values are rounded to 3 decimals; nil means the ratio could not be
// computed.
type PerShareRecord struct {
	Ticker                  string
	FiscalYear              int
	RevenuePerShare         *float64
	GrossProfitPerShare     *float64
	OperatingIncomePerShare *float64
	NetIncomePerShare       *float64
	EquityPerShare          *float64
	DebtToEquity            *float64
	FreeCashFlowPerShare    *float64
}

// Row renders the record in PerShareColumns order
func (record *PerShareRecord) Row() []any {
	return []any{
		record.Ticker,
		record.FiscalYear,
		table.Float(record.RevenuePerShare),
		table.Float(record.GrossProfitPerShare),
		table.Float(record.OperatingIncomePerShare),
		table.Float(record.NetIncomePerShare),
		table.Float(record.EquityPerShare),
		table.Float(record.DebtToEquity),
		table.Float(record.FreeCashFlowPerShare),
	}
}
