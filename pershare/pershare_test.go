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

package pershare_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/pershare"
	"github.com/penny-vault/pvgrowth/table"
)

type fact struct {
	ticker  string
	year    int
	quarter any
	section string
	field   string
	value   any
}

func rawTable(facts ...fact) *table.Table {
	tbl := table.New(data.RawFactColumns)
	for _, f := range facts {
		tbl.Append(f.ticker, f.year, f.quarter, f.section, f.field, f.value, "2024-01-01", "test")
	}
	return tbl
}

// annualYear returns the facts of one fully populated fiscal year
func annualYear(ticker string, year int, shares float64) []fact {
	return []fact{
		{ticker, year, nil, "IncomeStatement", "totalRevenue", 1000.0},
		{ticker, year, nil, "IncomeStatement", "grossProfit", 400.0},
		{ticker, year, nil, "IncomeStatement", "operatingIncome", 200.0},
		{ticker, year, nil, "IncomeStatement", "netIncome", 150.0},
		{ticker, year, nil, "IncomeStatement", "weightedAverageShsOutDil", shares},
		{ticker, year, nil, "BalanceSheet", "totalStockholderEquity", 500.0},
		{ticker, year, nil, "BalanceSheet", "shortLongTermDebtTotal", 250.0},
		{ticker, year, nil, "CashFlow", "freeCashFlow", 120.0},
	}
}

var _ = Describe("Build", func() {
	It("derives ratios per share", func() {
		records, err := pershare.Build(rawTable(annualYear("acme ", 2020, 300)...), pershare.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))

		rec := records[0]
		Expect(rec.Ticker).To(Equal("ACME"))
		Expect(rec.FiscalYear).To(Equal(2020))
		Expect(rec.RevenuePerShare).To(HaveValue(Equal(3.333)))
		Expect(rec.GrossProfitPerShare).To(HaveValue(Equal(1.333)))
		Expect(rec.OperatingIncomePerShare).To(HaveValue(Equal(0.667)))
		Expect(rec.NetIncomePerShare).To(HaveValue(Equal(0.5)))
		Expect(rec.EquityPerShare).To(HaveValue(Equal(1.667)))
		Expect(rec.DebtToEquity).To(HaveValue(Equal(0.5)))
		Expect(rec.FreeCashFlowPerShare).To(HaveValue(Equal(0.4)))
	})

	It("skips years without a valid share count", func() {
		facts := annualYear("ACME", 2020, 100)
		facts = append(facts, annualYear("ACME", 2021, 0)...)
		facts = append(facts,
			fact{"ACME", 2022, nil, "IncomeStatement", "operatingIncome", 10.0},
			fact{"ACME", 2022, nil, "BalanceSheet", "commonStockSharesOutstanding", ""},
		)

		records, err := pershare.Build(rawTable(facts...), pershare.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].FiscalYear).To(Equal(2020))
	})

	It("falls back to the balance sheet share count", func() {
		facts := []fact{
			{"ACME", 2020, nil, "IncomeStatement", "operatingIncome", 10.0},
			{"ACME", 2020, nil, "IncomeStatement", "weightedAverageShsOutDil", -5.0},
			{"ACME", 2020, nil, "BalanceSheet", "commonStockSharesOutstanding", "4"},
		}

		records, err := pershare.Build(rawTable(facts...), pershare.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].OperatingIncomePerShare).To(HaveValue(Equal(2.5)))
	})

	It("uses the equity and debt fallback chains", func() {
		facts := []fact{
			{"ACME", 2020, nil, "IncomeStatement", "weightedAverageShsOutDil", 10.0},
			{"ACME", 2020, nil, "BalanceSheet", "totalStockholderEquity", ""},
			{"ACME", 2020, nil, "BalanceSheet", "commonStockTotalEquity", 40.0},
			{"ACME", 2020, nil, "BalanceSheet", "longTermDebtTotal", 10.0},
		}

		records, err := pershare.Build(rawTable(facts...), pershare.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(records[0].EquityPerShare).To(HaveValue(Equal(4.0)))
		Expect(records[0].DebtToEquity).To(HaveValue(Equal(0.25)))
	})

	It("leaves ratios blank instead of zero when an input is missing", func() {
		facts := []fact{
			{"ACME", 2020, nil, "IncomeStatement", "weightedAverageShsOutDil", 10.0},
			{"ACME", 2020, nil, "BalanceSheet", "shortLongTermDebtTotal", 10.0},
		}

		records, err := pershare.Build(rawTable(facts...), pershare.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(records[0].RevenuePerShare).To(BeNil())
		Expect(records[0].DebtToEquity).To(BeNil())
	})

	It("keeps the most recent years with valid shares in ascending order", func() {
		facts := []fact{}
		for year := 2008; year <= 2023; year++ {
			shares := 100.0
			if year == 2019 {
				shares = 0
			}
			facts = append(facts, annualYear("ACME", year, shares)...)
		}

		records, err := pershare.Build(rawTable(facts...), pershare.Options{MaxYears: 10})
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(10))

		years := make([]int, len(records))
		for idx, rec := range records {
			years[idx] = rec.FiscalYear
		}
		Expect(years).To(Equal([]int{2013, 2014, 2015, 2016, 2017, 2018, 2020, 2021, 2022, 2023}))
	})

	It("never keeps more than ten years", func() {
		facts := []fact{}
		for year := 2008; year <= 2023; year++ {
			facts = append(facts, annualYear("ACME", year, 100)...)
		}

		records, err := pershare.Build(rawTable(facts...), pershare.Options{MaxYears: 15})
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(10))
		Expect(records[0].FiscalYear).To(Equal(2014))

		records, err = pershare.Build(rawTable(facts...), pershare.Options{MaxYears: 3})
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0].FiscalYear).To(Equal(2021))
	})

	It("ignores quarterly facts", func() {
		facts := annualYear("ACME", 2020, 100)
		facts = append(facts, fact{"ACME", 2021, 2, "IncomeStatement", "weightedAverageShsOutDil", 100.0})

		records, err := pershare.Build(rawTable(facts...), pershare.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})

	It("orders tickers alphabetically", func() {
		facts := annualYear("MSFT", 2020, 100)
		facts = append(facts, annualYear("AAPL", 2020, 100)...)

		records, err := pershare.Build(rawTable(facts...), pershare.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(records[0].Ticker).To(Equal("AAPL"))
		Expect(records[1].Ticker).To(Equal("MSFT"))
	})

	It("requires the raw columns", func() {
		tbl := table.New([]string{"Ticker", "FiscalYear", "Field", "Value"})
		_, err := pershare.Build(tbl, pershare.Options{})
		Expect(errors.Is(err, table.ErrMissingColumn)).To(BeTrue())
	})
})

var _ = Describe("Run", func() {
	var (
		ctx   context.Context
		store *table.MemoryStore
		conf  *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = table.NewMemoryStore()
		conf = config.Default()
	})

	It("fails when the raw table is missing", func() {
		_, err := pershare.Run(ctx, store, conf)
		Expect(errors.Is(err, table.ErrMissingStore)).To(BeTrue())
	})

	It("replaces the per-share table", func() {
		stale := table.New([]string{"Ticker", "Manual"})
		stale.Append("OLD", "edit")
		Expect(store.WriteTable(ctx, conf.Tables.PerShare, stale)).To(Succeed())
		Expect(store.WriteTable(ctx, conf.Tables.Raw, rawTable(annualYear("ACME", 2020, 100)...))).To(Succeed())

		n, err := pershare.Run(ctx, store, conf)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(1))

		got, err := store.ReadTable(ctx, conf.Tables.PerShare)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Header).To(Equal(data.PerShareColumns))
		Expect(got.Rows).To(HaveLen(1))
		Expect(got.Rows[0][0]).To(Equal("ACME"))
	})
})
