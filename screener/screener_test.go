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

package screener_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/numeric"
	"github.com/penny-vault/pvgrowth/screener"
	"github.com/penny-vault/pvgrowth/table"
)

func fixtures() (metrics, prices, perShare *table.Table) {
	metrics = table.New([]string{"Ticker", "OpPS_Latest", "OpPS_5Y_CAGR", "OpPS_9Y_CAGR", "OpPS_10Y_CAGR", "OpPS_AdjustedFlag"})
	metrics.Append("ACME", 2.0, 0.3, 0.1, nil, true)
	metrics.Append("BETA", "2", "0.2", nil, "0.1", "false")
	metrics.Append("SLOW", 1.0, 0.05, 0.1, nil, false)
	metrics.Append("NOLONG", 1.0, 0.3, nil, nil, false)
	metrics.Append("NOPX", 1.0, 0.25, 0.05, nil, false)

	prices = table.New(data.PriceColumns)
	prices.Append("ACME", 50.0, 1e6, "2024-01-31")
	prices.Append("BETA", 50.0, 5e5, "2024-01-31")

	perShare = table.New(data.PerShareColumns)
	perShare.Append("ACME", 2020, nil, nil, nil, nil, nil, 0.5, nil)
	perShare.Append("ACME", 2019, nil, nil, nil, nil, nil, 5.0, nil)
	perShare.Append("BETA", 2020, nil, nil, nil, nil, nil, 2.0, nil)

	return metrics, prices, perShare
}

func tickers(candidates []screener.Candidate) []string {
	out := make([]string, len(candidates))
	for idx, candidate := range candidates {
		out[idx] = candidate.Ticker
	}
	return out
}

var _ = Describe("Payback", func() {
	DescribeTable("estimates years to earn back the price",
		func(price, growth, latest *float64, expected *float64) {
			if expected == nil {
				Expect(screener.Payback(price, growth, latest)).To(BeNil())
			} else {
				Expect(screener.Payback(price, growth, latest)).To(HaveValue(Equal(*expected)))
			}
		},
		Entry("regular", numeric.Ptr(100), numeric.Ptr(0.2), numeric.Ptr(5), numeric.Ptr(8.83)),
		Entry("floored earnings", numeric.Ptr(10), numeric.Ptr(0.1), numeric.Ptr(-3), numeric.Ptr(48.42)),
		Entry("zero base", numeric.Ptr(100), numeric.Ptr(-1), numeric.Ptr(5), nil),
		Entry("no growth", numeric.Ptr(100), numeric.Ptr(0), numeric.Ptr(5), nil),
		Entry("log of a negative", numeric.Ptr(100), numeric.Ptr(-0.5), numeric.Ptr(1), nil),
		Entry("missing price", nil, numeric.Ptr(0.2), numeric.Ptr(5), nil),
		Entry("missing latest", numeric.Ptr(100), numeric.Ptr(0.2), nil, nil),
	)
})

var _ = Describe("Screen", func() {
	var (
		metrics, prices, perShare *table.Table
		opts                      screener.Options
	)

	BeforeEach(func() {
		metrics, prices, perShare = fixtures()
		opts = screener.Options{Metric: data.TrackedMetrics[0]}
	})

	It("keeps accelerating tickers ranked by payback", func() {
		candidates, err := screener.Screen(metrics, prices, perShare, opts)
		Expect(err).ToNot(HaveOccurred())
		Expect(tickers(candidates)).To(Equal([]string{"ACME", "BETA", "NOPX"}))

		acme := candidates[0]
		Expect(acme.Rank).To(Equal(1))
		Expect(acme.PaybackYears).To(HaveValue(Equal(8.16)))
		Expect(acme.LongCAGR).To(HaveValue(Equal(0.1)))
		Expect(acme.DebtToEquity).To(HaveValue(Equal(0.5)))
		Expect(acme.Adjusted).To(BeTrue())

		beta := candidates[1]
		Expect(beta.PaybackYears).To(HaveValue(Equal(9.83)))
		Expect(beta.LongCAGR).To(HaveValue(Equal(0.1)))
		Expect(beta.Adjusted).To(BeFalse())

		Expect(candidates[2].PaybackYears).To(BeNil())
		Expect(candidates[2].Rank).To(Equal(3))
	})

	It("breaks payback ties by growth and then ticker", func() {
		candidates, err := screener.Screen(metrics, nil, nil, opts)
		Expect(err).ToNot(HaveOccurred())
		Expect(tickers(candidates)).To(Equal([]string{"ACME", "NOPX", "BETA"}))
	})

	DescribeTable("applies optional thresholds",
		func(configure func(*screener.Options), expected []string) {
			configure(&opts)
			candidates, err := screener.Screen(metrics, prices, perShare, opts)
			Expect(err).ToNot(HaveOccurred())
			Expect(tickers(candidates)).To(Equal(expected))
		},
		Entry("minimum 5 year growth", func(o *screener.Options) { o.MinCAGR5 = numeric.Ptr(0.22) }, []string{"ACME", "NOPX"}),
		Entry("maximum debt to equity", func(o *screener.Options) { o.MaxDebtToEquity = numeric.Ptr(1) }, []string{"ACME"}),
		Entry("minimum long growth", func(o *screener.Options) { o.MinLongCAGR = numeric.Ptr(0.08) }, []string{"ACME", "BETA"}),
		Entry("minimum traded value", func(o *screener.Options) { o.MinAvgTradedValue = numeric.Ptr(7e5) }, []string{"ACME"}),
	)

	It("requires a ticker column", func() {
		_, err := screener.Screen(table.New([]string{"OpPS_5Y_CAGR"}), nil, nil, opts)
		Expect(errors.Is(err, table.ErrMissingColumn)).To(BeTrue())
	})

	It("returns nothing when the metric columns are absent", func() {
		opts.Metric = data.TrackedMetrics[2]
		candidates, err := screener.Screen(metrics, prices, perShare, opts)
		Expect(err).ToNot(HaveOccurred())
		Expect(candidates).To(BeEmpty())
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

	It("fails without a metrics table", func() {
		_, err := screener.Run(ctx, store, conf)
		Expect(errors.Is(err, table.ErrMissingStore)).To(BeTrue())
	})

	It("rebuilds the screener table without optional inputs", func() {
		metrics, _, _ := fixtures()
		Expect(store.WriteTable(ctx, conf.Tables.Metrics, metrics)).To(Succeed())

		candidates, err := screener.Run(ctx, store, conf)
		Expect(err).ToNot(HaveOccurred())
		Expect(candidates).To(HaveLen(3))

		got, err := store.ReadTable(ctx, conf.Tables.Screener)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Header).To(Equal(screener.Columns(data.TrackedMetrics[0])))
		Expect(got.Header).To(ContainElement("OpPS_Long_CAGR"))
		Expect(got.Rows).To(HaveLen(3))
		Expect(got.Rows[0][0]).To(Equal(1))
	})
})
