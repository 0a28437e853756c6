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

package table_test

import (
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvgrowth/table"
)

var _ = Describe("ResolveColumns", func() {
	aliases := table.Aliases{
		"Ticker": {"Ticker", "Symbol"},
		"Equity": {"totalStockholderEquity", "totalEquity"},
	}

	It("matches aliases case-insensitively", func() {
		cols, err := table.ResolveColumns([]string{" symbol ", "TotalEquity"}, aliases, true)
		Expect(err).ToNot(HaveOccurred())
		Expect(cols["Ticker"]).To(Equal(0))
		Expect(cols["Equity"]).To(Equal(1))
	})

	It("prefers the first alias in order", func() {
		cols, err := table.ResolveColumns([]string{"totalEquity", "Ticker", "totalStockholderEquity"}, aliases, true)
		Expect(err).ToNot(HaveOccurred())
		Expect(cols["Equity"]).To(Equal(2))
	})

	It("fails strict resolution with the aliases that were tried", func() {
		_, err := table.ResolveColumns([]string{"Ticker"}, aliases, true)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, table.ErrMissingColumn)).To(BeTrue())

		var missing *table.MissingColumnError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Column).To(Equal("Equity"))
		Expect(missing.Aliases).To(Equal([]string{"totalStockholderEquity", "totalEquity"}))
	})

	It("returns Absent in lenient mode", func() {
		cols, err := table.ResolveColumns([]string{"Ticker"}, aliases, false)
		Expect(err).ToNot(HaveOccurred())
		Expect(cols["Equity"]).To(Equal(table.Absent))
		Expect(cols.Has("Equity")).To(BeFalse())
		Expect(cols.Get([]any{"MSFT"}, "Equity")).To(BeNil())
		Expect(cols.Get([]any{"MSFT"}, "Ticker")).To(Equal("MSFT"))
	})
})

var _ = Describe("Table", func() {
	It("clones rows deeply", func() {
		tbl := table.New([]string{"a"})
		tbl.Append(1.0)
		clone := tbl.Clone()
		clone.Rows[0][0] = 2.0
		Expect(tbl.Rows[0][0]).To(Equal(1.0))
	})

	It("returns nil for cells past the end of a row", func() {
		Expect(table.Cell([]any{1}, 3)).To(BeNil())
		Expect(table.Cell([]any{1}, table.Absent)).To(BeNil())
	})

	DescribeTable("CellString",
		func(in any, expected string) {
			Expect(table.CellString(in)).To(Equal(expected))
		},
		Entry("nil", nil, ""),
		Entry("float", 2020.0, "2020"),
		Entry("fraction", 0.125, "0.125"),
		Entry("int", 7, "7"),
		Entry("bool", true, "true"),
		Entry("string", "MSFT", "MSFT"),
	)
})

var _ = Describe("MemoryStore", func() {
	var (
		ctx   context.Context
		store *table.MemoryStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = table.NewMemoryStore()
	})

	It("reports missing tables", func() {
		_, err := store.ReadTable(ctx, "Nope")
		Expect(errors.Is(err, table.ErrMissingStore)).To(BeTrue())

		var missing *table.MissingStoreError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Name).To(Equal("Nope"))
	})

	It("replaces tables whole", func() {
		first := table.New([]string{"a", "b"})
		first.Append(1.0, 2.0)
		first.Append(3.0, 4.0)
		Expect(store.WriteTable(ctx, "T", first)).To(Succeed())

		second := table.New([]string{"a"})
		second.Append(9.0)
		Expect(store.WriteTable(ctx, "T", second)).To(Succeed())

		got, err := store.ReadTable(ctx, "T")
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Header).To(Equal([]string{"a"}))
		Expect(got.Rows).To(Equal([][]any{{9.0}}))
		Expect(store.Names()).To(Equal([]string{"T"}))
	})

	It("does not store the table if the update fails", func() {
		err := store.UpdateTable(ctx, "T", func(tbl *table.Table) (*table.Table, error) {
			return nil, errors.New("boom")
		})
		Expect(err).To(MatchError("boom"))
		Expect(store.Names()).To(BeEmpty())
	})
})

var _ = Describe("CSVStore", func() {
	var (
		ctx   context.Context
		store *table.CSVStore
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		store, err = table.NewCSVStore(GinkgoT().TempDir())
		Expect(err).ToNot(HaveOccurred())
	})

	It("names files after the table slug", func() {
		Expect(store.FileName("Calculated Metrics")).To(HaveSuffix("calculated-metrics.csv"))
	})

	It("reports missing tables", func() {
		_, err := store.ReadTable(ctx, "Per Share")
		Expect(errors.Is(err, table.ErrMissingStore)).To(BeTrue())
	})

	It("round trips cells as strings with blanks as nil", func() {
		tbl := table.New([]string{"Ticker", "FiscalYear", "Value", "Flag"})
		tbl.Append("ACME", 2020, 1.5, true)
		tbl.Append("BETA", 2021, nil, false)
		Expect(store.WriteTable(ctx, "Raw Financials", tbl)).To(Succeed())

		got, err := store.ReadTable(ctx, "Raw Financials")
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Header).To(Equal(tbl.Header))
		Expect(got.Rows).To(Equal([][]any{
			{"ACME", "2020", "1.5", "true"},
			{"BETA", "2021", nil, "false"},
		}))
	})

	It("leaves no temporary files behind", func() {
		tbl := table.New([]string{"a"})
		tbl.Append("x")
		Expect(store.WriteTable(ctx, "T", tbl)).To(Succeed())
		Expect(store.WriteTable(ctx, "T", tbl)).To(Succeed())

		entries, err := os.ReadDir(store.Dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(Equal("t.csv"))
	})
})
