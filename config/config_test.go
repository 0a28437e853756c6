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
package config_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
)

func newViper(doc string) *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigType("toml")
	Expect(v.ReadConfig(strings.NewReader(doc))).To(Succeed())
	return v
}

var _ = Describe("Load", func() {
	It("falls back to the defaults", func() {
		conf, err := config.Load(newViper(""))
		Expect(err).ToNot(HaveOccurred())
		Expect(conf.Store.Driver).To(Equal(config.DriverCSV))
		Expect(conf.Source.Mode).To(Equal(config.ModeMock))
		Expect(conf.Tables.Metrics).To(Equal(data.MetricsTableName))
		Expect(conf.PerShare.MaxYears).To(Equal(10))
		Expect(conf.Screener.MinCAGR5).To(BeNil())
		Expect(conf.Screener.MaxDebtToEquity).To(BeNil())
	})

	It("reads the file", func() {
		conf, err := config.Load(newViper(`
[store]
driver = "memory"

[universe]
tickers = ["msft", "aapl"]

[tables]
metrics = "Metrics v2"

[screener]
metric = "eps"
min_cagr5 = 0.1
max_debt_to_equity = 2
`))
		Expect(err).ToNot(HaveOccurred())
		Expect(conf.Store.Driver).To(Equal(config.DriverMemory))
		Expect(conf.Universe.Tickers).To(Equal([]string{"msft", "aapl"}))
		Expect(conf.Tables.Metrics).To(Equal("Metrics v2"))
		Expect(conf.Tables.Raw).To(Equal(data.RawTableName))
		Expect(conf.Screener.MinCAGR5).To(HaveValue(Equal(0.1)))
		Expect(conf.Screener.MaxDebtToEquity).To(HaveValue(Equal(2.0)))
		Expect(conf.Screener.MinLongCAGR).To(BeNil())

		metric, ok := conf.ScreenerMetric()
		Expect(ok).To(BeTrue())
		Expect(metric.Prefix).To(Equal("EPS"))
	})

	DescribeTable("rejects unknown settings",
		func(doc string, expected error) {
			_, err := config.Load(newViper(doc))
			Expect(errors.Is(err, expected)).To(BeTrue())
		},
		Entry("driver", "[store]\ndriver = \"sqlite\"\n", config.ErrUnknownDriver),
		Entry("mode", "[source]\nmode = \"scrape\"\n", config.ErrUnknownMode),
		Entry("metric", "[screener]\nmetric = \"ROE\"\n", config.ErrUnknownMetric),
		Entry("threshold text", "[screener]\nmin_cagr5 = \"abc\"\n", config.ErrBadThreshold),
		Entry("threshold boolean", "[screener]\nmax_debt_to_equity = true\n", config.ErrBadThreshold),
	)

	It("accepts numeric text and blank thresholds", func() {
		conf, err := config.Load(newViper("[screener]\nmin_cagr5 = \" 0.15 \"\nmin_long_cagr = \"\"\nmin_avg_traded_value = 1000000\n"))
		Expect(err).ToNot(HaveOccurred())
		Expect(conf.Screener.MinCAGR5).To(HaveValue(Equal(0.15)))
		Expect(conf.Screener.MinLongCAGR).To(BeNil())
		Expect(conf.Screener.MinAvgTradedValue).To(HaveValue(Equal(1000000.0)))
	})

	It("caps the per-share window at ten years", func() {
		conf, err := config.Load(newViper("[pershare]\nmax_years = 25\n"))
		Expect(err).ToNot(HaveOccurred())
		Expect(conf.PerShare.MaxYears).To(Equal(10))

		conf, err = config.Load(newViper("[pershare]\nmax_years = 4\n"))
		Expect(err).ToNot(HaveOccurred())
		Expect(conf.PerShare.MaxYears).To(Equal(4))
	})

	It("restores non-positive limits", func() {
		conf, err := config.Load(newViper("[pershare]\nmax_years = 0\n[source]\nrate_limit = -5\n"))
		Expect(err).ToNot(HaveOccurred())
		Expect(conf.PerShare.MaxYears).To(Equal(10))
		Expect(conf.Source.RateLimit).To(Equal(config.Default().Source.RateLimit))
	})
})

var _ = Describe("TablesConfig", func() {
	It("lists the tables in pipeline order", func() {
		Expect(config.Default().Tables.Names()).To(Equal([]string{
			data.RawTableName,
			data.PricesTableName,
			data.PerShareTableName,
			data.MetricsTableName,
			data.ScreenerTableName,
		}))
	})
})
