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
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/numeric"
	"github.com/penny-vault/pvgrowth/table"
	"github.com/penny-vault/pvgrowth/upsert"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// number of daily bars averaged for the traded value
const tradedValueWindow = 30

// tickers buffered between writes of the raw and prices tables
const extractBatchSize = 100

// how far back EndOfDay requests reach; long enough to cover 30 trading days
const priceLookback = 60 * 24 * time.Hour

var statementSections = []struct {
	key     string
	section data.Section
}{
	{"Income_Statement", data.IncomeStatement},
	{"Balance_Sheet", data.BalanceSheet},
	{"Cash_Flow", data.CashFlow},
}

// fields of a statement period that are not line items
var metaFields = map[string]bool{
	"date":            true,
	"filing_date":     true,
	"currency_symbol": true,
}

// ExtractFacts converts a fundamentals document into raw facts. Annual
// periods come from the "yearly" map of each statement, quarterly periods
// from "quarterly". The fiscal year is the year of the period end date.
func ExtractFacts(ticker string, body []byte, sourceTag string) ([]data.RawFinancialFact, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	doc := gjson.ParseBytes(body)
	facts := make([]data.RawFinancialFact, 0)

	for _, statement := range statementSections {
		for _, frequency := range []string{"yearly", "quarterly"} {
			periods := doc.Get("Financials").Get(statement.key).Get(frequency)
			if !periods.IsObject() {
				continue
			}

			periods.ForEach(func(dateKey, period gjson.Result) bool {
				periodEnd, err := time.Parse("2006-01-02", dateKey.String())
				if err != nil {
					return true
				}

				quarter := 0
				if frequency == "quarterly" {
					quarter = (int(periodEnd.Month())-1)/3 + 1
				}

				sourceDate := periodEnd
				if filed, err := time.Parse("2006-01-02", period.Get("filing_date").String()); err == nil {
					sourceDate = filed
				}

				period.ForEach(func(field, value gjson.Result) bool {
					if metaFields[field.String()] {
						return true
					}

					facts = append(facts, data.RawFinancialFact{
						Ticker:        ticker,
						FiscalYear:    periodEnd.Year(),
						FiscalQuarter: quarter,
						Section:       statement.section,
						Field:         field.String(),
						Value:         factValue(value),
						SourceDate:    sourceDate,
						SourceTag:     sourceTag,
					})
					return true
				})

				return true
			})
		}
	}

	return facts, nil
}

func factValue(value gjson.Result) *float64 {
	switch value.Type {
	case gjson.Number:
		return numeric.ToNumber(value.Float())
	case gjson.String:
		return numeric.ToNumber(value.String())
	default:
		return nil
	}
}

// ExtractPriceSnapshot computes the latest close and the mean daily traded
// value (close * volume) of the last 30 bars of an end-of-day document
func ExtractPriceSnapshot(ticker string, body []byte) (*data.PriceSnapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	type bar struct {
		date   time.Time
		close  *float64
		volume *float64
	}

	bars := make([]bar, 0)
	for _, val := range gjson.ParseBytes(body).Array() {
		date, err := time.Parse("2006-01-02", val.Get("date").String())
		if err != nil {
			continue
		}

		bars = append(bars, bar{
			date:   date,
			close:  factValue(val.Get("close")),
			volume: factValue(val.Get("volume")),
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no price bars for %s", ErrNoData, ticker)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].date.Before(bars[j].date)
	})

	latest := bars[len(bars)-1]
	snapshot := &data.PriceSnapshot{
		Ticker:    ticker,
		PriceDate: latest.date,
		LastClose: latest.close,
	}

	window := bars
	if len(window) > tradedValueWindow {
		window = window[len(window)-tradedValueWindow:]
	}

	var total float64
	var count int
	for _, b := range window {
		if b.close == nil || b.volume == nil {
			continue
		}
		total += *b.close * *b.volume
		count++
	}

	if count > 0 {
		snapshot.AvgTradedValue = numeric.Round(numeric.Ptr(total/float64(count)), 2)
	}

	return snapshot, nil
}

// ExtractResult summarizes an extraction run
type ExtractResult struct {
	Tickers int
	Facts   int
	Prices  int
	Failed  []string
}

// Extract fetches every ticker from source and merges its facts into the raw
// table and its price snapshot into the prices table. Rows are buffered and
// merged once per extractBatchSize tickers. Tickers whose documents cannot
// be fetched or parsed are logged and skipped; store errors abort the run.
func Extract(ctx context.Context, source FactSource, store table.Store, tickers []string, conf *config.Config, now time.Time) (*ExtractResult, error) {
	logger := zerolog.Ctx(ctx)
	result := &ExtractResult{}

	var factRows, priceRows [][]any
	pending := 0

	flush := func() error {
		if _, err := upsert.Upsert(ctx, store, conf.Tables.Raw, data.RawFactColumns, factRows, data.RawFactKey); err != nil {
			return err
		}

		if _, err := upsert.Upsert(ctx, store, conf.Tables.Prices, data.PriceColumns, priceRows, data.PriceKey); err != nil {
			return err
		}

		factRows, priceRows, pending = nil, nil, 0
		return nil
	}

	for _, ticker := range tickers {
		result.Tickers++
		tickerLogger := logger.With().Str("Ticker", ticker).Logger()

		body, err := source.Fundamentals(ctx, ticker)
		if err != nil {
			tickerLogger.Error().Err(err).Msg("could not fetch fundamentals")
			result.Failed = append(result.Failed, ticker)
			continue
		}

		facts, err := ExtractFacts(ticker, body, source.Name())
		if err != nil {
			tickerLogger.Error().Err(err).Msg("could not parse fundamentals")
			result.Failed = append(result.Failed, ticker)
			continue
		}

		for idx := range facts {
			factRows = append(factRows, facts[idx].Row())
		}
		result.Facts += len(facts)

		if snapshot := fetchPriceSnapshot(ctx, source, ticker, now, tickerLogger); snapshot != nil {
			priceRows = append(priceRows, snapshot.Row())
			result.Prices++
		}

		tickerLogger.Info().Int("NumFacts", len(facts)).Msg("extracted ticker")

		pending++
		if pending >= extractBatchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	return result, nil
}

// fetchPriceSnapshot returns nil when the ticker has no usable prices
func fetchPriceSnapshot(ctx context.Context, source FactSource, ticker string, now time.Time, logger zerolog.Logger) *data.PriceSnapshot {
	prices, err := source.EndOfDay(ctx, ticker, now.Add(-priceLookback))
	if err != nil {
		if !errors.Is(err, ErrNoData) {
			logger.Warn().Err(err).Msg("could not fetch end-of-day prices")
		}
		return nil
	}

	snapshot, err := ExtractPriceSnapshot(ticker, prices)
	if err != nil {
		logger.Warn().Err(err).Msg("could not parse end-of-day prices")
		return nil
	}

	return snapshot
}
