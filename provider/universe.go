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
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvgrowth/config"
)

type universeRecord struct {
	Ticker string `csv:"Ticker"`
}

// NormalizeTicker trims and upper-cases ticker and appends suffix when the
// ticker has no exchange suffix of its own
func NormalizeTicker(ticker, suffix string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return ""
	}

	if !strings.Contains(ticker, ".") && suffix != "" {
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		ticker += strings.ToUpper(suffix)
	}

	return ticker
}

// NormalizeUniverse normalizes every ticker, dropping blanks and duplicates
// while keeping the first occurrence order
func NormalizeUniverse(tickers []string, suffix string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))

	for _, ticker := range tickers {
		normalized := NormalizeTicker(ticker, suffix)
		if normalized == "" || seen[normalized] {
			continue
		}

		seen[normalized] = true
		out = append(out, normalized)
	}

	return out
}

// LoadUniverse returns the configured tickers followed by the tickers of
// the universe file (a CSV with a Ticker column), normalized
func LoadUniverse(conf config.UniverseConfig) ([]string, error) {
	tickers := append([]string(nil), conf.Tickers...)

	if conf.File != "" {
		fh, err := os.Open(conf.File)
		if err != nil {
			return nil, err
		}
		defer fh.Close()

		records := []*universeRecord{}
		if err := gocsv.UnmarshalFile(fh, &records); err != nil {
			return nil, err
		}

		for _, record := range records {
			tickers = append(tickers, record.Ticker)
		}
	}

	return NormalizeUniverse(tickers, conf.DefaultSuffix), nil
}
