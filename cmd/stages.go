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
package cmd

import (
	"github.com/penny-vault/pvgrowth/pershare"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [ticker...]",
	Short: "Download annual fundamentals and prices into the workbook",
	Long: `fetch downloads the fundamentals and recent end-of-day prices of each
ticker and merges them into the raw financials and prices tables. Tickers
given on the command line replace the configured universe. Tickers without
an exchange suffix get the configured default suffix.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, conf := loadConfig()

		runner, closer := newRunner(ctx, conf, true)
		defer closer()

		runner.Tickers = args

		numFacts, err := runner.Fetch(ctx)
		if err != nil {
			closer()
			log.Fatal().Err(err).Msg("fetch failed")
		}

		log.Info().Int("NumFacts", numFacts).Msg("fetched raw financials")
	},
}

var perShareCmd = &cobra.Command{
	Use:   "pershare",
	Short: "Rebuild the per-share table from the raw financials",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, conf := loadConfig()

		maxYears, err := cmd.Flags().GetInt("max-years")
		if err != nil {
			log.Fatal().Err(err).Msg("could not read max-years flag")
		}
		if maxYears > pershare.DefaultMaxYears {
			log.Fatal().Int("MaxYears", maxYears).Int("Limit", pershare.DefaultMaxYears).Msg("max-years is above the per-share window limit")
		}
		if maxYears > 0 {
			conf.PerShare.MaxYears = maxYears
		}

		runner, closer := newRunner(ctx, conf, false)
		defer closer()

		if _, err := runner.PerShare(ctx); err != nil {
			closer()
			log.Fatal().Err(err).Msg("per-share build failed")
		}
	},
}

var growthCmd = &cobra.Command{
	Use:   "growth",
	Short: "Merge latest values and CAGRs into the calculated metrics table",
	Long: `growth computes the latest value and the 5, 9 and 10 year compound
annual growth rate of each per-share metric. Non-positive endpoints are
floored to a small positive value and flagged as adjusted. Columns of the
metrics table that growth does not produce are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, conf := loadConfig()

		runner, closer := newRunner(ctx, conf, false)
		defer closer()

		if _, err := runner.Growth(ctx); err != nil {
			closer()
			log.Fatal().Err(err).Msg("growth calculation failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(perShareCmd)
	rootCmd.AddCommand(growthCmd)

	perShareCmd.Flags().Int("max-years", 0, "number of most recent fiscal years to keep per ticker (at most 10)")
}
