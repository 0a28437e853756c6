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
	"fmt"
	"time"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvgrowth/healthcheck"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [ticker...]",
	Short: "Run every stage of the pipeline",
	Long: `The run sub-command fetches the universe, rebuilds the per-share table,
merges the growth metrics and rebuilds the screener, stopping at the first
stage that fails. If a healthchecks.io ping id is configured the run is
reported as started, succeeded or failed.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, conf := loadConfig()

		runner, closer := newRunner(ctx, conf, true)
		defer closer()

		runner.Tickers = args

		monitor := healthcheck.New(conf.Healthchecks.PingID)
		if err := monitor.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("could not ping healthcheck start")
		}

		startTime := time.Now()
		candidates, err := runner.All(ctx)
		runTime := time.Since(startTime)

		if err != nil {
			if pingErr := monitor.Fail(ctx, err.Error()); pingErr != nil {
				log.Warn().Err(pingErr).Msg("could not ping healthcheck failure")
			}
			closer()
			log.Fatal().Err(err).Str("RunTime", durafmt.Parse(runTime).String()).Msg("pipeline failed")
		}

		msg := fmt.Sprintf("%d candidates in %s", len(candidates), durafmt.Parse(runTime).LimitFirstN(2).String())
		if err := monitor.Success(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("could not ping healthcheck success")
		}

		log.Info().Str("RunTime", durafmt.Parse(runTime).String()).Int("NumCandidates", len(candidates)).Msg("pipeline finished")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
