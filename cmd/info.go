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
	"time"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/library"
	"github.com/penny-vault/pvgrowth/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the workbook",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, conf := loadConfig()

		var summary string

		if conf.Store.Driver == config.DriverPostgres {
			myLibrary, err := library.NewFromDB(ctx, conf.Store.DBUrl)
			if err != nil {
				log.Fatal().Err(err).Msg("could not load workbook info")
			}
			defer myLibrary.Close()

			summary, err = myLibrary.Summary(ctx)
			if err != nil {
				myLibrary.Close()
				log.Fatal().Err(err).Msg("could not create workbook summary document")
			}
		} else {
			store, _, closer, err := pipeline.OpenStore(ctx, conf)
			if err != nil {
				log.Fatal().Err(err).Msg("could not open table store")
			}
			defer closer()

			stats, err := pipeline.Stats(ctx, store, conf.Tables)
			if err != nil {
				closer()
				log.Fatal().Err(err).Msg("could not read table statistics")
			}

			summary = library.RenderSummary(conf.Store.Dir, "", stats, time.Time{}, nil)
		}

		printMarkdown(summary)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
