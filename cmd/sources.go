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
	"strings"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sourceDescriptions = map[string]string{
	config.ModeAPI: `Downloads fundamentals and end-of-day prices from the [EODHD](https://eodhd.com)
REST API. Requires ` + "`source.api_key`" + `. Requests are rate limited to
` + "`source.rate_limit`" + ` calls per minute.`,
	config.ModeMock: `Reads ` + "`{TICKER}.json`" + ` fundamentals and ` + "`{TICKER}.eod.json`" + ` price
files from ` + "`source.mock_dir`" + `. The files use the EODHD response format so a
directory written by the download cache can be replayed offline.`,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources [mode]",
	Short: "List the fact sources or describe one of them",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		builder := strings.Builder{}

		modes := []string{config.ModeAPI, config.ModeMock}
		if len(args) > 0 {
			if _, ok := sourceDescriptions[args[0]]; !ok {
				log.Fatal().Str("Mode", args[0]).Msg("unknown source mode")
			}
			modes = args[:1]
		}

		builder.WriteString("# Fact Sources\n")
		for _, mode := range modes {
			builder.WriteString(fmt.Sprintf("\n## %s\n", mode))
			builder.WriteString(sourceDescriptions[mode])
			builder.WriteString("\n")
		}

		builder.WriteString(fmt.Sprintf("\nConfigured mode: **%s**", viper.GetString("source.mode")))
		if cacheDir := viper.GetString("source.cache_dir"); cacheDir != "" {
			builder.WriteString(fmt.Sprintf(", cached in `%s`", cacheDir))
		}
		builder.WriteString("\n")

		printMarkdown(builder.String())
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
