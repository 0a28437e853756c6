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
	"context"
	"os"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvgrowth",
	Short: "pvgrowth screens equities by the growth of their per-share fundamentals",
	Long: `pvgrowth is a command line utility for maintaining a workbook of
annual fundamentals and using it to find companies whose per-share results
are compounding faster than they used to.

The workbook is a set of tables, stored as CSV files or in PostgreSQL:

	* Raw Financials: every annual fact downloaded from the data source
	* Prices: the latest close and 30-day traded value of each ticker
	* Per Share: per-share ratios for the most recent fiscal years
	* Calculated Metrics: latest values and 5, 9 and 10 year CAGRs
	* Screener: ranked tickers whose 5 year growth beats their long run growth

Each table can be rebuilt on its own with the fetch, pershare, growth and
screen sub-commands, or all at once with run.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			log.Warn().Err(err).Str("Level", viper.GetString("log.level")).Msg("unknown log level, using info")
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvgrowth.toml)")
	rootCmd.PersistentFlags().String("store", "", "table store: memory, csv or postgres")
	rootCmd.PersistentFlags().String("mode", "", "fact source: api or mock")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")

	for key, flag := range map[string]string{
		"store.driver": "store",
		"source.mode":  "mode",
		"log.level":    "log-level",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvgrowth" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvgrowth")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}

// loadConfig returns the validated configuration and a context carrying
// the global logger
func loadConfig() (context.Context, *config.Config) {
	conf, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	return log.Logger.WithContext(context.Background()), conf
}
