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
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/db"
	"github.com/penny-vault/pvgrowth/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type storeSettings struct {
	Driver string `toml:"driver"`
	DBUrl  string `toml:"db_url"`
}

type sourceSettings struct {
	Mode   string `toml:"mode"`
	APIKey string `toml:"api_key,omitempty"`
}

type settings struct {
	Store  storeSettings  `toml:"store"`
	Source sourceSettings `toml:"source"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := log.Logger.WithContext(context.Background())

		myLibrary := &library.Library{}
		source := sourceSettings{Mode: config.ModeMock}

		form := huh.NewForm(
			// Gather details about the workbook and who owns it
			huh.NewGroup(
				huh.NewInput().
					Title("Give the workbook a name:").
					Value(&myLibrary.Name),

				huh.NewInput().
					Title("Who owns the workbook?").
					Value(&myLibrary.Owner),
			),

			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&myLibrary.DBUrl).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Where do facts come from
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Where should fundamentals be downloaded from?").
					Options(
						huh.NewOption("EODHD API", config.ModeAPI),
						huh.NewOption("JSON files on disk", config.ModeMock),
					).
					Value(&source.Mode),
				huh.NewInput().
					Title("EODHD API token (leave blank for mock mode):").
					Value(&source.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		log.Info().Msg("creating database tables")

		// run migration
		err = db.Migrate(myLibrary.DBUrl)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")
		log.Info().Msg("Saving workbook name and owner to database")

		// save workbook name and owner to database
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		err = myLibrary.SaveDB(ctx)
		if err != nil {
			myLibrary.Close()
			log.Fatal().Err(err).Msg("error saving workbook settings to database")
		}

		// save database settings to config file
		configFN := cfgFile
		if configFN == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				myLibrary.Close()
				log.Fatal().Err(err).Msg("could not determine user home directory")
			}
			configFN = filepath.Join(home, ".pvgrowth.toml")
		}

		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(settings{
			Store: storeSettings{
				Driver: config.DriverPostgres,
				DBUrl:  myLibrary.DBUrl,
			},
			Source: source,
		})
		if err != nil {
			myLibrary.Close()
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			myLibrary.Close()
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your workbook has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
