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
	"github.com/penny-vault/pvgrowth/backblaze"
	"github.com/penny-vault/pvgrowth/export"
	"github.com/penny-vault/pvgrowth/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var uploadDir string

var exportCmd = &cobra.Command{
	Use:   "export <table> [file]",
	Short: "Export a workbook table to a parquet file",
	Long: `export writes a table of the workbook to a ZSTD compressed parquet file.
When no file name is given the file is named after the table. With
--upload the file is copied to the configured Backblaze bucket under the
given directory.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, conf := loadConfig()

		store, _, closer, err := pipeline.OpenStore(ctx, conf)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open table store")
		}
		defer closer()

		tbl, err := store.ReadTable(ctx, args[0])
		if err != nil {
			closer()
			log.Fatal().Err(err).Str("Table", args[0]).Msg("could not read table")
		}

		fn := export.FileName(args[0])
		if len(args) > 1 {
			fn = args[1]
		}

		if err := export.Parquet(tbl, fn); err != nil {
			closer()
			log.Fatal().Err(err).Str("FileName", fn).Msg("could not write parquet file")
		}

		log.Info().Str("Table", args[0]).Str("FileName", fn).Int("NumRows", tbl.NumRows()).Msg("exported table")

		if cmd.Flags().Changed("upload") {
			if err := backblaze.Upload(conf.Backblaze, fn, uploadDir); err != nil {
				closer()
				log.Fatal().Err(err).Str("Bucket", conf.Backblaze.Bucket).Msg("could not upload file")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&uploadDir, "upload", "", "upload the file to backblaze under this directory")
}
