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
package backblaze

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/penny-vault/pvgrowth/config"
	"github.com/rs/zerolog/log"
)

var (
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrMissingCredentials = errors.New("backblaze credentials are not configured")
)

// Upload copies fn into the configured bucket under dirname
func Upload(conf config.BackblazeConfig, fn, dirname string) error {
	if conf.ApplicationID == "" || conf.ApplicationKey == "" || conf.Bucket == "" {
		return ErrMissingCredentials
	}

	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          conf.ApplicationID,
		ApplicationKey: conf.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", conf.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(conf.Bucket)
	if err != nil {
		log.Error().Err(err).Str("BucketName", conf.Bucket).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		log.Error().Str("BucketName", conf.Bucket).Msg("bucket does not exist")
		return ErrBucketNotFound
	}

	reader, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer reader.Close()

	outName := filepath.Base(fn)
	if dirname != "" {
		outName = fmt.Sprintf("%s/%s", dirname, outName)
	}

	file, err := bucket.UploadFile(outName, map[string]string{}, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", conf.Bucket).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
