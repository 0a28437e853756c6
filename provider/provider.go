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
	"time"

	"github.com/penny-vault/pvgrowth/config"
)

var (
	ErrNoData            = errors.New("no data for ticker")
	ErrInvalidStatusCode = errors.New("invalid status code received")
	ErrMissingAPIKey     = errors.New("source.api_key is required in api mode")
	ErrInvalidJSON       = errors.New("response is not valid JSON")
)

// FactSource returns raw vendor documents for a ticker. Fundamentals is the
// vendor's fundamentals document; EndOfDay is a JSON array of daily bars
// starting at from.
type FactSource interface {
	Name() string
	Fundamentals(ctx context.Context, ticker string) ([]byte, error)
	EndOfDay(ctx context.Context, ticker string, from time.Time) ([]byte, error)
}

// New builds the source selected by conf.Source.Mode, wrapped in a disk
// cache when a cache directory is configured
func New(conf *config.Config) (FactSource, error) {
	var source FactSource

	switch conf.Source.Mode {
	case config.ModeAPI:
		if conf.Source.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		source = NewEODHD(conf.Source)
	case config.ModeMock:
		source = &MockSource{Dir: conf.Source.MockDir}
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownMode, conf.Source.Mode)
	}

	if conf.Source.CacheDir != "" {
		return NewCache(source, conf.Source.CacheDir, DefaultCacheMaxAge)
	}

	return source, nil
}
