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
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvgrowth/config"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// EODHD downloads fundamentals and end-of-day prices from eodhd.com
type EODHD struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

func NewEODHD(conf config.SourceConfig) *EODHD {
	rateLimit := conf.RateLimit
	if rateLimit <= 0 {
		rateLimit = 1000
	}

	baseURL := conf.BaseURL
	if baseURL == "" {
		baseURL = "https://eodhd.com/api"
	}

	return &EODHD{
		baseURL: baseURL,
		client: resty.New().
			SetQueryParam("api_token", conf.APIKey).
			SetQueryParam("fmt", "json").
			SetTimeout(60 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
	}
}

func (api *EODHD) Name() string {
	return "eodhd"
}

func (api *EODHD) Fundamentals(ctx context.Context, ticker string) ([]byte, error) {
	return api.get(ctx, "/fundamentals/"+url.PathEscape(ticker), nil)
}

func (api *EODHD) EndOfDay(ctx context.Context, ticker string, from time.Time) ([]byte, error) {
	params := map[string]string{
		"period": "d",
		"order":  "a",
	}

	if !from.IsZero() {
		params["from"] = from.Format("2006-01-02")
	}

	return api.get(ctx, "/eod/"+url.PathEscape(ticker), params)
}

func (api *EODHD) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if err := api.limiter.Wait(ctx); err != nil {
		logger.Error().Err(err).Msg("rate limiter wait failed")
		return nil, err
	}

	resp, err := api.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(api.baseURL + path)
	if err != nil {
		logger.Error().Err(err).Str("Path", path).Msg("resty returned an error when querying eodhd")
		return nil, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoData, path)
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Path", path).Msg("eodhd returned an invalid HTTP response")
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), string(resp.Body()))
	}

	return resp.Body(), nil
}
