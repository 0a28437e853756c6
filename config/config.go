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

// Package config holds the settings passed into every pipeline component.
// Only the command layer talks to viper; everything else receives a *Config.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/penny-vault/pvgrowth/data"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var (
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrUnknownMode   = errors.New("unknown source mode")
	ErrUnknownMetric = errors.New("unknown screener metric")
	ErrBadThreshold  = errors.New("screener threshold is not a number")
)

const (
	DriverMemory   = "memory"
	DriverCSV      = "csv"
	DriverPostgres = "postgres"

	ModeAPI  = "api"
	ModeMock = "mock"
)

type Config struct {
	Store        StoreConfig        `mapstructure:"store"`
	Source       SourceConfig       `mapstructure:"source"`
	Universe     UniverseConfig     `mapstructure:"universe"`
	Tables       TablesConfig       `mapstructure:"tables"`
	PerShare     PerShareConfig     `mapstructure:"pershare"`
	Screener     ScreenerConfig     `mapstructure:"screener"`
	Healthchecks HealthchecksConfig `mapstructure:"healthchecks"`
	Backblaze    BackblazeConfig    `mapstructure:"backblaze"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
	DBUrl  string `mapstructure:"db_url"`
}

type SourceConfig struct {
	Mode     string `mapstructure:"mode"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	MockDir  string `mapstructure:"mock_dir"`
	CacheDir string `mapstructure:"cache_dir"`

	// RateLimit is the number of requests allowed per minute
	RateLimit int `mapstructure:"rate_limit"`
}

type UniverseConfig struct {
	File          string   `mapstructure:"file"`
	Tickers       []string `mapstructure:"tickers"`
	DefaultSuffix string   `mapstructure:"default_suffix"`
}

// TablesConfig names the tables of the workbook
type TablesConfig struct {
	Raw      string `mapstructure:"raw"`
	PerShare string `mapstructure:"per_share"`
	Metrics  string `mapstructure:"metrics"`
	Prices   string `mapstructure:"prices"`
	Screener string `mapstructure:"screener"`
}

// Names lists the configured table names in pipeline order
func (tables TablesConfig) Names() []string {
	return []string{tables.Raw, tables.Prices, tables.PerShare, tables.Metrics, tables.Screener}
}

type PerShareConfig struct {
	// MaxYears is clamped to 1..10
	MaxYears int `mapstructure:"max_years"`
}

// ScreenerConfig holds the screener thresholds. A nil threshold is not
// applied. Thresholds are parsed by Load, not by viper.Unmarshal.
type ScreenerConfig struct {
	Metric            string   `mapstructure:"metric"`
	MinCAGR5          *float64 `mapstructure:"-"`
	MaxDebtToEquity   *float64 `mapstructure:"-"`
	MinLongCAGR       *float64 `mapstructure:"-"`
	MinAvgTradedValue *float64 `mapstructure:"-"`
}

type HealthchecksConfig struct {
	PingID string `mapstructure:"ping_id"`
}

type BackblazeConfig struct {
	ApplicationID  string `mapstructure:"application_id"`
	ApplicationKey string `mapstructure:"application_key"`
	Bucket         string `mapstructure:"bucket"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverCSV,
			Dir:    "workbook",
		},
		Source: SourceConfig{
			Mode:      ModeMock,
			BaseURL:   "https://eodhd.com/api",
			MockDir:   "mock",
			RateLimit: 1000,
		},
		Universe: UniverseConfig{
			DefaultSuffix: ".US",
		},
		Tables: TablesConfig{
			Raw:      data.RawTableName,
			PerShare: data.PerShareTableName,
			Metrics:  data.MetricsTableName,
			Prices:   data.PricesTableName,
			Screener: data.ScreenerTableName,
		},
		PerShare: PerShareConfig{
			MaxYears: 10,
		},
		Screener: ScreenerConfig{
			Metric: "OpPS",
		},
	}
}

// SetDefaults registers the defaults with v so they show up in config
// files and are overridable by environment variables
func SetDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("store.driver", def.Store.Driver)
	v.SetDefault("store.dir", def.Store.Dir)
	v.SetDefault("store.db_url", def.Store.DBUrl)

	v.SetDefault("source.mode", def.Source.Mode)
	v.SetDefault("source.api_key", def.Source.APIKey)
	v.SetDefault("source.base_url", def.Source.BaseURL)
	v.SetDefault("source.rate_limit", def.Source.RateLimit)
	v.SetDefault("source.mock_dir", def.Source.MockDir)
	v.SetDefault("source.cache_dir", def.Source.CacheDir)

	v.SetDefault("universe.file", def.Universe.File)
	v.SetDefault("universe.tickers", def.Universe.Tickers)
	v.SetDefault("universe.default_suffix", def.Universe.DefaultSuffix)

	v.SetDefault("tables.raw", def.Tables.Raw)
	v.SetDefault("tables.per_share", def.Tables.PerShare)
	v.SetDefault("tables.metrics", def.Tables.Metrics)
	v.SetDefault("tables.prices", def.Tables.Prices)
	v.SetDefault("tables.screener", def.Tables.Screener)

	v.SetDefault("pershare.max_years", def.PerShare.MaxYears)
	v.SetDefault("screener.metric", def.Screener.Metric)

	v.SetEnvPrefix("pvgrowth")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals v into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	conf := Default()
	if err := v.Unmarshal(conf); err != nil {
		return nil, err
	}

	// optional thresholds are only set when the key is present
	thresholds := map[string]**float64{
		"screener.min_cagr5":            &conf.Screener.MinCAGR5,
		"screener.max_debt_to_equity":   &conf.Screener.MaxDebtToEquity,
		"screener.min_long_cagr":        &conf.Screener.MinLongCAGR,
		"screener.min_avg_traded_value": &conf.Screener.MinAvgTradedValue,
	}

	for key, dest := range thresholds {
		val, err := optionalFloat(v, key)
		if err != nil {
			return nil, err
		}
		*dest = val
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func optionalFloat(v *viper.Viper, key string) (*float64, error) {
	if !v.IsSet(key) {
		return nil, nil
	}

	raw := v.Get(key)
	if _, ok := raw.(bool); ok {
		return nil, fmt.Errorf("%w: %s = %v", ErrBadThreshold, key, raw)
	}

	if s, ok := raw.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		raw = strings.TrimSpace(s)
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s = %v", ErrBadThreshold, key, v.Get(key))
	}

	return &f, nil
}

// Validate checks the enumerated settings
func (conf *Config) Validate() error {
	switch conf.Store.Driver {
	case DriverMemory, DriverCSV, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, conf.Store.Driver)
	}

	switch conf.Source.Mode {
	case ModeAPI, ModeMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, conf.Source.Mode)
	}

	if _, ok := conf.ScreenerMetric(); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, conf.Screener.Metric)
	}

	// the per-share window is at most ten fiscal years
	if conf.PerShare.MaxYears <= 0 || conf.PerShare.MaxYears > Default().PerShare.MaxYears {
		conf.PerShare.MaxYears = Default().PerShare.MaxYears
	}

	if conf.Source.RateLimit <= 0 {
		conf.Source.RateLimit = Default().Source.RateLimit
	}

	return nil
}

// ScreenerMetric returns the tracked metric selected for screening
func (conf *Config) ScreenerMetric() (data.Metric, bool) {
	for _, metric := range data.TrackedMetrics {
		if strings.EqualFold(metric.Prefix, conf.Screener.Metric) {
			return metric, true
		}
	}
	return data.Metric{}, false
}
