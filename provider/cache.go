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
	"os"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/rs/zerolog"
)

const DefaultCacheMaxAge = 24 * time.Hour

// Cache saves every document fetched from Source into Dir using the
// MockSource layout, so a cache directory can later be replayed in mock
// mode. Documents younger than MaxAge are served from disk; documents
// already served during this process are kept in memory.
type Cache struct {
	Source FactSource
	Dir    string
	MaxAge time.Duration

	memo *haxmap.Map[string, []byte]
	now  func() time.Time
}

func NewCache(source FactSource, dir string, maxAge time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		Source: source,
		Dir:    dir,
		MaxAge: maxAge,
		memo:   haxmap.New[string, []byte](),
		now:    time.Now,
	}, nil
}

func (cache *Cache) Name() string {
	return cache.Source.Name()
}

func (cache *Cache) Fundamentals(ctx context.Context, ticker string) ([]byte, error) {
	return cache.fetch(ctx, fundamentalsFile(cache.Dir, ticker), func() ([]byte, error) {
		return cache.Source.Fundamentals(ctx, ticker)
	})
}

func (cache *Cache) EndOfDay(ctx context.Context, ticker string, from time.Time) ([]byte, error) {
	return cache.fetch(ctx, endOfDayFile(cache.Dir, ticker), func() ([]byte, error) {
		return cache.Source.EndOfDay(ctx, ticker, from)
	})
}

func (cache *Cache) fetch(ctx context.Context, fn string, download func() ([]byte, error)) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if body, ok := cache.memo.Get(fn); ok {
		return body, nil
	}

	if body, ok := cache.readFresh(fn); ok {
		logger.Debug().Str("FileName", fn).Msg("serving document from cache")
		cache.memo.Set(fn, body)
		return body, nil
	}

	body, err := download()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(fn, body, 0644); err != nil {
		logger.Warn().Err(err).Str("FileName", fn).Msg("could not write cache file")
	}

	cache.memo.Set(fn, body)
	return body, nil
}

func (cache *Cache) readFresh(fn string) ([]byte, bool) {
	info, err := os.Stat(fn)
	if err != nil {
		return nil, false
	}

	if cache.MaxAge > 0 && cache.now().Sub(info.ModTime()) > cache.MaxAge {
		return nil, false
	}

	body, err := os.ReadFile(fn)
	if err != nil {
		return nil, false
	}

	return body, true
}
