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
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// MockSource serves documents saved on disk: {Dir}/{TICKER}.json holds the
// fundamentals and {Dir}/{TICKER}.eod.json the daily bars
type MockSource struct {
	Dir string
}

func (mock *MockSource) Name() string {
	return "mock"
}

func (mock *MockSource) Fundamentals(ctx context.Context, ticker string) ([]byte, error) {
	return readDocument(fundamentalsFile(mock.Dir, ticker))
}

func (mock *MockSource) EndOfDay(ctx context.Context, ticker string, from time.Time) ([]byte, error) {
	return readDocument(endOfDayFile(mock.Dir, ticker))
}

func fundamentalsFile(dir, ticker string) string {
	return filepath.Join(dir, ticker+".json")
}

func endOfDayFile(dir, ticker string) string {
	return filepath.Join(dir, ticker+".eod.json")
}

func readDocument(fn string) ([]byte, error) {
	body, err := os.ReadFile(fn)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoData, fn)
	}
	return body, err
}
