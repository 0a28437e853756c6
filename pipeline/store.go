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
package pipeline

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/library"
	"github.com/penny-vault/pvgrowth/table"
)

// OpenStore returns the store selected by conf.Store.Driver along with a
// function that releases it. The Postgres store also records runs.
func OpenStore(ctx context.Context, conf *config.Config) (table.Store, Recorder, func(), error) {
	noop := func() {}

	switch conf.Store.Driver {
	case config.DriverMemory:
		return table.NewMemoryStore(), nil, noop, nil
	case config.DriverCSV:
		store, err := table.NewCSVStore(conf.Store.Dir)
		if err != nil {
			return nil, nil, noop, err
		}
		return store, nil, noop, nil
	case config.DriverPostgres:
		myLibrary := &library.Library{DBUrl: conf.Store.DBUrl}
		if err := myLibrary.Connect(ctx); err != nil {
			return nil, nil, noop, err
		}
		return myLibrary, myLibrary, myLibrary.Close, nil
	default:
		return nil, nil, noop, fmt.Errorf("%w: %q", config.ErrUnknownDriver, conf.Store.Driver)
	}
}
