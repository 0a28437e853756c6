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
	"errors"

	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/library"
	"github.com/penny-vault/pvgrowth/table"
)

// Stats counts the rows of every configured table. Tables that do not exist
// yet are skipped.
func Stats(ctx context.Context, store table.Store, tables config.TablesConfig) ([]*library.TableStat, error) {
	stats := make([]*library.TableStat, 0, 5)
	for _, name := range tables.Names() {
		tbl, err := store.ReadTable(ctx, name)
		if errors.Is(err, table.ErrMissingStore) {
			continue
		}
		if err != nil {
			return nil, err
		}

		stats = append(stats, &library.TableStat{
			Name:    name,
			NumRows: tbl.NumRows(),
		})
	}

	return stats, nil
}
