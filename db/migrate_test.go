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
package db_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvgrowth/db"
)

var _ = DescribeTable("MigrationURL",
	func(dsn, expected string) {
		Expect(db.MigrationURL(dsn)).To(Equal(expected))
	},
	Entry("postgres scheme", "postgres://user:pw@localhost:5432/growth", "pgx5://user:pw@localhost:5432/growth"),
	Entry("postgresql scheme", "postgresql://localhost/growth?sslmode=disable", "pgx5://localhost/growth?sslmode=disable"),
	Entry("already rewritten", "pgx5://localhost/growth", "pgx5://localhost/growth"),
)
