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
package library_test

import (
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/library"
)

var _ = Describe("RenderSummary", func() {
	It("describes an empty workbook", func() {
		summary := library.RenderSummary("growth", "", nil, time.Time{}, nil)
		Expect(summary).To(HavePrefix("# growth\n"))
		Expect(summary).ToNot(ContainSubstring("Owner:"))
		Expect(summary).To(ContainSubstring("  * Num Tables: 0\n"))
		Expect(summary).To(ContainSubstring("Last Updated: Never"))
		Expect(summary).To(ContainSubstring("No runs recorded"))
	})

	It("lists tables and runs", func() {
		start := time.Now().Add(-2 * time.Hour)
		stats := []*library.TableStat{
			{Name: "Raw Financials", NumRows: 12500, UpdatedAt: start},
			{Name: "Per Share", NumRows: 40, UpdatedAt: start},
		}
		runs := []*data.Run{
			{
				ID:        uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
				Stage:     "fetch",
				StartTime: start,
				EndTime:   start.Add(90 * time.Second),
				NumRows:   12500,
				Status:    data.RunSuccess,
			},
		}

		summary := library.RenderSummary("growth", "jdoe@example.com", stats, start, runs)
		Expect(summary).To(ContainSubstring("Owner: jdoe@example.com"))
		Expect(summary).To(ContainSubstring("  * Num Tables: 2\n"))
		Expect(summary).To(ContainSubstring("  * Total Rows: 12,540\n"))
		Expect(summary).To(ContainSubstring("  * Raw Financials: 12,500 rows, updated "))
		Expect(summary).To(ContainSubstring("fetch: success, 12,500 rows in 1 minute 30 seconds [0f8fad]"))
		Expect(summary).ToNot(ContainSubstring("Never"))
	})
})
