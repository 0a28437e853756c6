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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const summaryRuns = 10

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	stats, err := myLibrary.TableStats(ctx)
	if err != nil {
		return "", err
	}

	lastUpdated, err := myLibrary.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	runs, err := myLibrary.Runs(ctx, summaryRuns)
	if err != nil {
		return "", err
	}

	return RenderSummary(myLibrary.Name, myLibrary.Owner, stats, lastUpdated, runs), nil
}

// RenderSummary formats workbook statistics as markdown
func RenderSummary(name, owner string, stats []*TableStat, lastUpdated time.Time, runs []*data.Run) string {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s\n", name))
	builder.WriteString("## Details\n\n")

	if owner != "" {
		builder.WriteString(fmt.Sprintf("Owner: %s\n\n", owner))
	}

	totalRows := 0
	for _, stat := range stats {
		totalRows += stat.NumRows
	}

	builder.WriteString(p.Sprintf("  * Num Tables: %d\n", len(stats)))
	builder.WriteString(p.Sprintf("  * Total Rows: %d\n\n", totalRows))

	if lastUpdated.IsZero() || lastUpdated.Year() <= 1 {
		builder.WriteString("Last Updated: Never\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", timeago.English.Format(lastUpdated), lastUpdated.Local().Format("01/02/2006")))
	}

	builder.WriteString("## Tables\n\n")
	for _, stat := range stats {
		builder.WriteString(p.Sprintf("  * %s: %d rows, updated %s\n", stat.Name, stat.NumRows, timeago.English.Format(stat.UpdatedAt)))
	}

	builder.WriteString("\n## Recent runs\n\n")
	if len(runs) == 0 {
		builder.WriteString("No runs recorded\n")
	}

	for _, run := range runs {
		builder.WriteString(p.Sprintf("  * %s %s: %s, %d rows in %s [%s]\n", run.StartTime.Local().Format("2006-01-02 15:04"),
			run.Stage, run.Status, run.NumRows, durafmt.Parse(run.EndTime.Sub(run.StartTime)).LimitFirstN(2).String(), run.ID.String()[:6]))
	}

	return builder.String()
}
