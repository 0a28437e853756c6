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
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/penny-vault/pvgrowth/data"
	"github.com/penny-vault/pvgrowth/screener"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	interactive bool
	topN        int
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Rank tickers whose recent growth beats their long run growth",
	Long: `screen rebuilds the screener table from the calculated metrics. A ticker
is kept when its 5 year CAGR is higher than its long CAGR (9 year, or 10
year when 9 is not available) and it passes every configured threshold.
Candidates are ranked by payback period, the years of compounding earnings
it takes to earn back the last close.

Use --interactive to set the metric and thresholds in a form instead of
the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, conf := loadConfig()

		opts := screener.OptionsFromConfig(conf)
		if interactive {
			opts = askScreenOptions(opts)
		}

		runner, closer := newRunner(ctx, conf, false)
		defer closer()

		runner.ScreenOptions = &opts

		candidates, err := runner.Screen(ctx)
		if err != nil {
			closer()
			log.Fatal().Err(err).Msg("screen failed")
		}

		printCandidates(candidates, opts.Metric, topN)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "set the screen options in a form")
	screenCmd.Flags().IntVarP(&topN, "top", "n", 20, "number of candidates to print")
}

func formatThreshold(val *float64) string {
	if val == nil {
		return ""
	}
	return strconv.FormatFloat(*val, 'f', -1, 64)
}

func parseThreshold(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}

	return &val, nil
}

func validateThreshold(s string) error {
	_, err := parseThreshold(s)
	return err
}

// askScreenOptions lets the user edit opts in a form. Blank thresholds are
// disabled.
func askScreenOptions(opts screener.Options) screener.Options {
	metricPrefix := opts.Metric.Prefix
	minCAGR5 := formatThreshold(opts.MinCAGR5)
	maxDebtToEquity := formatThreshold(opts.MaxDebtToEquity)
	minLongCAGR := formatThreshold(opts.MinLongCAGR)
	minAvgTradedValue := formatThreshold(opts.MinAvgTradedValue)

	metricOptions := make([]huh.Option[string], 0, len(data.TrackedMetrics))
	for _, metric := range data.TrackedMetrics {
		metricOptions = append(metricOptions, huh.NewOption[string](metric.Prefix, metric.Prefix))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which metric should drive the screen?").
				Options(metricOptions...).
				Value(&metricPrefix),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Minimum 5 year CAGR (blank to disable):").
				Value(&minCAGR5).
				Validate(validateThreshold),
			huh.NewInput().
				Title("Minimum long CAGR (blank to disable):").
				Value(&minLongCAGR).
				Validate(validateThreshold),
			huh.NewInput().
				Title("Maximum debt to equity (blank to disable):").
				Value(&maxDebtToEquity).
				Validate(validateThreshold),
			huh.NewInput().
				Title("Minimum 30 day average traded value (blank to disable):").
				Value(&minAvgTradedValue).
				Validate(validateThreshold),
		),
	)

	if err := form.Run(); err != nil {
		log.Fatal().Err(err).Msg("error gathering screen options")
	}

	for _, metric := range data.TrackedMetrics {
		if metric.Prefix == metricPrefix {
			opts.Metric = metric
		}
	}

	// values were validated by the form
	opts.MinCAGR5, _ = parseThreshold(minCAGR5)
	opts.MinLongCAGR, _ = parseThreshold(minLongCAGR)
	opts.MaxDebtToEquity, _ = parseThreshold(maxDebtToEquity)
	opts.MinAvgTradedValue, _ = parseThreshold(minAvgTradedValue)

	return opts
}

func printCandidates(candidates []screener.Candidate, metric data.Metric, limit int) {
	var sb strings.Builder
	p := message.NewPrinter(language.English)

	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}

	optional := func(val *float64, format string) string {
		if val == nil {
			return "-"
		}
		return p.Sprintf(format, *val)
	}

	percent := func(val *float64) string {
		if val == nil {
			return "-"
		}
		return p.Sprintf("%.2f%%", *val*100)
	}

	fmt.Fprintf(&sb, "%s\n\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("SCREENER (%s)", metric.Prefix)))

	if len(candidates) == 0 {
		fmt.Fprint(&sb, "No ticker passed the screen")
	}

	for idx := range candidates {
		if limit > 0 && idx >= limit {
			fmt.Fprintf(&sb, "\n... and %d more", len(candidates)-limit)
			break
		}

		candidate := candidates[idx]
		adjusted := ""
		if candidate.Adjusted {
			adjusted = " *"
		}

		fmt.Fprintf(&sb, "%3d. %-10s payback %s yrs  5Y %s  long %s  close %s%s\n",
			candidate.Rank,
			keyword(candidate.Ticker),
			optional(candidate.PaybackYears, "%.2f"),
			percent(candidate.CAGR5),
			percent(candidate.LongCAGR),
			optional(candidate.LastClose, "%.2f"),
			adjusted,
		)
	}

	fmt.Println(
		lipgloss.NewStyle().
			Width(90).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Render(sb.String()),
	)
}
