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
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvgrowth/config"
	"github.com/penny-vault/pvgrowth/pipeline"
	"github.com/penny-vault/pvgrowth/provider"
	"github.com/rs/zerolog/log"
)

// newRunner opens the configured store and source. The returned function
// releases the store.
func newRunner(ctx context.Context, conf *config.Config, withSource bool) (*pipeline.Runner, func()) {
	store, recorder, closer, err := pipeline.OpenStore(ctx, conf)
	if err != nil {
		log.Fatal().Err(err).Str("Driver", conf.Store.Driver).Msg("could not open table store")
	}

	runner := &pipeline.Runner{
		Config:   conf,
		Store:    store,
		Recorder: recorder,
	}

	if withSource {
		source, err := provider.New(conf)
		if err != nil {
			closer()
			log.Fatal().Err(err).Str("Mode", conf.Source.Mode).Msg("could not create fact source")
		}
		runner.Source = source
	}

	return runner, closer
}

func printMarkdown(doc string) {
	r, _ := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(80),
	)

	out, err := r.Render(doc)
	if err != nil {
		log.Fatal().Err(err).Msg("could not render document")
	}

	fmt.Print(out)
}
