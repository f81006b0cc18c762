// Copyright 2026 Richard Sanger, Wand Network Research Group
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wandsdn/ttp-tools/private/config"
)

// NewSample creates the sample command tree from the given sample file
// factories.
func NewSample(pather Pather, factories ...func(Pather) *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display sample files",
	}
	joined := Join(pather, cmd)
	for _, factory := range factories {
		cmd.AddCommand(factory(joined))
	}
	return cmd
}

// NewSampleConfig creates the factory for the sample config command.
func NewSampleConfig(sampler config.Sampler) func(Pather) *cobra.Command {
	return func(pather Pather) *cobra.Command {
		return &cobra.Command{
			Use:   "config",
			Short: "Display sample configuration file",
			Example: fmt.Sprintf("  %[1]s config > overrides.toml",
				pather.CommandPath()),
			Run: func(cmd *cobra.Command, args []string) {
				sampler.Sample(cmd.OutOrStdout(), nil, nil)
			},
		}
	}
}
