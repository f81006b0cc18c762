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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wandsdn/ttp-tools/private/app"
	"github.com/wandsdn/ttp-tools/private/app/command"
	"github.com/wandsdn/ttp-tools/ttpcheck/conf"
	"github.com/wandsdn/ttp-tools/ttpcheck/fit"
	"github.com/wandsdn/ttp-tools/ttpcheck/show"
	"github.com/wandsdn/ttp-tools/ttpcheck/validate"
)

func main() {
	executable := filepath.Base(os.Args[0])
	cmd := &cobra.Command{
		Use:   executable,
		Short: "Table Type Pattern checking tool",
		Args:  cobra.NoArgs,
		// Silence the errors, since we print them in main. Otherwise, cobra
		// will print any non-nil errors returned by a RunE function.
		// See https://github.com/spf13/cobra/issues/340.
		// Commands should turn off the usage help message, if they deem the
		// arguments to be reasonably well-formed. This avoids outputting the
		// help message on errors that are not caused by malformed input.
		// See https://github.com/spf13/cobra/issues/340#issuecomment-374617413.
		SilenceErrors: true,
	}

	cmd.AddCommand(
		command.NewCompletion(cmd),
		command.NewGendocs(cmd),
		command.NewSample(cmd, command.NewSampleConfig(&conf.Overrides{})),
		newVersion(),
		validate.NewCommand(cmd),
		show.NewCommand(cmd),
		fit.NewCommand(cmd),
	)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if code := app.ExitCode(err); code > 0 {
			os.Exit(code)
		}
		os.Exit(1)
	}
}
