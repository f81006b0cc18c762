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
	"runtime"

	"github.com/spf13/cobra"
)

func newVersion() *cobra.Command {
	major, minor, patch := 0, 1, 0
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the ttpcheck version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ttpcheck version: v%d.%d.%d\n", major, minor, patch)
			fmt.Printf("  Go version:     %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:        %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
	return cmd
}
