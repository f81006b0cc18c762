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

// Package command contains helpers to compose a cobra command tree. Leaf
// commands take a Pather so that examples and generated documentation can
// reference the full command path regardless of where the command is
// mounted.
package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Pather returns the path to a command.
type Pather interface {
	CommandPath() string
}

// StringPather implements Pather for a plain string.
type StringPather string

// CommandPath returns the string.
func (s StringPather) CommandPath() string {
	return string(s)
}

// Join appends the command name to the pather.
func Join(pather Pather, cmd *cobra.Command) Pather {
	return StringPather(fmt.Sprintf("%s %s", pather.CommandPath(), cmd.Name()))
}
