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

package app

import (
	"fmt"
	"io"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// GetPrintf returns a printf function for the "human" formatting flag and
// an empty one for machine readable format flags.
func GetPrintf(output string, writer io.Writer) (func(format string, ctx ...any), error) {
	switch output {
	case "human":
		return func(format string, ctx ...any) {
			fmt.Fprintf(writer, format, ctx...)
		}, nil
	case "yaml", "json":
		return func(format string, ctx ...any) {}, nil
	default:
		return nil, serrors.New("format not supported", "format", output)
	}
}
