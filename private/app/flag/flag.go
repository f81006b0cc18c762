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

// Package flag provides the command line flag types shared by the
// ttpcheck commands.
package flag

import (
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

var (
	_ pflag.Value = (*Format)(nil)
	_ pflag.Value = (*Overrides)(nil)
)

// Format is an output format flag value. Unsupported formats are rejected
// when the flag is parsed.
type Format string

// Set implements pflag.Value.
func (f *Format) Set(val string) error {
	switch val {
	case "human", "json", "yaml":
		*f = Format(val)
		return nil
	}
	return serrors.New("format not supported",
		"format", val, "supported", "human|json|yaml")
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

func (f *Format) String() string { return string(*f) }

// Overrides collects repeated NAME=VALUE flags into an override set. The
// values are checked at parse time and accept the same forms pattern
// documents carry: decimal, 0x prefixed hex, IPv4, IPv6, MAC-48 and named
// protocol constants.
type Overrides map[string]string

// Set implements pflag.Value, accumulating one pair per occurrence.
func (o *Overrides) Set(val string) error {
	name, value, ok := strings.Cut(val, "=")
	if !ok || name == "" {
		return serrors.New("expected NAME=VALUE", "input", val)
	}
	if _, err := openflow.ParseValue(value); err != nil {
		return serrors.Wrap("parsing override value", err, "name", name)
	}
	if *o == nil {
		*o = Overrides{}
	}
	(*o)[name] = value
	return nil
}

// Type implements pflag.Value.
func (o *Overrides) Type() string { return "name=value" }

func (o *Overrides) String() string {
	pairs := make([]string, 0, len(*o))
	for name, value := range *o {
		pairs = append(pairs, name+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
