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

// Package conf holds the ttpcheck configuration.
package conf

import (
	"io"
	"sort"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
	"github.com/wandsdn/ttp-tools/private/config"
)

var _ config.Config = (*Overrides)(nil)
var _ config.TableSampler = (*Overrides)(nil)

// Overrides pins values for the named constants and variable references
// that pattern documents leave open, e.g. "<Router_IP>" for a particular
// deployment. The configured entries are layered over the built in table.
type Overrides struct {
	config.NoDefaulter
	// Values maps a variable reference or named constant to its value.
	// Values accept the same forms as pattern documents: decimal, 0x
	// prefixed hex, IPv4, IPv6, MAC-48 and OFPP_* protocol constants.
	Values map[string]string `toml:"overrides,omitempty"`
}

// Validate checks that every configured value parses.
func (cfg *Overrides) Validate() error {
	_, err := cfg.Resolve()
	return err
}

// Resolve converts the configured entries into the override table consumed
// by the pattern loader, layered over ttp.DefaultOverrides.
func (cfg *Overrides) Resolve() (map[string]openflow.Uint128, error) {
	out := ttp.DefaultOverrides()
	names := make([]string, 0, len(cfg.Values))
	for name := range cfg.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := openflow.ParseValue(cfg.Values[name])
		if err != nil {
			return nil, serrors.Wrap("parsing override", err,
				"name", name, "value", cfg.Values[name])
		}
		out[name] = v
	}
	return out, nil
}

// Sample writes the sample configuration to dst.
func (cfg *Overrides) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, overridesSample)
}

// ConfigName returns the name of the config block.
func (cfg *Overrides) ConfigName() string {
	return "overrides"
}

// Load reads the overrides from the TOML file at path. An empty path
// yields the built in defaults only.
func Load(path string) (*Overrides, error) {
	cfg := &Overrides{}
	if path == "" {
		return cfg, nil
	}
	if err := config.LoadFile(path, cfg); err != nil {
		return nil, serrors.Wrap("loading overrides", err, "file", path)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
