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

package ttp

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// defaultOverrides maps the value spellings published patterns are known
// to carry that do not follow any syntax.
var defaultOverrides = map[string]openflow.Uint128{
	"L3 PHP":          openflow.U64(32),
	"<Router_IP>":     openflow.U64(0x7f000001),
	"<Router_MAC_DA>": openflow.U64(0xf00000000001),
}

// DefaultOverrides returns a copy of the built in value override table.
// Callers may extend the copy and pass it back through Options.Overrides.
func DefaultOverrides() map[string]openflow.Uint128 {
	out := make(map[string]openflow.Uint128, len(defaultOverrides))
	for k, v := range defaultOverrides {
		out[k] = v
	}
	return out
}

// NormalizeValue canonicalizes the heterogeneous value forms a pattern or
// rule may carry into a single unsigned 128 bit integer.
//
// Overrides are consulted first. Angle bracket variable references are not
// an error but have no single value, reported as ok false. Strings are then
// tried as IPv6, IPv4 dotted quad, MAC-48, a named protocol constant, and
// finally a base prefixed integer. Integer types pass through; anything
// else is an error carrying the offending value.
func NormalizeValue(v any, overrides map[string]openflow.Uint128) (val openflow.Uint128, ok bool, err error) {
	if s, isStr := v.(string); isStr {
		if o, found := overrides[s]; found {
			return o, true, nil
		}
		if strings.HasPrefix(s, "<") {
			return openflow.Uint128{}, false, nil
		}
		val, err := openflow.ParseValue(s)
		if err != nil {
			return openflow.Uint128{}, false, err
		}
		return val, true, nil
	}
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return openflow.Uint128{}, false,
				serrors.Wrap("interpreting number", err, "value", n.String())
		}
		return openflow.U64(i), true, nil
	case int:
		return fromSigned(int64(n))
	case int8:
		return fromSigned(int64(n))
	case int16:
		return fromSigned(int64(n))
	case int32:
		return fromSigned(int64(n))
	case int64:
		return fromSigned(n)
	case uint:
		return openflow.U64(uint64(n)), true, nil
	case uint8:
		return openflow.U64(uint64(n)), true, nil
	case uint16:
		return openflow.U64(uint64(n)), true, nil
	case uint32:
		return openflow.U64(uint64(n)), true, nil
	case uint64:
		return openflow.U64(n), true, nil
	case openflow.Uint128:
		return n, true, nil
	}
	return openflow.Uint128{}, false,
		serrors.New("value cannot be interpreted as an integer", "value", v)
}

func fromSigned(v int64) (openflow.Uint128, bool, error) {
	if v < 0 {
		return openflow.Uint128{}, false,
			serrors.New("negative value", "value", v)
	}
	return openflow.U64(uint64(v)), true, nil
}

// normalizeNode resolves a decoded value in pattern context. Known
// variable references are noted with their declared range, unknown ones
// are reported; both have no single value.
func (p *Pattern) normalizeNode(o *object, n *jsontree.Node) (openflow.Uint128, bool, error) {
	if s, isStr := n.Str(); isStr {
		return p.normalizeString(o, s)
	}
	return NormalizeValue(n.Value, p.overrides)
}

// normalizeString is normalizeNode for values already extracted, such as
// strings stripped of whitespace before interpretation.
func (p *Pattern) normalizeString(o *object, s string) (openflow.Uint128, bool, error) {
	if _, found := p.overrides[s]; !found && strings.HasPrefix(s, "<") {
		if v := p.lookupVariable(s); v != nil {
			o.issuef(Note, "Value uses variable %s with range:%s",
				s, v.rangeString())
		} else {
			o.issuef(Warning, "Unspecified variable %s used, this"+
				" should be in the variable table", s)
		}
		return openflow.Uint128{}, false, nil
	}
	return NormalizeValue(s, p.overrides)
}
