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

package openflow

import (
	"strconv"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// ParseValue interprets the textual value forms patterns and rules carry.
// In order of precedence: IPv6 literals, IPv4 dotted quads, MAC-48
// addresses, named protocol constants, and decimal or 0x prefixed
// integers.
func ParseValue(s string) (Uint128, error) {
	if v, ok, err := parseIPv6(s); ok || err != nil {
		return v, err
	}
	if v, ok, err := parseIPv4(s); ok || err != nil {
		return v, err
	}
	if v, ok, err := parseMAC(s); ok || err != nil {
		return v, err
	}
	if v, ok := ConstantValue(s); ok {
		return U64(v), nil
	}
	return ParseUint128(s)
}

// parseIPv6 accepts 8 colon separated groups, or 3 to 9 groups when a ::
// gap stands in for the missing ones.
func parseIPv6(s string) (Uint128, bool, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 8 {
		if len(parts) < 3 || len(parts) > 9 || !strings.Contains(s, "::") {
			return Uint128{}, false, nil
		}
		expanded := strings.ReplaceAll(s, "::",
			strings.Repeat(":", 10-len(parts)))
		parts = strings.Split(expanded, ":")
		if len(parts) != 8 {
			return Uint128{}, false,
				serrors.New("invalid IPv6 address", "value", s)
		}
	}
	var v Uint128
	for _, part := range parts {
		group := uint64(0)
		if part != "" {
			parsed, err := strconv.ParseUint(part, 16, 64)
			if err != nil || parsed > 0xffff {
				return Uint128{}, false,
					serrors.New("invalid IPv6 group", "value", s, "group", part)
			}
			group = parsed
		}
		v = v.Shl(16).Or(U64(group))
	}
	return v, true, nil
}

func parseIPv4(s string) (Uint128, bool, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return Uint128{}, false, nil
	}
	var v uint64
	for _, part := range parts {
		octet, err := strconv.ParseUint(part, 10, 64)
		if err != nil || octet > 0xff {
			return Uint128{}, false,
				serrors.New("invalid IPv4 address", "value", s)
		}
		v = v<<8 | octet
	}
	return U64(v), true, nil
}

func parseMAC(s string) (Uint128, bool, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		parts = strings.Split(s, "-")
	}
	if len(parts) != 6 {
		return Uint128{}, false, nil
	}
	v, err := strconv.ParseUint(strings.Join(parts, ""), 16, 64)
	if err != nil {
		return Uint128{}, false, serrors.New("invalid MAC address", "value", s)
	}
	return U64(v), true, nil
}
