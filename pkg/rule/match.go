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

// Package rule models OpenFlow flow rules: matches, actions, instructions
// and groups. The types are values with copy-on-write modifiers, so
// partially consumed rules can be fanned out without aliasing. Every type
// has a Key that fingerprints its content, used to deduplicate and index
// rule fragments.
package rule

import (
	"sort"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
)

// Field is a single match term. A nil mask, expressed as HasMask false,
// matches the field exactly.
type Field struct {
	Name    string
	Value   openflow.Uint128
	Mask    openflow.Uint128
	HasMask bool
}

// Key fingerprints the field content.
func (f Field) Key() string {
	if !f.HasMask {
		return f.Name + "=" + f.Value.Hex()
	}
	return f.Name + "=" + f.Value.Hex() + "/" + f.Mask.Hex()
}

func (f Field) String() string {
	return f.Key()
}

// Match is an ordered set of match terms keyed by field name. The zero
// value matches every packet.
type Match struct {
	fields []Field
}

// NewMatch builds a match from fields. Later duplicates overwrite
// earlier ones in place.
func NewMatch(fields ...Field) Match {
	var m Match
	for _, f := range fields {
		m = m.WithField(f)
	}
	return m
}

func (m Match) Len() int {
	return len(m.fields)
}

// Get returns the term matching on the named field.
func (m Match) Get(name string) (Field, bool) {
	for _, f := range m.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (m Match) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Fields returns the terms in insertion order. The slice is shared and
// must not be modified.
func (m Match) Fields() []Field {
	return m.fields
}

// WithField returns a copy with the field set, overwriting an existing
// term for the same field at its original position.
func (m Match) WithField(f Field) Match {
	fields := make([]Field, len(m.fields), len(m.fields)+1)
	copy(fields, m.fields)
	for i := range fields {
		if fields[i].Name == f.Name {
			fields[i] = f
			return Match{fields: fields}
		}
	}
	return Match{fields: append(fields, f)}
}

// Without returns a copy with the named term removed.
func (m Match) Without(name string) Match {
	fields := make([]Field, 0, len(m.fields))
	for _, f := range m.fields {
		if f.Name != name {
			fields = append(fields, f)
		}
	}
	return Match{fields: fields}
}

// FieldBits returns the set of matched fields as a bitmask, with one bit
// per OXM field. Non-standard fields contribute no bit.
func (m Match) FieldBits() uint64 {
	var bits uint64
	for _, f := range m.fields {
		if bit, ok := openflow.FieldBit(f.Name); ok {
			bits |= bit
		}
	}
	return bits
}

// Key fingerprints the match content. Term order does not contribute, two
// matches with the same terms in different order are the same match.
func (m Match) Key() string {
	keys := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		keys = append(keys, f.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// String renders the terms in insertion order.
func (m Match) String() string {
	parts := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ", ")
}
