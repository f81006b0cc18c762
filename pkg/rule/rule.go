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

package rule

import (
	"fmt"
	"strings"
)

// Rule is a flow rule. Table is nil when the rule is not pinned to a
// table yet.
type Rule struct {
	Priority     int
	Cookie       uint64
	Table        *int
	Match        Match
	Instructions Instructions
}

// Copy returns a deep copy.
func (r Rule) Copy() Rule {
	out := r
	if r.Table != nil {
		v := *r.Table
		out.Table = &v
	}
	// Match is copy-on-write already.
	out.Instructions = r.Instructions.Copy()
	return out
}

// Key fingerprints the rule content.
func (r Rule) Key() string {
	table := "-"
	if r.Table != nil {
		table = fmt.Sprint(*r.Table)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "p=%d c=%d t=%s m{%s} i{%s}",
		r.Priority, r.Cookie, table, r.Match.Key(), r.Instructions.Key())
	return b.String()
}

// String renders the rule on one line.
func (r Rule) String() string {
	var b strings.Builder
	if r.Table != nil {
		fmt.Fprintf(&b, "table=%d ", *r.Table)
	}
	fmt.Fprintf(&b, "priority=%d", r.Priority)
	if r.Cookie != 0 {
		fmt.Fprintf(&b, " cookie=%#x", r.Cookie)
	}
	if r.Match.Len() > 0 {
		fmt.Fprintf(&b, " match[%s]", r.Match)
	}
	if s := r.Instructions.String(); s != "" {
		b.WriteString(" ")
		b.WriteString(s)
	}
	return b.String()
}
