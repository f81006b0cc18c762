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
	"strconv"
	"strings"
)

// Instructions is the instruction set of a rule. The zero value carries
// no instructions.
type Instructions struct {
	GotoTable    *int
	ClearActions bool
	Apply        ActionList
	Write        ActionList
	Meter        *uint32
}

// Copy returns a deep copy.
func (in Instructions) Copy() Instructions {
	out := in
	if in.GotoTable != nil {
		v := *in.GotoTable
		out.GotoTable = &v
	}
	if in.Meter != nil {
		v := *in.Meter
		out.Meter = &v
	}
	out.Apply = append(ActionList(nil), in.Apply...)
	out.Write = append(ActionList(nil), in.Write...)
	return out
}

// Empty reports whether nothing remains to be consumed. Meters are
// carried through untouched, so they do not count.
func (in Instructions) Empty() bool {
	return in.GotoTable == nil && !in.ClearActions &&
		len(in.Apply) == 0 && len(in.Write) == 0
}

// FullActions returns the apply-actions followed by the write-actions as
// one list.
func (in Instructions) FullActions() ActionList {
	return in.Apply.Concat(in.Write)
}

// String renders the instructions in execution order.
func (in Instructions) String() string {
	var parts []string
	if in.Meter != nil {
		parts = append(parts, "METER: "+strconv.FormatUint(uint64(*in.Meter), 10))
	}
	if len(in.Apply) > 0 {
		parts = append(parts, "APPLY_ACTIONS: "+in.Apply.String())
	}
	if in.ClearActions {
		parts = append(parts, "CLEAR_ACTIONS")
	}
	if len(in.Write) > 0 {
		parts = append(parts, "WRITE_ACTIONS: "+in.Write.String())
	}
	if in.GotoTable != nil {
		parts = append(parts, "GOTO_TABLE: "+strconv.Itoa(*in.GotoTable))
	}
	return strings.Join(parts, ", ")
}

// Key fingerprints the instruction content.
func (in Instructions) Key() string {
	var b strings.Builder
	if in.GotoTable != nil {
		b.WriteString("goto=")
		b.WriteString(strconv.Itoa(*in.GotoTable))
	}
	if in.ClearActions {
		b.WriteString("&clear")
	}
	if len(in.Apply) > 0 {
		b.WriteString("&apply[")
		b.WriteString(in.Apply.Key())
		b.WriteString("]")
	}
	if len(in.Write) > 0 {
		b.WriteString("&write[")
		b.WriteString(in.Write.Key())
		b.WriteString("]")
	}
	if in.Meter != nil {
		b.WriteString("&meter=")
		b.WriteString(strconv.FormatUint(uint64(*in.Meter), 10))
	}
	return b.String()
}
