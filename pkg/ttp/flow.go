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
	"fmt"
	"strconv"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
	"github.com/wandsdn/ttp-tools/pkg/rule"
)

// Flow is a flow mod type template: the kinds of rule a table accepts, or
// with BuiltIn set, a rule the switch installs on its own.
type Flow struct {
	object

	BuiltIn bool
	// Priority constrains the rule priority. A fixed template priority is
	// the collapsed range v..v with priorityRange false, nil leaves the
	// priority open. Built in flows always carry a fixed priority.
	Priority      *Range
	priorityRange bool
	// PriorityRank orders overlapping flow mod types, higher shadows
	// lower.
	PriorityRank *int64

	MatchSet     *MatchSet
	Instructions *InstructionSet

	table *Table
}

func newFlow(p *Pattern, n *jsontree.Node, parent *object, table *Table, builtIn bool) *Flow {
	f := &Flow{
		object:  makeObject(p, n, parent, "flow_mod_type"),
		BuiltIn: builtIn,
		table:   table,
	}
	f.loadCommon()
	f.Name, _ = f.readStringStripped("name", false)

	// The registered minimum priority is 1, but 0 must be allowed for
	// default rules.
	if builtIn {
		if v, ok := f.readInt("priority", false, 0, noMax); ok {
			f.Priority = &Range{Min: v, Max: v}
		}
	} else if rng, isRange, ok := f.readRangeOrInt("priority", true, 0, noMax); ok {
		f.Priority = &rng
		f.priorityRange = isRange
	}
	if v, ok := f.readInt("priority_rank", true, 1, noMax); ok {
		f.PriorityRank = &v
	}

	if mn, ok := f.get("match_set"); ok {
		f.MatchSet = newMatchSet(p, mn, &f.object, MetaAll, builtIn)
	} else {
		f.MatchSet = emptyMatchSet(p, &f.object)
	}
	if in, ok := f.readValue("instruction_set", false); ok {
		f.Instructions = newInstructionSet(p, in, &f.object, MetaAll, f)
	} else {
		f.Instructions = emptyInstructionSet(p, &f.object)
	}
	return f
}

// Table returns the table this flow mod type belongs to.
func (f *Flow) Table() *Table { return f.table }

// SatisfiesMatch reports whether the flow's match set alone can consume
// the match.
func (f *Flow) SatisfiesMatch(m rule.Match) bool {
	return f.MatchSet.Satisfies(m)
}

// SatisfiesInstructions reports whether the flow's instruction set alone
// can consume the instructions.
func (f *Flow) SatisfiesInstructions(ins rule.Instructions) bool {
	return f.Instructions.Satisfies(ins)
}

// satisfy maps the rule to every way this flow mod type can express it.
// Residuals are the rule with the consumed parts removed, builds carry the
// installable rule and its binding trails. With final only fully consumed
// residuals survive.
func (f *Flow) satisfy(r rule.Rule, final bool) *Remaining[rule.Rule, *Binding] {
	res := newRemaining[rule.Rule, *Binding]()

	build := rule.Rule{}
	switch {
	case f.Priority != nil && !f.priorityRange:
		build.Priority = int(f.Priority.Min)
	case f.Priority != nil:
		if !f.Priority.Contains(int64(r.Priority)) {
			return res
		}
		build.Priority = r.Priority
	default:
		build.Priority = r.Priority
	}
	num := f.table.Number
	build.Table = &num

	matches := f.MatchSet.run(r.Match, []matchBuild{{}}, final)
	if matches.Empty() {
		return res
	}
	instructions := f.Instructions.run(r.Instructions, []instBuild{{}}, final)
	if instructions.Empty() {
		return res
	}

	for mk, mvs := range matches.All() {
		for _, mv := range mvs {
			for ik, ivs := range instructions.All() {
				for _, iv := range ivs {
					residual := r.Copy()
					residual.Match = mk
					residual.Instructions = ik
					model := build
					model.Match = mv.match
					model.Instructions = iv.ins
					res.Add(residual, &Binding{
						flow:      f,
						model:     model,
						matchBind: mv.binding,
						instBind:  iv.binding,
						applyBind: iv.applyBind,
						writeBind: iv.writeBind,
					})
				}
			}
		}
	}
	return res
}

// PriorityString renders the priority constraint for display.
func (f *Flow) PriorityString() string {
	if f.Priority == nil {
		return "None"
	}
	if f.priorityRange {
		return f.Priority.String()
	}
	return strconv.FormatInt(f.Priority.Min, 10)
}

func (f *Flow) String() string {
	kind := "Flow("
	if f.BuiltIn {
		kind = "DefaultFlow("
	}
	name := fmt.Sprintf("%-10s", f.Name)[:10]
	return kind + name + " priority=" + f.PriorityString() + " " +
		f.MatchSet.String() + " " + f.Instructions.String() + ")"
}
