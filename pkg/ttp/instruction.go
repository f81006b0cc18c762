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
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/rule"
)

// Instruction is a single template instruction. GOTO_TABLE carries the
// target table name, APPLY_ACTIONS and WRITE_ACTIONS carry an action list,
// the remaining kinds stand alone.
type Instruction struct {
	object

	Kind string
	// Table names the GOTO_TABLE target. The link checks run once all
	// tables are loaded, satisfaction resolves it lazily.
	Table   string
	Actions *ActionList
}

func newInstruction(p *Pattern, n *jsontree.Node, parent *object, flow *Flow) *Instruction {
	in := &Instruction{object: makeObject(p, n, parent, "instruction")}
	in.loadCommon()
	in.Kind, _ = in.readString("instruction", false)
	switch in.Kind {
	case "GOTO_TABLE":
		if t, ok := in.readString("table", true); ok {
			in.Table = t
			p.linkGoto(in, flow)
		}
	case "APPLY_ACTIONS", "WRITE_ACTIONS":
		if an, ok := in.readValue("actions", false); ok {
			in.Actions = newActionList(p, an, &in.object, MetaAll)
		} else {
			in.Actions = emptyActionList(p, &in.object, "actions")
		}
	}
	return in
}

// satisfy consumes this instruction from the residual. GOTO_TABLE and
// CLEAR_ACTIONS templates always bind, whether or not the rule asked for
// them. APPLY_ACTIONS and WRITE_ACTIONS draw from the rule's apply and
// write buckets combined, a rule may run its actions at either point.
func (in *Instruction) satisfy(residual rule.Instructions, builds []instBuild) *Remaining[rule.Instructions, instBuild] {
	res := newRemaining[rule.Instructions, instBuild]()
	switch in.Kind {
	case "GOTO_TABLE":
		table, ok := in.ttp.FindTable(in.Table)
		if !ok {
			return res
		}
		next := residual.Copy()
		next.GotoTable = nil
		for _, b := range builds {
			if b.ins.GotoTable != nil {
				continue
			}
			nb := b
			nb.ins = b.ins.Copy()
			num := table.Number
			nb.ins.GotoTable = &num
			nb.binding = appendTrail(b.binding, in)
			res.Add(next, nb)
		}
		return res

	case "APPLY_ACTIONS", "WRITE_ACTIONS":
		isApply := in.Kind == "APPLY_ACTIONS"
		merged := residual.FullActions()
		for _, b := range builds {
			seed := actionBuild{actions: b.ins.Write, binding: b.writeBind}
			if isApply {
				seed = actionBuild{actions: b.ins.Apply, binding: b.applyBind}
			}
			inner := in.Actions.satisfy(merged, []actionBuild{seed})
			for k, vs := range inner.All() {
				keep := make(map[string]struct{}, len(k))
				for _, act := range k {
					keep[act.Key()] = struct{}{}
				}
				next := residual.Copy()
				next.Apply = filterActions(residual.Apply, keep)
				next.Write = filterActions(residual.Write, keep)
				for _, v := range vs {
					nb := b
					nb.ins = b.ins.Copy()
					if isApply {
						nb.ins.Apply = v.actions
						nb.applyBind = v.binding
					} else {
						nb.ins.Write = v.actions
						nb.writeBind = v.binding
					}
					res.Add(next, nb)
				}
			}
		}
		return res

	case "METER":
		// Meters pass through untouched.
		res.AddAll(residual, builds)
		return res

	case "CLEAR_ACTIONS":
		next := residual.Copy()
		next.ClearActions = false
		for _, b := range builds {
			if b.ins.ClearActions {
				continue
			}
			nb := b
			nb.ins = b.ins.Copy()
			nb.ins.ClearActions = true
			nb.binding = appendTrail(b.binding, in)
			res.Add(next, nb)
		}
		return res
	}
	return res
}

// filterActions keeps the actions whose content appears in the remainder.
// Membership is by content, a consumed duplicate keeps its twin alive.
func filterActions(list rule.ActionList, keep map[string]struct{}) rule.ActionList {
	out := make(rule.ActionList, 0, len(list))
	for _, act := range list {
		if _, ok := keep[act.Key()]; ok {
			out = append(out, act)
		}
	}
	return out
}

// applyInstruction replays a bound GOTO_TABLE or CLEAR_ACTIONS leaf from
// in to out. Action lists replay through their own trails.
func (in *Instruction) applyInstruction(rin *rule.Instructions, out *rule.Instructions) error {
	switch in.Kind {
	case "GOTO_TABLE":
		if out.GotoTable != nil {
			return serrors.New("rule binds GOTO_TABLE twice")
		}
		table, ok := in.ttp.FindTable(in.Table)
		if !ok {
			return serrors.New("cannot find GOTO_TABLE target", "table", in.Table)
		}
		rin.GotoTable = nil
		num := table.Number
		out.GotoTable = &num
		return nil
	case "CLEAR_ACTIONS":
		if !rin.ClearActions {
			return serrors.New("rule is missing a bound CLEAR_ACTIONS")
		}
		rin.ClearActions = false
		out.ClearActions = true
		return nil
	}
	return serrors.New("instruction cannot be replayed", "instruction", in.Kind)
}

func (in *Instruction) String() string {
	switch in.Kind {
	case "GOTO_TABLE":
		return "GOTO_TABLE: " + in.Table
	case "APPLY_ACTIONS", "WRITE_ACTIONS":
		return in.Kind + ": " + in.Actions.String()
	}
	return in.Kind
}

// InstructionSet is a list of template instructions and nested sets under
// a meta type.
type InstructionSet struct {
	object
	Meta    MetaType
	members []instructionMember
}

func newInstructionSet(p *Pattern, n *jsontree.Node, parent *object, meta MetaType, flow *Flow) *InstructionSet {
	s := &InstructionSet{object: makeObject(p, n, parent, "instruction_set")}
	s.loadCommon()
	var members []listMember
	s.Meta, members = listMembers(n, meta)
	for _, mem := range members {
		if mem.meta != "" {
			s.members = append(s.members,
				newInstructionSet(p, mem.node, &s.object, mem.meta, flow))
		} else {
			s.members = append(s.members,
				newInstruction(p, mem.node, &s.object, flow))
		}
	}
	return s
}

func emptyInstructionSet(p *Pattern, parent *object) *InstructionSet {
	return &InstructionSet{
		object: makeObject(p, nil, parent, "instruction_set"),
		Meta:   MetaAll,
	}
}

// Leaves returns the set's instructions with nested sets flattened out.
func (s *InstructionSet) Leaves() []*Instruction {
	var out []*Instruction
	for _, m := range s.members {
		switch v := m.(type) {
		case *Instruction:
			out = append(out, v)
		case *InstructionSet:
			out = append(out, v.Leaves()...)
		}
	}
	return out
}

func (s *InstructionSet) satisfy(residual rule.Instructions, builds []instBuild) *Remaining[rule.Instructions, instBuild] {
	return satisfyList(s.Meta, s.members, seedRemaining(residual, builds...), nil)
}

// run adds the final filter: only residuals with every instruction
// consumed.
func (s *InstructionSet) run(residual rule.Instructions, builds []instBuild, final bool) *Remaining[rule.Instructions, instBuild] {
	out := s.satisfy(residual, builds)
	if final {
		out = out.Filter(func(r rule.Instructions) bool { return r.Empty() })
	}
	return out
}

// Satisfies reports whether the set can consume the instructions on their
// own.
func (s *InstructionSet) Satisfies(ins rule.Instructions) bool {
	return s.run(ins, []instBuild{{}}, true).Len() > 0
}

func (s *InstructionSet) String() string {
	parts := make([]string, 0, len(s.members))
	for _, m := range s.members {
		switch v := m.(type) {
		case *Instruction:
			parts = append(parts, v.String())
		case *InstructionSet:
			parts = append(parts, v.String())
		}
	}
	joined := strings.Join(parts, "\n")
	if s.Meta != MetaAll {
		return string(s.Meta) + "(" + joined + ")"
	}
	return joined
}
