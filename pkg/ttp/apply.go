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
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/rule"
)

// Binding is one way a rule satisfied a flow mod type: the installable
// rule it built and the trail of template leaves that bound each consumed
// part. Replaying the trail against a rule of the same shape places it,
// so one satisfaction result can stamp out many concrete rules.
type Binding struct {
	flow  *Flow
	model rule.Rule

	matchBind []*Match
	instBind  []*Instruction
	applyBind []actionBind
	writeBind []actionBind
}

// Flow returns the flow mod type the binding satisfied.
func (b *Binding) Flow() *Flow {
	return b.flow
}

// Model returns a copy of the installable rule the binding built. Its
// priority, cookie and table are the ones Apply stamps onto placed rules.
func (b *Binding) Model() rule.Rule {
	return b.model.Copy()
}

// Key fingerprints the built rule content.
func (b *Binding) Key() string {
	return b.model.Key()
}

// Apply places a rule shaped like the one that produced this binding.
// Every bound leaf replays in binding order, moving the part it bound
// from the rule into a fresh rule that takes the model's priority, cookie
// and table. The rule must decompose the way the original did; if a part
// is missing or no longer fits its leaf an error names it.
func (b *Binding) Apply(r rule.Rule) (rule.Rule, error) {
	var out rule.Rule
	in := r.Copy()
	// A bound CLEAR_ACTIONS leaf expects the flag it consumed, the model
	// remembers whether one was bound.
	in.Instructions.ClearActions = b.model.Instructions.ClearActions

	for _, m := range b.matchBind {
		if err := m.applyField(&in.Match, &out.Match); err != nil {
			return rule.Rule{}, err
		}
	}
	for _, leaf := range b.instBind {
		if err := leaf.applyInstruction(&in.Instructions, &out.Instructions); err != nil {
			return rule.Rule{}, err
		}
	}

	// Rules may run bound actions at either point, so both buckets draw
	// from the apply and write actions combined, apply bucket first.
	merged := in.Instructions.FullActions()
	var discard []actionBind
	err := applyActionList(&merged, &out.Instructions.Apply, &discard,
		b.model.Instructions.Apply, b.applyBind)
	if err != nil {
		return rule.Rule{}, err
	}
	err = applyActionList(&merged, &out.Instructions.Write, &discard,
		b.model.Instructions.Write, b.writeBind)
	if err != nil {
		return rule.Rule{}, err
	}

	if in.Match.Len() != 0 {
		return rule.Rule{}, serrors.New("rule has unbound match fields",
			"fields", in.Match.Key())
	}
	if len(merged) != 0 {
		return rule.Rule{}, serrors.New("rule has unbound actions",
			"actions", merged.Key())
	}

	out.Priority = b.model.Priority
	out.Cookie = b.model.Cookie
	if b.model.Table != nil {
		num := *b.model.Table
		out.Table = &num
	}
	return out, nil
}
