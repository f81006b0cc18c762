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

package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/rule"
)

func field(name string, value uint64) rule.Field {
	return rule.Field{Name: name, Value: openflow.U64(value)}
}

func masked(name string, value, mask uint64) rule.Field {
	return rule.Field{
		Name:    name,
		Value:   openflow.U64(value),
		Mask:    openflow.U64(mask),
		HasMask: true,
	}
}

func TestMatchFields(t *testing.T) {
	m := rule.NewMatch(field("IN_PORT", 1), masked("IPV4_SRC", 0x0a000000, 0xffffff00))
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Has("IN_PORT"))

	f, ok := m.Get("IPV4_SRC")
	require.True(t, ok)
	assert.True(t, f.HasMask)
	assert.Equal(t, openflow.U64(0xffffff00), f.Mask)

	// Overwrite keeps the original position.
	m2 := m.WithField(field("IN_PORT", 7))
	assert.Equal(t, 2, m2.Len())
	assert.Equal(t, "IN_PORT", m2.Fields()[0].Name)
	f, _ = m2.Get("IN_PORT")
	assert.Equal(t, openflow.U64(7), f.Value)
	// The original is untouched.
	f, _ = m.Get("IN_PORT")
	assert.Equal(t, openflow.U64(1), f.Value)

	m3 := m.Without("IN_PORT")
	assert.Equal(t, 1, m3.Len())
	assert.False(t, m3.Has("IN_PORT"))
	assert.Equal(t, 2, m.Len())
}

func TestMatchKeyOrderIndependent(t *testing.T) {
	a := rule.NewMatch(field("IN_PORT", 1), field("VLAN_VID", 0x1005))
	b := rule.NewMatch(field("VLAN_VID", 0x1005), field("IN_PORT", 1))
	assert.Equal(t, a.Key(), b.Key())

	c := rule.NewMatch(field("IN_PORT", 2), field("VLAN_VID", 0x1005))
	assert.NotEqual(t, a.Key(), c.Key())
	assert.NotEqual(t, a.Key(), a.WithField(masked("IN_PORT", 1, 0xff)).Key())
}

func TestMatchFieldBits(t *testing.T) {
	m := rule.NewMatch(field("IN_PORT", 1), field("VLAN_VID", 0x1005))
	inPort, _ := openflow.FieldBit("IN_PORT")
	vlan, _ := openflow.FieldBit("VLAN_VID")
	assert.Equal(t, inPort|vlan, m.FieldBits())

	// Experimental fields contribute no bit.
	m = m.WithField(field("$EXPERIMENTAL", 0))
	assert.Equal(t, inPort|vlan, m.FieldBits())
}

func output(port uint64) rule.Action {
	return rule.Action{Kind: "OUTPUT", Value: openflow.U64(port), HasValue: true}
}

func setField(name string, value uint64) rule.Action {
	return rule.Action{
		Kind:  "SET_FIELD",
		Field: name,
		Value: openflow.U64(value), HasValue: true,
	}
}

func TestActionList(t *testing.T) {
	l := rule.ActionList{output(1), setField("VLAN_VID", 0x1005), output(1)}

	removed := l.WithRemoved(output(1))
	assert.Equal(t, 2, len(removed))
	assert.Equal(t, "SET_FIELD", removed[0].Kind)
	assert.Equal(t, "OUTPUT", removed[1].Kind)
	assert.Equal(t, 3, len(l))

	assert.True(t, l.Contains(setField("VLAN_VID", 0x1005)))
	assert.False(t, l.Contains(setField("VLAN_VID", 0x1006)))
	assert.False(t, l.Contains(rule.Action{Kind: "POP_VLAN"}))

	// Removing an absent action is a no-op.
	assert.Equal(t, l.Key(), l.WithRemoved(output(9)).Key())

	both := rule.ActionList{output(1)}.Concat(rule.ActionList{output(2)})
	assert.Equal(t, 2, len(both))

	// Order contributes to the key.
	a := rule.ActionList{output(1), output(2)}
	b := rule.ActionList{output(2), output(1)}
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestGroupKey(t *testing.T) {
	g := &rule.Group{Type: "ALL", Buckets: []rule.ActionList{{output(1)}, {output(2)}}}
	same := &rule.Group{Type: "ALL", Buckets: []rule.ActionList{{output(1)}, {output(2)}}}
	assert.Equal(t, g.Key(), same.Key())

	indirect := &rule.Group{Type: "INDIRECT", Buckets: []rule.ActionList{{output(1)}, {output(2)}}}
	assert.NotEqual(t, g.Key(), indirect.Key())

	inGroup := rule.Action{Kind: "GROUP", Group: g}
	assert.Contains(t, inGroup.Key(), "ALL")
}

func TestInstructionsCopy(t *testing.T) {
	goto1 := 1
	in := rule.Instructions{
		GotoTable: &goto1,
		Apply:     rule.ActionList{output(1)},
	}
	cp := in.Copy()
	*cp.GotoTable = 2
	cp.Apply[0] = output(9)
	assert.Equal(t, 1, *in.GotoTable)
	assert.Equal(t, output(1), in.Apply[0])
}

func TestInstructionsEmpty(t *testing.T) {
	assert.True(t, rule.Instructions{}.Empty())

	meter := uint32(4)
	assert.True(t, rule.Instructions{Meter: &meter}.Empty())

	goto1 := 1
	assert.False(t, rule.Instructions{GotoTable: &goto1}.Empty())
	assert.False(t, rule.Instructions{ClearActions: true}.Empty())
	assert.False(t, rule.Instructions{Write: rule.ActionList{output(1)}}.Empty())
}

func TestFullActions(t *testing.T) {
	in := rule.Instructions{
		Apply: rule.ActionList{setField("VLAN_VID", 0x1005)},
		Write: rule.ActionList{output(1)},
	}
	full := in.FullActions()
	require.Equal(t, 2, len(full))
	assert.Equal(t, "SET_FIELD", full[0].Kind)
	assert.Equal(t, "OUTPUT", full[1].Kind)
}

func TestRuleKey(t *testing.T) {
	table := 4
	r := rule.Rule{
		Priority: 100,
		Table:    &table,
		Match:    rule.NewMatch(field("IN_PORT", 1)),
	}
	cp := r.Copy()
	assert.Equal(t, r.Key(), cp.Key())

	*cp.Table = 5
	assert.NotEqual(t, r.Key(), cp.Key())
	assert.Equal(t, 4, *r.Table)

	unpinned := r.Copy()
	unpinned.Table = nil
	assert.NotEqual(t, r.Key(), unpinned.Key())
}
