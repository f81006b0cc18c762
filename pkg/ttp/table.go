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
	"github.com/wandsdn/ttp-tools/pkg/jsontree"
)

// tableEdge is a resolved GOTO link to a downstream table together with
// the flow mod types declaring it.
type tableEdge struct {
	to    *Table
	flows []*Flow
}

// Table is one flow table of the pipeline. The table number comes from the
// table map, not from the flow_tables entry itself.
type Table struct {
	object

	Number       int
	FlowModTypes []*Flow
	BuiltIns     []*Flow

	// GOTO targets collect by name while flows parse, a flow may name a
	// table that loads after it. The resolved edges fill in once the whole
	// pattern is loaded.
	gotoFlows map[string][]*Flow
	gotoOrder []string

	tos   []*tableEdge
	froms []*Table

	reachable    [][]int
	reachableSet bool
}

func newTable(p *Pattern, n *jsontree.Node, parent *object, number int) *Table {
	t := &Table{object: makeObject(p, n, parent, "table"), Number: number}
	t.loadCommon()

	if flows, ok := t.get("flow_mod_types"); ok {
		for _, fn := range t.flattenMetaFlows(expectList(flows)) {
			t.FlowModTypes = append(t.FlowModTypes, newFlow(p, fn, &t.object, t, false))
		}
	}
	if flows, ok := t.get("built_in_flow_mods"); ok {
		for _, fn := range expectList(flows) {
			t.BuiltIns = append(t.BuiltIns, newFlow(p, fn, &t.object, t, true))
		}
	}
	if flows, ok := t.get("builtin_flow_mods"); ok {
		t.issuef(Warning, "Misspelt builtin_flow_mods should be built_in_flow_mods")
		for _, fn := range expectList(flows) {
			t.BuiltIns = append(t.BuiltIns, newFlow(p, fn, &t.object, t, true))
		}
	}
	return t
}

// flattenMetaFlows strips meta groupings from a flow_mod_types list. Flow
// mod types must be named, the meta markers carry no meaning for offline
// checks beyond grouping.
func (t *Table) flattenMetaFlows(nodes []*jsontree.Node) []*jsontree.Node {
	var flat []*jsontree.Node
	for _, n := range nodes {
		obj, isObj := n.Object()
		if isObj {
			if _, named := obj.Get("name"); named {
				flat = append(flat, n)
				continue
			}
		}
		if !isObj {
			member := makeObject(t.ttp, n, &t.object, "flow_mod")
			member.issuef(Error, "Ignoring flow without name: %s", member.sourceText())
			continue
		}
		for _, key := range obj.Keys() {
			if !isMetaName(key) {
				member := makeObject(t.ttp, n, &t.object, "flow_mod")
				member.issuef(Error, "Ignoring flow without name: %s", member.sourceText())
				break
			}
			value, _ := obj.Get(key)
			flat = append(flat, t.flattenMetaFlows(expectList(value))...)
		}
	}
	return flat
}

// linkToName records a GOTO by target name while flows parse.
func (t *Table) linkToName(name string, flow *Flow) {
	if t.gotoFlows == nil {
		t.gotoFlows = make(map[string][]*Flow)
	}
	if _, ok := t.gotoFlows[name]; !ok {
		t.gotoOrder = append(t.gotoOrder, name)
	}
	t.gotoFlows[name] = append(t.gotoFlows[name], flow)
	t.reachable, t.reachableSet = nil, false
}

// linkTo installs a resolved GOTO edge. Linking the same table again
// replaces the edge's flows in place, two names may resolve to one table.
func (t *Table) linkTo(to *Table, flows []*Flow) {
	t.reachable, t.reachableSet = nil, false
	for _, e := range t.tos {
		if e.to == to {
			e.flows = flows
			return
		}
	}
	t.tos = append(t.tos, &tableEdge{to: to, flows: flows})
}

// linkFrom records an upstream table reaching this one.
func (t *Table) linkFrom(from *Table) {
	t.reachable, t.reachableSet = nil, false
	for _, f := range t.froms {
		if f == from {
			return
		}
	}
	t.froms = append(t.froms, from)
}

// Successors returns the tables GOTO instructions reach from this one, in
// declaration order.
func (t *Table) Successors() []*Table {
	out := make([]*Table, 0, len(t.tos))
	for _, e := range t.tos {
		out = append(out, e.to)
	}
	return out
}

// flowsTo returns the flow mod types declaring a GOTO to the given table,
// or nil when no edge links the two.
func (t *Table) flowsTo(to *Table) []*Flow {
	for _, e := range t.tos {
		if e.to == to {
			return e.flows
		}
	}
	return nil
}

// Reachable returns every pipeline path from table 0 down to this table as
// lists of table numbers. Paths are memoized, the GOTO links dropped at
// load keep the graph acyclic.
func (t *Table) Reachable() [][]int {
	if t.reachableSet {
		return append([][]int(nil), t.reachable...)
	}
	if t.Number == 0 {
		return [][]int{{0}}
	}
	var ret [][]int
	for _, from := range t.froms {
		for _, path := range from.Reachable() {
			p := make([]int, 0, len(path)+1)
			p = append(p, path...)
			ret = append(ret, append(p, t.Number))
		}
	}
	t.reachable, t.reachableSet = ret, true
	return append([][]int(nil), ret...)
}

// FindFlowMod returns the first flow mod type with the given name. Built
// in flows are not searched, they are not installable.
func (t *Table) FindFlowMod(name string) (*Flow, bool) {
	for _, f := range t.FlowModTypes {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
