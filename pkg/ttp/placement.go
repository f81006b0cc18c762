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
	"sort"

	"github.com/wandsdn/ttp-tools/pkg/rule"
)

// Carrier is one way to move a rule's packets across a pipeline hop: a
// rule the switch installs on its own, or a rule built from a flow mod
// type. A built in carrier has no bindings, there is nothing to install.
type Carrier struct {
	Flow     *Flow
	Bindings []*Binding
}

// BuiltIn reports whether the hop crosses without installing a rule.
func (c Carrier) BuiltIn() bool {
	return c.Flow != nil && c.Flow.BuiltIn
}

// PathPlacement is a pipeline path every hop of which can carry the rule's
// packets. Hops[i] holds the carrier options across the Path[i] to
// Path[i+1] edge, so a single table path has no hops.
type PathPlacement struct {
	Path []int
	Hops [][]Carrier
}

// RulePlacement is one place a rule fits: the table, every way the table's
// flow mod types express the rule, and the pipeline paths that deliver
// packets to it. No paths means the rule fits a table packets never reach.
type RulePlacement struct {
	Rule     rule.Rule
	Table    *Table
	Bindings []*Binding
	Paths    []PathPlacement
}

type pathEdge struct {
	from, to int
}

func splitEdges(path []int) []pathEdge {
	var edges []pathEdge
	for i := 0; i+1 < len(path); i++ {
		edges = append(edges, pathEdge{from: path[i], to: path[i+1]})
	}
	return edges
}

// PlaceRule returns the pipeline paths from table 0 to this table that the
// rule's packets can traverse, with the carrier options per hop. Hops run
// in non final mode, a carrier forwards the packets while later tables may
// consume further fields. Paths with a hop nothing carries are dropped.
func (t *Table) PlaceRule(r rule.Rule) []PathPlacement {
	fit := r.Copy()
	// Packets enter the pipeline without tunnel metadata, an absent
	// TUNNEL_ID is an implied zero.
	if !fit.Match.Has("TUNNEL_ID") {
		fit.Match = fit.Match.WithField(rule.Field{Name: "TUNNEL_ID"})
	}

	paths := t.Reachable()
	if len(paths) > 5 {
		t.ttp.log.Debug("Attempting to place rule",
			"table", t.Name, "paths", len(paths))
	} else {
		t.ttp.log.Debug("Attempting to place rule",
			"table", t.Name, "paths", paths)
	}

	// Paths share hops, each distinct edge is evaluated once.
	carriers := map[pathEdge][]Carrier{}
	seen := map[pathEdge]bool{}
	for _, path := range paths {
		for _, e := range splitEdges(path) {
			if seen[e] {
				continue
			}
			seen[e] = true
			from, okFrom := t.ttp.TableByNumber(e.from)
			to, okTo := t.ttp.TableByNumber(e.to)
			if !okFrom || !okTo {
				continue
			}
			if opts := from.carriersTo(to, fit); len(opts) > 0 {
				carriers[e] = opts
			}
		}
	}

	var out []PathPlacement
	for _, path := range paths {
		edges := splitEdges(path)
		hops := make([][]Carrier, 0, len(edges))
		viable := true
		for _, e := range edges {
			opts, ok := carriers[e]
			if !ok {
				viable = false
				break
			}
			hops = append(hops, opts)
		}
		if viable {
			out = append(out, PathPlacement{Path: path, Hops: hops})
		}
	}
	return out
}

// carriersTo evaluates one hop: every flow with a GOTO onto the next table
// checked against the rule. Built in flows that pass the packets on are
// kept as they stand. A declared flow collapses to its most permissive
// satisfaction, the one consuming the least of the match, leaving
// overlapping fields for later tables.
func (t *Table) carriersTo(to *Table, fit rule.Rule) []Carrier {
	var out []Carrier
	for _, f := range t.flowsTo(to) {
		res := f.satisfy(fit, false)
		if res.Empty() {
			continue
		}
		if f.BuiltIn {
			out = append(out, Carrier{Flow: f})
			continue
		}
		best := -1
		var picked []*Binding
		for residual, builds := range res.All() {
			if n := residual.Match.Len(); n > best {
				best = n
				picked = builds
			}
		}
		out = append(out, Carrier{Flow: f, Bindings: picked})
	}
	return out
}

// PlaceRules fits each rule against every table: for each table whose flow
// mod types fully express the rule, the bindings plus the viable paths
// into the table.
func (p *Pattern) PlaceRules(rules []rule.Rule) []RulePlacement {
	var out []RulePlacement
	for _, r := range rules {
		for _, t := range p.Tables() {
			bindings := t.Satisfies(r)
			if len(bindings) == 0 {
				continue
			}
			out = append(out, RulePlacement{
				Rule:     r,
				Table:    t,
				Bindings: bindings,
				Paths:    t.PlaceRule(r),
			})
		}
	}
	return out
}

// Paths returns every reachable pipeline path, grouped by destination
// table and ordered by content within each group.
func (p *Pattern) Paths() [][]int {
	var out [][]int
	for _, t := range p.Tables() {
		paths := t.Reachable()
		sort.Slice(paths, func(i, j int) bool {
			return lessPath(paths[i], paths[j])
		})
		out = append(out, paths...)
	}
	return out
}

func lessPath(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
