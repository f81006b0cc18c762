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
	"iter"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/rule"
)

// satisfier is one template member in a list: a leaf or a nested list.
// satisfy maps a residual and the builds that reached it to the successor
// residuals. Implementations never mutate their inputs.
type satisfier[R Keyed, B Keyed] interface {
	satisfy(residual R, builds []B) *Remaining[R, B]
}

// satisfyList folds the members over the seed under the list's meta type.
//
//   - all: members run sequentially, each over the previous result.
//     An empty intermediate fails the whole list.
//   - exactly_one, zero_or_one: every member runs against the seed and the
//     results union. zero_or_one additionally keeps the untouched seed.
//   - zero_or_more, one_or_more: members run over a growing pool, so later
//     members see residuals produced by earlier ones. one_or_more drops
//     pool entries no member ever produced.
//
// skip omits individual members from the fold, nil skips none.
func satisfyList[R Keyed, B Keyed, M satisfier[R, B]](
	meta MetaType,
	members []M,
	seed *Remaining[R, B],
	skip func(M) bool,
) *Remaining[R, B] {
	switch meta {
	case MetaAll:
		remaining := seed
		for _, m := range members {
			if skip != nil && skip(m) {
				continue
			}
			tmp := newRemaining[R, B]()
			for residual, builds := range remaining.All() {
				tmp.Update(m.satisfy(residual, builds))
			}
			if tmp.Empty() {
				return tmp
			}
			remaining = tmp
		}
		return remaining
	case MetaZeroOrOne, MetaExactlyOne:
		results := newRemaining[R, B]()
		if meta == MetaZeroOrOne {
			results.Update(seed)
		}
		for _, m := range members {
			if skip != nil && skip(m) {
				continue
			}
			for residual, builds := range seed.All() {
				results.Update(m.satisfy(residual, builds))
			}
		}
		return results
	case MetaZeroOrMore, MetaOneOrMore:
		pool := newRemaining[R, B]()
		pool.Update(seed)
		produced := map[string]bool{}
		for residual := range pool.All() {
			produced[residual.Key()] = false
		}
		for _, m := range members {
			if skip != nil && skip(m) {
				continue
			}
			tmp := newRemaining[R, B]()
			for residual, builds := range pool.All() {
				tmp.Update(m.satisfy(residual, builds))
			}
			for residual := range tmp.All() {
				produced[residual.Key()] = true
			}
			pool.Update(tmp)
		}
		if meta == MetaOneOrMore {
			return pool.Filter(func(r R) bool { return produced[r.Key()] })
		}
		return pool
	}
	return newRemaining[R, B]()
}

// matchBuild is a partially built match with the trail of template leaves
// that bound each consumed field. The fingerprint covers content only,
// builds reaching the same match through different leaves collapse.
type matchBuild struct {
	match   rule.Match
	binding []*Match
}

func (b matchBuild) Key() string { return b.match.Key() }

type matchMember interface {
	satisfier[rule.Match, matchBuild]
	masks() (required, optional uint64)
}

// actionBind is one consumed slot in a built action list: either a plain
// action leaf or a group consumption with its per bucket trails.
type actionBind struct {
	leaf  *Action
	group *groupBind
}

type groupBind struct {
	tmpl    *Group
	buckets []bucketBind
}

type bucketBind struct {
	tmpl    *Bucket
	actions []actionBind
}

// actionBuild is a partially built action list. Inside bucket satisfaction
// it doubles as the bucket under construction, with tmpl linking back to
// the bucket template that shaped it.
type actionBuild struct {
	actions rule.ActionList
	binding []actionBind
	tmpl    *Bucket
}

func (b actionBuild) Key() string { return b.actions.Key() }

type actionMember interface {
	satisfier[rule.ActionList, actionBuild]
}

// bucketTuple is an ordered selection of built buckets, the build shape of
// bucket list satisfaction.
type bucketTuple struct {
	buckets []actionBuild
}

func (t bucketTuple) Key() string {
	keys := make([]string, 0, len(t.buckets))
	for _, b := range t.buckets {
		keys = append(keys, b.actions.Key())
	}
	return strings.Join(keys, "+")
}

func (t bucketTuple) with(b actionBuild) bucketTuple {
	buckets := make([]actionBuild, len(t.buckets), len(t.buckets)+1)
	copy(buckets, t.buckets)
	return bucketTuple{buckets: append(buckets, b)}
}

type bucketMember interface {
	satisfier[rule.ActionList, bucketTuple]
}

// instBuild is a partially built instruction set: the content, the trail
// of goto and clear leaves, and the trails of both action buckets.
type instBuild struct {
	ins       rule.Instructions
	binding   []*Instruction
	applyBind []actionBind
	writeBind []actionBind
}

func (b instBuild) Key() string { return b.ins.Key() }

type instructionMember interface {
	satisfier[rule.Instructions, instBuild]
}

// appendTrail copies a binding trail and appends to it. Trails fan out
// across builds, sharing an append target would cross-link them.
func appendTrail[T any](trail []T, item T) []T {
	out := make([]T, len(trail), len(trail)+1)
	copy(out, trail)
	return append(out, item)
}

// Satisfies returns every way the rule can express this flow template,
// fully consuming the rule's match fields and instructions.
func (f *Flow) Satisfies(r rule.Rule) []*Binding {
	var out []*Binding
	for _, builds := range f.satisfy(r, true).All() {
		for _, b := range builds {
			out = append(out, b)
		}
	}
	return out
}

// Satisfies returns the bindings of the rule against every flow mod type
// of the table, excluding built in flows.
func (t *Table) Satisfies(r rule.Rule) []*Binding {
	var out []*Binding
	for _, f := range t.FlowModTypes {
		out = append(out, f.Satisfies(r)...)
	}
	return out
}

// Satisfies returns the bindings of the rule against every flow mod type
// in the pattern.
func (p *Pattern) Satisfies(r rule.Rule) []*Binding {
	var out []*Binding
	for _, t := range p.Tables() {
		out = append(out, t.Satisfies(r)...)
	}
	return out
}

// All lazily yields (built rule, binding) pairs for the rule against every
// flow mod type, flow by flow. Breaking early skips the remaining flows'
// satisfaction work entirely.
func (p *Pattern) All(r rule.Rule) iter.Seq2[*rule.Rule, *Binding] {
	return func(yield func(*rule.Rule, *Binding) bool) {
		for _, t := range p.Tables() {
			for _, f := range t.FlowModTypes {
				for _, b := range f.Satisfies(r) {
					model := b.Model()
					if !yield(&model, b) {
						return
					}
				}
			}
		}
	}
}

// MatchingFlows returns the flow mod types whose match set can consume
// the match, across the whole pattern.
func (p *Pattern) MatchingFlows(m rule.Match) []*Flow {
	var out []*Flow
	for _, t := range p.Tables() {
		out = append(out, t.MatchingFlows(m)...)
	}
	return out
}

// MatchingFlows returns the table's flow mod types whose match set can
// consume the match.
func (t *Table) MatchingFlows(m rule.Match) []*Flow {
	var out []*Flow
	for _, f := range t.FlowModTypes {
		if f.SatisfiesMatch(m) {
			out = append(out, f)
		}
	}
	return out
}
