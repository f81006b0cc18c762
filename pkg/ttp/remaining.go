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
)

// Keyed values carry a canonical fingerprint of their content. Two values
// with equal keys are interchangeable to the engine.
type Keyed interface {
	Key() string
}

// Remaining maps each residual, the part of a rule not yet consumed by
// template members, to the set of partial builds that reached it. The
// engine folds template members over it: every member maps each residual
// to zero or more successors and the results merge by set union.
//
// Iteration order is insertion order, and within a residual the builds
// keep the order they were first added in, so fold results are
// deterministic. Builds deduplicate on their key, first in wins.
type Remaining[R Keyed, B Keyed] struct {
	order   []string
	entries map[string]*remainingEntry[R, B]
}

type remainingEntry[R Keyed, B Keyed] struct {
	residual R
	builds   []B
	seen     map[string]struct{}
}

func newRemaining[R Keyed, B Keyed]() *Remaining[R, B] {
	return &Remaining[R, B]{entries: map[string]*remainingEntry[R, B]{}}
}

// seedRemaining starts a fold: one residual with its initial builds.
func seedRemaining[R Keyed, B Keyed](residual R, builds ...B) *Remaining[R, B] {
	r := newRemaining[R, B]()
	for _, b := range builds {
		r.Add(residual, b)
	}
	if len(builds) == 0 {
		r.entry(residual)
	}
	return r
}

func (r *Remaining[R, B]) entry(residual R) *remainingEntry[R, B] {
	key := residual.Key()
	e, ok := r.entries[key]
	if !ok {
		e = &remainingEntry[R, B]{
			residual: residual,
			seen:     map[string]struct{}{},
		}
		r.entries[key] = e
		r.order = append(r.order, key)
	}
	return e
}

// Add records one build reaching the residual.
func (r *Remaining[R, B]) Add(residual R, build B) {
	e := r.entry(residual)
	key := build.Key()
	if _, dup := e.seen[key]; dup {
		return
	}
	e.seen[key] = struct{}{}
	e.builds = append(e.builds, build)
}

// AddAll records several builds reaching the residual.
func (r *Remaining[R, B]) AddAll(residual R, builds []B) {
	e := r.entry(residual)
	for _, b := range builds {
		key := b.Key()
		if _, dup := e.seen[key]; dup {
			continue
		}
		e.seen[key] = struct{}{}
		e.builds = append(e.builds, b)
	}
}

// Update merges the other map into this one.
func (r *Remaining[R, B]) Update(o *Remaining[R, B]) {
	if o == nil {
		return
	}
	for _, key := range o.order {
		e := o.entries[key]
		r.AddAll(e.residual, e.builds)
	}
}

// Len returns the number of distinct residuals.
func (r *Remaining[R, B]) Len() int {
	return len(r.order)
}

func (r *Remaining[R, B]) Empty() bool {
	return len(r.order) == 0
}

// All iterates (residual, builds) pairs in insertion order. The builds
// slice is shared and must not be modified.
func (r *Remaining[R, B]) All() iter.Seq2[R, []B] {
	return func(yield func(R, []B) bool) {
		for _, key := range r.order {
			e := r.entries[key]
			if !yield(e.residual, e.builds) {
				return
			}
		}
	}
}

// Filter returns a new map holding only residuals the predicate keeps.
func (r *Remaining[R, B]) Filter(keep func(R) bool) *Remaining[R, B] {
	out := newRemaining[R, B]()
	for _, key := range r.order {
		e := r.entries[key]
		if keep(e.residual) {
			out.AddAll(e.residual, e.builds)
		}
	}
	return out
}
