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
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/rule"
)

// Bucket is a group bucket template wrapping an action set.
type Bucket struct {
	object
	Actions *ActionList
}

func newBucket(p *Pattern, n *jsontree.Node, parent *object) *Bucket {
	b := &Bucket{object: makeObject(p, n, parent, "bucket")}
	b.loadCommon()
	b.Name, _ = b.readString("name", false)
	if an, ok := b.get("action_set"); ok {
		b.Actions = newActionList(p, an, &b.object, MetaAll)
	} else if an, ok := b.get("action_list"); ok {
		b.issuef(Warning, "Incorrect usage of action_list instead of"+
			" action_set")
		b.Actions = newActionList(p, an, &b.object, MetaAll)
	} else {
		b.issuef(Critical, "Could not find an action_set within this"+
			" bucket")
		b.Actions = emptyActionList(p, &b.object, "action_set")
	}
	return b
}

// satisfy builds this bucket from the residual actions and appends it to
// every incoming tuple.
func (b *Bucket) satisfy(residual rule.ActionList, builds []bucketTuple) *Remaining[rule.ActionList, bucketTuple] {
	res := newRemaining[rule.ActionList, bucketTuple]()
	inner := b.Actions.satisfy(residual, []actionBuild{{tmpl: b}})
	for k, vs := range inner.All() {
		for _, t := range builds {
			for _, v := range vs {
				res.Add(k, t.with(v))
			}
		}
	}
	return res
}

func (b *Bucket) String() string {
	return b.Name + b.Actions.String()
}

// BucketList is a list of bucket templates and nested lists under a meta
// type.
type BucketList struct {
	object
	Meta    MetaType
	members []bucketMember
}

func newBucketList(p *Pattern, n *jsontree.Node, parent *object, meta MetaType) *BucketList {
	l := &BucketList{object: makeObject(p, n, parent, "bucket_types")}
	l.loadCommon()
	var members []listMember
	l.Meta, members = listMembers(n, meta)
	for _, mem := range members {
		if mem.meta != "" {
			l.members = append(l.members,
				newBucketList(p, mem.node, &l.object, mem.meta))
		} else {
			l.members = append(l.members, newBucket(p, mem.node, &l.object))
		}
	}
	return l
}

func (l *BucketList) satisfy(residual rule.ActionList, builds []bucketTuple) *Remaining[rule.ActionList, bucketTuple] {
	return satisfyList(l.Meta, l.members, seedRemaining(residual, builds...), nil)
}

// Buckets returns the list's buckets with nested lists flattened out.
func (l *BucketList) Buckets() []*Bucket {
	var out []*Bucket
	for _, m := range l.members {
		switch v := m.(type) {
		case *Bucket:
			out = append(out, v)
		case *BucketList:
			out = append(out, v.Buckets()...)
		}
	}
	return out
}

// Group is a group table entry template. INDIRECT groups hold exactly one
// of their bucket types, ALL groups clone buckets per output.
type Group struct {
	object
	Type        string
	BucketTypes *BucketList
}

func newGroup(p *Pattern, n *jsontree.Node, parent *object) *Group {
	g := &Group{object: makeObject(p, n, parent, "group_entry_type")}
	g.loadCommon()
	g.Name, _ = g.readString("name", false)
	g.Type, _ = g.readString("group_type", false)
	meta := MetaAll
	if g.Type == "INDIRECT" {
		meta = MetaExactlyOne
	}
	if bn, ok := g.readValue("bucket_types", false); ok {
		g.BucketTypes = newBucketList(p, bn, &g.object, meta)
	} else {
		g.BucketTypes = &BucketList{
			object: makeObject(p, nil, &g.object, "bucket_types"),
			Meta:   meta,
		}
	}
	return g
}

// splitOutputActions splits an action list into its OUTPUT actions and,
// per output, the list with the other outputs and everything after this
// output removed. Each combination holds the modifications one cloned
// bucket would apply.
func splitOutputActions(actions rule.ActionList) (outputs rule.ActionList, combinations []rule.ActionList) {
	for _, a := range actions {
		if a.Kind == "OUTPUT" {
			outputs = append(outputs, a)
		}
	}
	for _, output := range outputs {
		comb := actions
		for _, other := range outputs {
			if other.Key() != output.Key() {
				comb = comb.WithRemoved(other)
			}
		}
		for len(comb) > 0 && comb[len(comb)-1].Kind != "OUTPUT" {
			comb = comb.WithRemoved(comb[len(comb)-1])
		}
		combinations = append(combinations, comb)
	}
	return outputs, combinations
}

// satisfyGroup consumes actions from the residual into a group bound to
// this template, extending the incoming build with a GROUP action.
func (g *Group) satisfyGroup(residual rule.ActionList, build actionBuild) *Remaining[rule.ActionList, actionBuild] {
	res := newRemaining[rule.ActionList, actionBuild]()
	switch g.Type {
	case "INDIRECT":
		inner := g.BucketTypes.satisfy(residual, []bucketTuple{{}})
		for unplaced, places := range inner.All() {
			for _, t := range places {
				if len(t.buckets) != 1 {
					continue
				}
				res.Add(unplaced, g.groupBuild(build, t.buckets))
			}
		}
		return res

	case "ALL":
		outputs, combinations := splitOutputActions(residual)
		outputKeys := make(map[string]struct{}, len(outputs))
		for _, o := range outputs {
			outputKeys[o.Key()] = struct{}{}
		}

		// Candidate buckets per residual, across every bucket type.
		type candidate struct {
			comb   rule.ActionList
			bucket actionBuild
		}
		var order []string
		entries := map[string]struct {
			residual rule.ActionList
			items    []candidate
		}{}
		for _, bucket := range g.BucketTypes.members {
			for _, comb := range combinations {
				r := bucket.satisfy(comb, []bucketTuple{{}})
				for k, places := range r.All() {
					for _, t := range places {
						if len(t.buckets) == 0 {
							continue
						}
						key := k.Key()
						e, ok := entries[key]
						if !ok {
							order = append(order, key)
							e.residual = k
						}
						e.items = append(e.items, candidate{
							comb:   comb,
							bucket: t.buckets[0],
						})
						entries[key] = e
					}
				}
			}
		}

		// Greedily take the residual with the most candidate buckets. It
		// covers the whole group only if its candidates span every output.
		l := len(outputs)
		for l >= len(outputs) && len(entries) > 0 {
			bestKey := ""
			best := -1
			for _, k := range order {
				e, ok := entries[k]
				if ok && len(e.items) > best {
					best = len(e.items)
					bestKey = k
				}
			}
			e := entries[bestKey]
			l = len(e.items)
			achieved := make(map[string]struct{}, len(e.items))
			for _, it := range e.items {
				for _, a := range it.comb {
					if a.Kind == "OUTPUT" {
						achieved[a.Key()] = struct{}{}
						break
					}
				}
			}
			if len(achieved) == len(outputKeys) {
				covered := true
				for k := range outputKeys {
					if _, ok := achieved[k]; !ok {
						covered = false
						break
					}
				}
				if covered {
					buckets := make([]actionBuild, 0, len(e.items))
					for _, it := range e.items {
						buckets = append(buckets, it.bucket)
					}
					res.Add(e.residual, g.groupBuild(build, buckets))
				}
			}
			delete(entries, bestKey)
		}
		return res
	}
	// FF and SELECT groups cannot be synthesized from a single rule.
	return res
}

// groupBuild extends a build with a GROUP action holding the given
// buckets, binding the group template and the per bucket trails.
func (g *Group) groupBuild(build actionBuild, buckets []actionBuild) actionBuild {
	content := &rule.Group{Type: g.Type}
	binds := make([]bucketBind, 0, len(buckets))
	for _, b := range buckets {
		content.Buckets = append(content.Buckets, b.actions)
		binds = append(binds, bucketBind{tmpl: b.tmpl, actions: b.binding})
	}
	return actionBuild{
		actions: build.actions.WithAppended(rule.Action{Kind: "GROUP", Group: content}),
		binding: appendTrail(build.binding, actionBind{group: &groupBind{
			tmpl:    g,
			buckets: binds,
		}}),
		tmpl: build.tmpl,
	}
}

// applyGroup replays a bound group: the bucket actions move from in into
// fresh buckets and the GROUP action is appended to out.
func (gb *groupBind) applyGroup(in *rule.ActionList, out *rule.ActionList, outBind *[]actionBind, model rule.Action) error {
	if model.Kind != "GROUP" || model.Group == nil {
		return serrors.New("bound action is not a GROUP",
			"group", gb.tmpl.Name)
	}
	switch gb.tmpl.Type {
	case "INDIRECT":
		if len(model.Group.Buckets) != 1 || len(gb.buckets) != 1 {
			return serrors.New("INDIRECT group must bind exactly one bucket",
				"group", gb.tmpl.Name)
		}
		var bucket rule.ActionList
		var bucketBinds []actionBind
		err := applyActionList(in, &bucket, &bucketBinds,
			model.Group.Buckets[0], gb.buckets[0].actions)
		if err != nil {
			return err
		}
		content := &rule.Group{Type: "INDIRECT",
			Buckets: []rule.ActionList{bucket}}
		*out = out.WithAppended(rule.Action{Kind: "GROUP", Group: content})
		*outBind = append(*outBind, actionBind{group: gb})
		return nil

	case "ALL":
		// Rerun satisfaction over what is left, it must resolve uniquely.
		res := gb.tmpl.satisfyGroup(*in, actionBuild{actions: *out, binding: *outBind})
		if res.Len() != 1 {
			return serrors.New("ALL group does not resolve uniquely",
				"group", gb.tmpl.Name, "options", res.Len())
		}
		for residual, builds := range res.All() {
			if len(builds) != 1 {
				return serrors.New("ALL group does not resolve uniquely",
					"group", gb.tmpl.Name, "options", len(builds))
			}
			*in = residual
			*out = builds[0].actions
			*outBind = builds[0].binding
		}
		return nil
	}
	return serrors.New("group type cannot be replayed",
		"group", gb.tmpl.Name, "type", gb.tmpl.Type)
}

func (g *Group) String() string {
	parts := make([]string, 0, len(g.BucketTypes.members))
	for _, b := range g.BucketTypes.Buckets() {
		parts = append(parts, b.String())
	}
	s := "Group:" + g.Name + " - Type:" + g.Type + "\nBuckets:"
	for i, p := range parts {
		if i > 0 {
			s += ","
		}
		s += p
	}
	return s
}
