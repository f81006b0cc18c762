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

// MetaType selects how many members of a list a rule must use.
type MetaType string

const (
	MetaAll        MetaType = "all"
	MetaOneOrMore  MetaType = "one_or_more"
	MetaZeroOrMore MetaType = "zero_or_more"
	MetaExactlyOne MetaType = "exactly_one"
	MetaZeroOrOne  MetaType = "zero_or_one"
)

var metaMembers = []MetaType{
	MetaAll, MetaOneOrMore, MetaZeroOrMore, MetaExactlyOne, MetaZeroOrOne,
}

func isMetaName(s string) bool {
	for _, m := range metaMembers {
		if string(m) == s {
			return true
		}
	}
	return false
}

// metaWrapper detects the single member object form {"one_or_more": [...]}
// used to change the meta type of a nested list.
func metaWrapper(n *jsontree.Node) (MetaType, *jsontree.Node, bool) {
	obj, ok := n.Object()
	if !ok || obj.Len() != 1 {
		return "", nil, false
	}
	key := obj.Keys()[0]
	if !isMetaName(key) {
		return "", nil, false
	}
	value, _ := obj.Get(key)
	return MetaType(key), value, true
}

// listMembers splits a list node into its members following the list
// conventions patterns use. A single member may stand in for a one element
// list. A list holding exactly one meta wrapper collapses into it when the
// current meta type would require the wrapper anyway, so
// {"all": [{"one_or_more": [...]}]} means one_or_more over the inner
// members. Each member comes back tagged: a bare nested list keeps the
// default meta type "all", a meta wrapper carries its own.
type listMember struct {
	node *jsontree.Node
	// meta is empty for leaves and set for nested lists.
	meta MetaType
}

func listMembers(n *jsontree.Node, meta MetaType) (MetaType, []listMember) {
	items := expectList(n)
	if len(items) == 1 &&
		(meta == MetaAll || meta == MetaExactlyOne || meta == MetaOneOrMore) {
		if inner, value, ok := metaWrapper(items[0]); ok {
			meta = inner
			items = expectList(value)
		}
	}
	members := make([]listMember, 0, len(items))
	for _, item := range items {
		if _, isList := item.Array(); isList {
			members = append(members, listMember{node: item, meta: MetaAll})
			continue
		}
		if inner, value, ok := metaWrapper(item); ok {
			members = append(members, listMember{node: value, meta: inner})
			continue
		}
		members = append(members, listMember{node: item})
	}
	return meta, members
}
