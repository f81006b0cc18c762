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

package ttp_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/rule"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
)

func placementPaths(placements []ttp.PathPlacement) [][]int {
	out := make([][]int, 0, len(placements))
	for _, p := range placements {
		out = append(out, p.Path)
	}
	return out
}

func TestPlaceRule(t *testing.T) {
	p := loadBridge(t)
	acl := findTable(t, p, "ACL")

	r := rule.Rule{
		Priority: 100,
		Match: rule.NewMatch(
			field("ETH_TYPE", 0x800),
			field("IP_PROTO", 6),
			field("TCP_DST", 80),
		),
		Instructions: rule.Instructions{
			ClearActions: true,
			Apply:        rule.ActionList{output(3)},
		},
	}

	placements := acl.PlaceRule(r)
	require.Len(t, placements, 2)
	assert.Empty(t, cmp.Diff([][]int{{0, 2}, {0, 1, 2}},
		placementPaths(placements)))

	// The short path rides the protocol bypass. Its carrier binds
	// against the hop as loosely as possible: the bypass could consume
	// IP_PROTO too, but leaving it for the ACL is kept instead.
	short := placements[0]
	require.Len(t, short.Hops, 1)
	require.Len(t, short.Hops[0], 1)
	bypass := short.Hops[0][0]
	assert.False(t, bypass.BuiltIn())
	assert.Equal(t, "Protocol Bypass", bypass.Flow.Name)
	require.Len(t, bypass.Bindings, 1)
	model := bypass.Bindings[0].Model()
	assert.Equal(t, 1, model.Match.Len())
	assert.True(t, model.Match.Has("ETH_TYPE"))
	require.NotNil(t, model.Instructions.GotoTable)
	assert.Equal(t, 2, *model.Instructions.GotoTable)

	// The long path needs no installed rules, both misses pass the
	// packets on.
	long := placements[1]
	require.Len(t, long.Hops, 2)
	require.Len(t, long.Hops[0], 1)
	require.Len(t, long.Hops[1], 1)
	assert.True(t, long.Hops[0][0].BuiltIn())
	assert.Equal(t, "Ingress Miss", long.Hops[0][0].Flow.Name)
	assert.Empty(t, long.Hops[0][0].Bindings)
	assert.True(t, long.Hops[1][0].BuiltIn())
	assert.Equal(t, "Bridging Miss", long.Hops[1][0].Flow.Name)
}

func TestPlaceRuleDropsBlockedPaths(t *testing.T) {
	p := loadBridge(t)
	acl := findTable(t, p, "ACL")

	// Nothing in the ingress table forwards a bare IPv4 source match to
	// the ACL directly, so only the table miss path survives.
	r := rule.Rule{
		Match:        rule.NewMatch(masked("IPV4_SRC", 0x0a000000, 0xff000000)),
		Instructions: rule.Instructions{ClearActions: true},
	}

	placements := acl.PlaceRule(r)
	require.Len(t, placements, 1)
	assert.Empty(t, cmp.Diff([][]int{{0, 1, 2}}, placementPaths(placements)))
	for _, hop := range placements[0].Hops {
		require.Len(t, hop, 1)
		assert.True(t, hop[0].BuiltIn())
	}
}

func TestPlaceRuleEntryTable(t *testing.T) {
	p := loadBridge(t)
	ingress := findTable(t, p, "Ingress")

	// Table 0 is where packets start, the single path has no hops to
	// carry anything across.
	placements := ingress.PlaceRule(rule.Rule{
		Match: rule.NewMatch(field("IN_PORT", 1)),
	})
	require.Len(t, placements, 1)
	assert.Equal(t, []int{0}, placements[0].Path)
	assert.Empty(t, placements[0].Hops)
}

func TestPlaceRules(t *testing.T) {
	p := loadBridge(t)

	override := rule.Rule{
		Priority: 100,
		Match: rule.NewMatch(
			field("ETH_TYPE", 0x800),
			field("IP_PROTO", 6),
			field("TCP_DST", 80),
		),
		Instructions: rule.Instructions{
			ClearActions: true,
			Apply:        rule.ActionList{output(3)},
		},
	}
	unicast := rule.Rule{
		Match: rule.NewMatch(
			field("VLAN_VID", 0x1064),
			field("ETH_DST", 0xf58824a1b6ff),
		),
		Instructions: rule.Instructions{
			Write:     rule.ActionList{action("POP_VLAN"), output(5)},
			GotoTable: intp(2),
		},
	}

	placements := p.PlaceRules([]rule.Rule{override, unicast})
	require.Len(t, placements, 2)

	first := placements[0]
	assert.Equal(t, override, first.Rule)
	assert.Equal(t, "ACL", first.Table.Name)
	require.Len(t, first.Bindings, 1)
	assert.Equal(t, "Output Override", first.Bindings[0].Flow().Name)
	assert.Empty(t, cmp.Diff([][]int{{0, 2}, {0, 1, 2}},
		placementPaths(first.Paths)))

	second := placements[1]
	assert.Equal(t, unicast, second.Rule)
	assert.Equal(t, "Bridging", second.Table.Name)
	require.Len(t, second.Bindings, 1)
	assert.Equal(t, "Known MAC", second.Bindings[0].Flow().Name)
	require.Len(t, second.Paths, 1)
	assert.Equal(t, []int{0, 1}, second.Paths[0].Path)
	require.Len(t, second.Paths[0].Hops, 1)
	require.Len(t, second.Paths[0].Hops[0], 1)
	assert.Equal(t, "Ingress Miss", second.Paths[0].Hops[0][0].Flow.Name)
}

func TestPlaceRulesNoFit(t *testing.T) {
	p := loadBridge(t)

	// An ARP responder rule has no home anywhere in this pipeline.
	placements := p.PlaceRules([]rule.Rule{{
		Match:        rule.NewMatch(field("ARP_OP", 1)),
		Instructions: rule.Instructions{Apply: rule.ActionList{output(1)}},
	}})
	assert.Empty(t, placements)
}
