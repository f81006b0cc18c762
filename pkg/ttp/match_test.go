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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/rule"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
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

// flowMatchSet digs out the match set of a flow mod type in the First
// Table of the match fixture.
func flowMatchSet(t *testing.T, p *ttp.Pattern, flow string) *ttp.MatchSet {
	t.Helper()
	table, ok := p.FindTable("First Table")
	require.True(t, ok)
	f, ok := table.FindFlowMod(flow)
	require.True(t, ok, "no flow mod type %q", flow)
	require.NotNil(t, f.MatchSet)
	return f.MatchSet
}

type matchCase struct {
	Fields []rule.Field
	Want   bool
}

func runMatchCases(t *testing.T, ms *ttp.MatchSet, cases map[string]matchCase) {
	t.Helper()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := ms.Satisfies(rule.NewMatch(tc.Fields...))
			assert.Equal(t, tc.Want, got, "%v against %v", tc.Fields, ms)
		})
	}
}

func TestMatchExact(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	require.False(t, p.Issues().Critical(), "%v", issueStrings(p))

	cases := map[string]matchCase{
		"no fields":      {nil, false},
		"exact":          {[]rule.Field{field("IN_PORT", 1)}, true},
		"exact high":     {[]rule.Field{field("IN_PORT", 63)}, true},
		"wrong field":    {[]rule.Field{field("VLAN_VID", 1)}, false},
		"partial mask":   {[]rule.Field{masked("IN_PORT", 1, 0x3fab)}, false},
		"zero mask":      {[]rule.Field{masked("IN_PORT", 0, 0)}, false},
		"high bits only": {[]rule.Field{masked("IN_PORT", 1, 0xff000000)}, false},
		"full mask":      {[]rule.Field{masked("IN_PORT", 12, 0xffffffff)}, true},
		"overwide mask":  {[]rule.Field{masked("IN_PORT", 12, 0xffffffffff)}, true},
		"extra field": {
			[]rule.Field{field("IN_PORT", 11), field("VLAN_VID", 1)}, false},
	}
	// The default match type is exact, spelling it out changes nothing.
	for _, flow := range []string{"Test Simple Match", "Test Simple Matchv2"} {
		t.Run(flow, func(t *testing.T) {
			runMatchCases(t, flowMatchSet(t, p, flow), cases)
		})
	}
}

func TestMatchAllOrExact(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Simple All or Exact")

	runMatchCases(t, ms, map[string]matchCase{
		"no fields":      {nil, true},
		"zero mask":      {[]rule.Field{masked("IN_PORT", 0, 0)}, true},
		"zero mask high": {[]rule.Field{masked("IN_PORT", 16, 0)}, true},
		"wrong field":    {[]rule.Field{field("VLAN_VID", 1024)}, false},
		"partial mask":   {[]rule.Field{masked("IN_PORT", 1, 0x3fab)}, false},
		"high bits only": {[]rule.Field{masked("IN_PORT", 1, 0xff000000)}, false},
		"exact":          {[]rule.Field{field("IN_PORT", 1)}, true},
		"full mask":      {[]rule.Field{masked("IN_PORT", 12, 0xffffffff)}, true},
		"overwide mask":  {[]rule.Field{masked("IN_PORT", 12, 0xffffffffff)}, true},
		"extra field": {
			[]rule.Field{field("IN_PORT", 11), field("VLAN_VID", 1)}, false},
	})
}

func TestMatchPrefix(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Simple Prefix")

	runMatchCases(t, ms, map[string]matchCase{
		"no fields":       {nil, true},
		"zero mask":       {[]rule.Field{masked("IPV4_SRC", 0, 0)}, true},
		"zero mask high":  {[]rule.Field{masked("IPV4_SRC", 16, 0)}, true},
		"wrong field":     {[]rule.Field{masked("IN_PORT", 1024, 0xfffffff0)}, false},
		"scattered mask":  {[]rule.Field{masked("IPV4_SRC", 1, 0x3fab)}, false},
		"short prefix":    {[]rule.Field{masked("IPV4_SRC", 1, 0xff800000)}, true},
		"half prefix":     {[]rule.Field{masked("IPV4_SRC", 154, 0xffff0000)}, true},
		"hole in prefix":  {[]rule.Field{masked("IPV4_SRC", 154, 0x7fff0000)}, false},
		"overwide prefix": {[]rule.Field{masked("IPV4_SRC", 154, 0xfffff0000)}, true},
		"exact":           {[]rule.Field{field("IPV4_SRC", 1)}, true},
		"full mask":       {[]rule.Field{masked("IPV4_SRC", 12, 0xffffffff)}, true},
		"overwide mask":   {[]rule.Field{masked("IPV4_SRC", 12, 0xffffffffff)}, true},
		"extra field": {
			[]rule.Field{masked("IPV4_SRC", 11, 0xffff0000), field("VLAN_VID", 1)},
			false},
	})
}

func TestMatchMask(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Simple Mask")

	// Arbitrary masks accept everything a prefix does plus scattered bits.
	runMatchCases(t, ms, map[string]matchCase{
		"no fields":       {nil, true},
		"zero mask":       {[]rule.Field{masked("IPV4_SRC", 0, 0)}, true},
		"zero mask high":  {[]rule.Field{masked("IPV4_SRC", 16, 0)}, true},
		"wrong field":     {[]rule.Field{masked("IN_PORT", 1024, 0xfffffff0)}, false},
		"scattered mask":  {[]rule.Field{masked("IPV4_SRC", 1, 0x3fab)}, true},
		"short prefix":    {[]rule.Field{masked("IPV4_SRC", 1, 0xff800000)}, true},
		"half prefix":     {[]rule.Field{masked("IPV4_SRC", 154, 0xffff0000)}, true},
		"hole in prefix":  {[]rule.Field{masked("IPV4_SRC", 154, 0x7fff0000)}, true},
		"overwide prefix": {[]rule.Field{masked("IPV4_SRC", 154, 0xfffff0000)}, true},
		"exact":           {[]rule.Field{field("IPV4_SRC", 1)}, true},
		"full mask":       {[]rule.Field{masked("IPV4_SRC", 12, 0xffffffff)}, true},
		"overwide mask":   {[]rule.Field{masked("IPV4_SRC", 12, 0xffffffffff)}, true},
		"extra field": {
			[]rule.Field{masked("IPV4_SRC", 11, 0xfa0), field("VLAN_VID", 1)},
			false},
	})
}

func TestMatchFixedValue(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Fixed Value")

	// The template pins the value to 16, all_or_exact leaves the field
	// optional.
	runMatchCases(t, ms, map[string]matchCase{
		"no fields":             {nil, true},
		"zero mask":             {[]rule.Field{masked("IPV4_SRC", 16, 0)}, true},
		"zero mask zero value":  {[]rule.Field{masked("IPV4_SRC", 0, 0)}, true},
		"partial mask":          {[]rule.Field{masked("IPV4_SRC", 16, 0x3fab)}, false},
		"wrong field":           {[]rule.Field{field("IN_PORT", 16)}, false},
		"exact":                 {[]rule.Field{field("IPV4_SRC", 16)}, true},
		"exact wrong value":     {[]rule.Field{field("IPV4_SRC", 17)}, false},
		"full mask":             {[]rule.Field{masked("IPV4_SRC", 16, 0xffffffff)}, true},
		"full mask wrong value": {[]rule.Field{masked("IPV4_SRC", 17, 0xffffffff)}, false},
		"extra field": {
			[]rule.Field{field("IPV4_SRC", 16), field("VLAN_VID", 1)}, false},
	})
}

func TestMatchFixedMask(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Fixed Mask")

	// The template pins the mask, so only rules carrying exactly that
	// mask fit and the field can no longer be left out.
	runMatchCases(t, ms, map[string]matchCase{
		"no fields":   {nil, false},
		"pinned mask": {[]rule.Field{masked("IPV4_SRC", 0, 0xfa0)}, true},
		"pinned mask any value": {
			[]rule.Field{masked("IPV4_SRC", 0x12168910, 0xfa0)}, true},
		"wrong field":  {[]rule.Field{masked("IN_PORT", 1024, 0xfa0)}, false},
		"narrow mask":  {[]rule.Field{masked("IPV4_SRC", 1, 0xaa0)}, false},
		"widened mask": {[]rule.Field{masked("IPV4_SRC", 1, 0xfaf)}, false},
		"exact":        {[]rule.Field{field("IPV4_SRC", 1)}, false},
		"full mask":    {[]rule.Field{masked("IPV4_SRC", 1, 0xffffffff)}, false},
		"zero mask":    {[]rule.Field{masked("IPV4_SRC", 1, 0)}, false},
		"extra field": {
			[]rule.Field{masked("IPV4_SRC", 11, 0xfa0), masked("VLAN_VID", 1, 0xfa0)},
			false},
	})
}

func TestMatchConstBitmask(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Const Bitmask")

	// Constant bits must be matched at their declared values, the rule is
	// free beyond them as long as its mask covers them.
	runMatchCases(t, ms, map[string]matchCase{
		"no fields":        {nil, false},
		"const only":       {[]rule.Field{masked("IPV4_SRC", 0x51, 0xf3)}, true},
		"wider mask":       {[]rule.Field{masked("IPV4_SRC", 0x51, 0xfff)}, true},
		"extra value bits": {[]rule.Field{masked("IPV4_SRC", 0xf51, 0xf3)}, true},
		"extra both":       {[]rule.Field{masked("IPV4_SRC", 0xf51, 0xff3)}, true},
		"mask misses const": {
			[]rule.Field{masked("IPV4_SRC", 0x51, 0x0)}, false},
		"const bit cleared": {
			[]rule.Field{masked("IPV4_SRC", 0x50, 0xff)}, false},
		"const bit flipped": {
			[]rule.Field{masked("IPV4_SRC", 0x53, 0xff)}, false},
		"exact":             {[]rule.Field{field("IPV4_SRC", 0xff51)}, true},
		"exact wrong const": {[]rule.Field{field("IPV4_SRC", 0xffff)}, false},
		"full mask":         {[]rule.Field{masked("IPV4_SRC", 0x51, 0xffffffff)}, true},
		"full mask wrong const": {
			[]rule.Field{masked("IPV4_SRC", 0x00, 0xffffffff)}, false},
	})
}

func TestMatchMetaAll(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")

	vlan := field("VLAN_VID", 1)
	inPort := field("IN_PORT", 2)
	ipv4Src := field("IPV4_SRC", 45)

	cases := map[string]matchCase{
		"no fields":     {nil, false},
		"all":           {[]rule.Field{vlan, inPort, ipv4Src}, true},
		"all reordered": {[]rule.Field{ipv4Src, vlan, inPort}, true},
		"vlan only":     {[]rule.Field{vlan}, false},
		"in_port only":  {[]rule.Field{inPort}, false},
		"ipv4 only":     {[]rule.Field{ipv4Src}, false},
		"vlan in_port":  {[]rule.Field{vlan, inPort}, false},
		"vlan ipv4":     {[]rule.Field{vlan, ipv4Src}, false},
		"in_port ipv4":  {[]rule.Field{inPort, ipv4Src}, false},
		"unwanted field": {
			[]rule.Field{ipv4Src, vlan, field("IPV4_DST", 1)}, false},
	}
	// A plain list and an explicit all wrapper must behave identically.
	for _, flow := range []string{"Test Meta All", "Test Meta Allv2"} {
		t.Run(flow, func(t *testing.T) {
			runMatchCases(t, flowMatchSet(t, p, flow), cases)
		})
	}
}

func TestMatchMetaZeroOrMore(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Meta Zero or More")

	vlan := field("VLAN_VID", 1)
	inPort := field("IN_PORT", 2)
	ipv4Src := field("IPV4_SRC", 45)

	runMatchCases(t, ms, map[string]matchCase{
		"no fields":    {nil, true},
		"vlan only":    {[]rule.Field{vlan}, true},
		"in_port only": {[]rule.Field{inPort}, true},
		"ipv4 only":    {[]rule.Field{ipv4Src}, true},
		"vlan in_port": {[]rule.Field{vlan, inPort}, true},
		"vlan ipv4":    {[]rule.Field{vlan, ipv4Src}, true},
		"in_port ipv4": {[]rule.Field{inPort, ipv4Src}, true},
		"all":          {[]rule.Field{vlan, inPort, ipv4Src}, true},
		"unwanted field": {
			[]rule.Field{vlan, inPort, field("IPV4_DST", 1)}, false},
	})
}

func TestMatchMetaOneOrMore(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Meta One or More")

	vlan := field("VLAN_VID", 1)
	inPort := field("IN_PORT", 2)
	ipv4Src := field("IPV4_SRC", 45)

	runMatchCases(t, ms, map[string]matchCase{
		"no fields":    {nil, false},
		"vlan only":    {[]rule.Field{vlan}, true},
		"in_port only": {[]rule.Field{inPort}, true},
		"ipv4 only":    {[]rule.Field{ipv4Src}, true},
		"vlan in_port": {[]rule.Field{vlan, inPort}, true},
		"vlan ipv4":    {[]rule.Field{vlan, ipv4Src}, true},
		"in_port ipv4": {[]rule.Field{inPort, ipv4Src}, true},
		"all":          {[]rule.Field{vlan, inPort, ipv4Src}, true},
		"unwanted field": {
			[]rule.Field{vlan, inPort, field("IPV4_DST", 1)}, false},
	})
}

func TestMatchMetaZeroOrOne(t *testing.T) {
	p := loadPattern(t, "satisfies_match.json")
	ms := flowMatchSet(t, p, "Test Meta Zero or One")

	vlan := field("VLAN_VID", 1)
	inPort := field("IN_PORT", 2)
	ipv4Src := field("IPV4_SRC", 45)

	runMatchCases(t, ms, map[string]matchCase{
		"no fields":    {nil, true},
		"vlan only":    {[]rule.Field{vlan}, true},
		"in_port only": {[]rule.Field{inPort}, true},
		"ipv4 only":    {[]rule.Field{ipv4Src}, true},
		"vlan in_port": {[]rule.Field{vlan, inPort}, false},
		"vlan ipv4":    {[]rule.Field{vlan, ipv4Src}, false},
		"in_port ipv4": {[]rule.Field{inPort, ipv4Src}, false},
		"all":          {[]rule.Field{vlan, inPort, ipv4Src}, false},
	})
}
