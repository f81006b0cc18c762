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
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/rule"
)

// The match disciplines a template field may declare.
var matchTypes = []string{"exact", "mask", "prefix", "all_or_exact"}

// Match is a single template match field. Value, Mask, ConstValue and
// ConstMask are nil when not declared, or when declared through a variable
// reference that has no single value.
type Match struct {
	object

	FieldName  string
	MatchType  string
	Value      *openflow.Uint128
	Mask       *openflow.Uint128
	ConstValue *openflow.Uint128
	ConstMask  *openflow.Uint128
	BuiltIn    bool

	// widthBits is the field's payload width, -1 when the field is not a
	// known basic class field. An unknown width never truncates.
	widthBits int

	required uint64
	optional uint64
}

func newMatch(p *Pattern, n *jsontree.Node, parent *object, builtIn bool) *Match {
	m := &Match{
		object:    makeObject(p, n, parent, "match"),
		BuiltIn:   builtIn,
		widthBits: -1,
	}
	m.loadCommon()
	m.FieldName, _ = m.readStringStripped("field", false)
	if bits, ok := openflow.FieldBits(m.FieldName); ok {
		m.widthBits = bits
	}

	m.MatchType = matchTypes[0]
	if mt, ok := m.readStringStripped("match_type", true); ok {
		m.MatchType = mt
	}
	if !validMatchType(m.MatchType) {
		m.issuef(Warning, "Invalid match type '%s', using default '%s'",
			m.MatchType, matchTypes[0])
		m.MatchType = matchTypes[0]
	}

	m.loadConsts()
	m.loadValue()
	m.loadMask()
	m.makeMasks()

	if m.Mask == nil && m.Value != nil &&
		(m.MatchType == "mask" || m.MatchType == "prefix") {
		m.issuef(Warning, "Match has a fixed value, but no mask and can"+
			" be left out: %s", m.String())
	}

	if builtIn {
		m.checkBuiltInValue()
	}
	return m
}

func validMatchType(mt string) bool {
	for _, t := range matchTypes {
		if t == mt {
			return true
		}
	}
	return false
}

func (m *Match) loadConsts() {
	if !m.has("const_value") && !m.has("const_mask") {
		return
	}
	if !m.has("const_mask") || !m.has("const_value") {
		m.issuef(Error, "Both const_mask and const_value are required")
		return
	}
	if n, _ := m.get("const_mask"); n != nil {
		v, ok, err := m.ttp.normalizeNode(&m.object, n)
		if err != nil {
			m.issuef(Error, "Unable to interpret value %s", nodeString(n))
		} else if ok {
			m.ConstMask = &v
		}
	}
	if n, _ := m.get("const_value"); n != nil {
		v, ok, err := m.ttp.normalizeNode(&m.object, n)
		if err != nil {
			m.issuef(Error, "Unable to interpret value %s", nodeString(n))
		} else if ok {
			m.ConstValue = &v
		}
	}
	if w, known := m.width(); known {
		if m.ConstMask != nil {
			*m.ConstMask = m.ConstMask.And(w)
		}
		if m.ConstValue != nil {
			*m.ConstValue = m.ConstValue.And(w)
		}
	}
}

func (m *Match) loadValue() {
	n, ok := m.get("value")
	if !ok {
		return
	}
	if _, isStr := n.Str(); isStr {
		s, _ := m.readStringStripped("value", true)
		// The way published patterns tend to ask for a VLAN.
		if s == "OFPVID_PRESENT" || s == "<vid>|0x1000" {
			present := openflow.U64(0x1000)
			constMask, constValue := present, present
			m.ConstMask, m.ConstValue = &constMask, &constValue
			m.issuef(Error, "Use a const_mask and const_value of 0x1000 to"+
				" indicate a VLAN is required. Rather than a value of %s", s)
			return
		}
		v, valued, err := m.ttp.normalizeString(&m.object, s)
		if err != nil {
			m.issuef(Error, "Unable to interpret value %s", s)
		} else if valued {
			m.Value = &v
		}
	} else {
		v, valued, err := m.ttp.normalizeNode(&m.object, n)
		if err != nil {
			m.issuef(Error, "Unable to interpret value %s", nodeString(n))
		} else if valued {
			m.Value = &v
		}
	}
	if w, known := m.width(); known && m.Value != nil {
		*m.Value = m.Value.And(w)
	}
}

func (m *Match) loadMask() {
	n, ok := m.get("mask")
	if !ok {
		return
	}
	v, valued, err := m.ttp.normalizeNode(&m.object, n)
	if err != nil {
		m.issuef(Error, "Unable to parse a mask with value %s", nodeString(n))
	} else if valued {
		if w, known := m.width(); known {
			v = v.And(w)
		}
		m.Mask = &v
	}
	if m.MatchType != "exact" && m.MatchType != "all_or_exact" {
		return
	}
	// A declared mask only fits an exact discipline when it, with any
	// constant bits, covers the full field width.
	w, known := m.width()
	covered := false
	if known && m.Mask != nil {
		effective := *m.Mask
		if m.ConstMask != nil {
			effective = m.ConstMask.Or(effective)
		}
		covered = effective == w
	}
	if !covered {
		m.issuef(Error, "Unexpected mask in an %s match - %s",
			m.MatchType, m.sourceText())
		m.MatchType = "mask"
	}
}

// checkBuiltInValue enforces that built in flow matches carry a concrete
// value the pattern itself installs.
func (m *Match) checkBuiltInValue() {
	raw, has := m.get("value")
	if m.Value == nil && has {
		if s, isStr := raw.Str(); isStr && strings.TrimSpace(s) == "OFPVID_PRESENT" {
			v := openflow.U64(0x1000)
			m.Value = &v
		}
	}
	if m.Value != nil {
		return
	}
	if has {
		m.issuef(Error, "Cannot interpret value %s in built-in flow",
			nodeString(raw))
	} else {
		m.issuef(Error, "Built-in flow is missing a value")
	}
}

func (m *Match) width() (openflow.Uint128, bool) {
	if m.widthBits < 0 {
		return openflow.Uint128{}, false
	}
	return openflow.Mask(m.widthBits), true
}

// isStandardField reports whether the field is plain OpenFlow rather than
// a $ prefixed extension.
func (m *Match) isStandardField() bool {
	return !strings.HasPrefix(m.FieldName, "$")
}

// IsRequired reports whether a rule must carry this field. Exact matches
// and matches with constant bits or a declared mask cannot be left out.
func (m *Match) IsRequired() bool {
	switch m.MatchType {
	case "exact":
		return true
	case "all_or_exact":
		return false
	}
	if m.ConstMask != nil && !m.ConstMask.IsZero() {
		return true
	}
	if m.Mask != nil && !m.Mask.IsZero() {
		return true
	}
	return false
}

func (m *Match) makeMasks() {
	if m.isStandardField() {
		bit, ok := openflow.FieldBit(m.FieldName)
		if !ok {
			m.issuef(Error, "Unknown OpenFlow field %s", m.FieldName)
			return
		}
		if m.IsRequired() {
			m.required |= bit
		} else {
			m.optional |= bit
		}
		return
	}
	m.ttp.identifiers.CheckIdentifier(m.FieldName, "field", &m.object)
}

func (m *Match) masks() (required, optional uint64) {
	return m.required, m.optional
}

// satisfiesConst checks the rule sets the constant bits to their declared
// values. A rule mask must include the constant bits.
func (m *Match) satisfiesConst(value openflow.Uint128, mask *openflow.Uint128) bool {
	if m.ConstMask == nil || m.ConstMask.IsZero() {
		return true
	}
	if mask != nil && mask.And(*m.ConstMask) != *m.ConstMask {
		return false
	}
	if m.ConstValue == nil {
		return false
	}
	return value.And(*m.ConstMask) == *m.ConstValue
}

// satisfiesMask checks the rule's mask against a declared one. A rule
// without a mask counts as fully masked.
func (m *Match) satisfiesMask(mask *openflow.Uint128) bool {
	if m.Mask == nil {
		return true
	}
	if mask == nil {
		w, known := m.width()
		return known && w == *m.Mask
	}
	if m.ConstMask != nil && !m.ConstMask.IsZero() {
		return m.ConstMask.Or(*m.Mask) == *mask
	}
	return *m.Mask == *mask
}

// satisfiesValue checks the rule's value against a declared one, under the
// rule's mask when present.
func (m *Match) satisfiesValue(value openflow.Uint128, mask *openflow.Uint128) bool {
	if m.Value == nil {
		return true
	}
	if mask != nil {
		return m.Value.And(*mask) == value.And(*mask)
	}
	return *m.Value == value
}

// satisfiesField reports whether the rule's (value, mask) meets every
// requirement of this template field. A nil mask is an exact rule match.
func (m *Match) satisfiesField(value openflow.Uint128, mask *openflow.Uint128) bool {
	if !m.satisfiesConst(value, mask) {
		return false
	}
	if !m.satisfiesMask(mask) {
		return false
	}
	if !m.satisfiesValue(value, mask) {
		return false
	}
	switch m.MatchType {
	case "exact":
		if mask == nil {
			return true
		}
		w, known := m.width()
		return known && mask.And(w) == w
	case "all_or_exact":
		if mask == nil {
			return true
		}
		w, known := m.width()
		if !known {
			return mask.IsZero()
		}
		masked := mask.And(w)
		return masked.IsZero() || masked == w
	case "prefix":
		if mask == nil {
			return true
		}
		w, known := m.width()
		if !known {
			return true
		}
		return m.isPrefixMask(mask.And(w))
	case "mask":
		return true
	}
	return false
}

// isPrefixMask reports whether the mask is left contiguous within the
// field width: ones from the top bit down, then zeros.
func (m *Match) isPrefixMask(mask openflow.Uint128) bool {
	if m.widthBits < 1 {
		return true
	}
	highest := openflow.U64(1).Shl(uint(m.widthBits - 1))
	for mask.And(highest) == highest {
		mask = mask.AndNot(highest).Shl(1)
	}
	return mask.IsZero()
}

// satisfy yields the vacuous branch when the field is optional, and the
// consuming branch when the rule carries a satisfying field of this name.
func (m *Match) satisfy(residual rule.Match, builds []matchBuild) *Remaining[rule.Match, matchBuild] {
	res := newRemaining[rule.Match, matchBuild]()
	if !m.IsRequired() {
		res.AddAll(residual, builds)
	}
	if f, ok := residual.Get(m.FieldName); ok {
		var mask *openflow.Uint128
		if f.HasMask {
			mask = &f.Mask
		}
		if m.satisfiesField(f.Value, mask) {
			consumed := residual.Without(m.FieldName)
			next := make([]matchBuild, 0, len(builds))
			for _, b := range builds {
				next = append(next, matchBuild{
					match:   b.match.WithField(f),
					binding: appendTrail(b.binding, m),
				})
			}
			res.AddAll(consumed, next)
		}
	}
	return res
}

// applyField replays this bound leaf: move the same named field from in
// to out, checking it still satisfies the leaf.
func (m *Match) applyField(in *rule.Match, out *rule.Match) error {
	f, ok := in.Get(m.FieldName)
	if !ok {
		return serrors.New("rule is missing a bound match field",
			"field", m.FieldName)
	}
	var mask *openflow.Uint128
	if f.HasMask {
		mask = &f.Mask
	}
	if !m.satisfiesField(f.Value, mask) {
		return serrors.New("rule field no longer satisfies its bound leaf",
			"leaf", m.String(), "field", f.Key())
	}
	*in = in.Without(m.FieldName)
	*out = out.WithField(f)
	return nil
}

// String renders the field with its requirement suffixes: '!' exact,
// '@' prefix, '*' optional, then any declared value and mask.
func (m *Match) String() string {
	var b strings.Builder
	b.WriteString(m.FieldName)
	if m.MatchType == "exact" || m.MatchType == "all_or_exact" {
		b.WriteString("!")
	}
	if m.MatchType == "prefix" {
		b.WriteString("@")
	}
	if !m.IsRequired() {
		b.WriteString("*")
	}
	if m.Value != nil {
		b.WriteString("=")
		b.WriteString(m.Value.Hex())
	}
	if m.Mask != nil {
		b.WriteString("/")
		b.WriteString(m.Mask.Hex())
	}
	return b.String()
}

// MatchSet is a list of template match fields and nested sets under a
// meta type.
type MatchSet struct {
	object
	Meta    MetaType
	members []matchMember

	required uint64
	optional uint64
}

func newMatchSet(p *Pattern, n *jsontree.Node, parent *object, meta MetaType, builtIn bool) *MatchSet {
	s := &MatchSet{object: makeObject(p, n, parent, "match_set")}
	s.loadCommon()
	var badMeta MetaType
	if builtIn && meta != MetaAll {
		badMeta = meta
		meta = MetaAll
	}
	var members []listMember
	s.Meta, members = listMembers(n, meta)
	for _, mem := range members {
		if mem.meta != "" {
			s.members = append(s.members,
				newMatchSet(p, mem.node, &s.object, mem.meta, builtIn))
		} else {
			s.members = append(s.members,
				newMatch(p, mem.node, &s.object, builtIn))
		}
	}
	if badMeta != "" {
		s.issuef(Error, "Expecting an all meta type in a builtin flow"+
			" match, but found %s", badMeta)
	}
	if builtIn {
		for _, m := range s.members {
			if _, nested := m.(*MatchSet); nested {
				s.issuef(Warning, "Meta lists within a builtin match"+
					" don't make sense.")
			}
		}
	}
	s.makeMasks()
	return s
}

// emptyMatchSet makes the stand-in set used when a flow omits match_set.
// It only accepts an empty match.
func emptyMatchSet(p *Pattern, parent *object) *MatchSet {
	s := &MatchSet{object: makeObject(p, nil, parent, "match_set"), Meta: MetaAll}
	s.makeMasks()
	return s
}

// Leaves returns the set's match fields with nested sets flattened out.
func (s *MatchSet) Leaves() []*Match {
	var out []*Match
	for _, m := range s.members {
		switch v := m.(type) {
		case *Match:
			out = append(out, v)
		case *MatchSet:
			out = append(out, v.Leaves()...)
		}
	}
	return out
}

// makeMasks merges the members' masks permissively: a field only becomes
// required when every alternative requires it, otherwise filtering could
// reject rules some alternative accepts.
func (s *MatchSet) makeMasks() {
	reqs := make([]uint64, 0, len(s.members))
	opts := make([]uint64, 0, len(s.members))
	for _, m := range s.members {
		r, o := m.masks()
		reqs = append(reqs, r)
		opts = append(opts, o)
	}
	orAll := func(masks []uint64) uint64 {
		var out uint64
		for _, m := range masks {
			out |= m
		}
		return out
	}
	switch s.Meta {
	case MetaAll:
		s.required = orAll(reqs)
		s.optional = orAll(opts)
	case MetaOneOrMore, MetaExactlyOne:
		if len(reqs) == 0 {
			s.issuef(Error, "Invalid request for one or more with 0 sized set")
			return
		}
		and := reqs[0]
		for _, r := range reqs[1:] {
			and &= r
		}
		s.required = and
		s.optional = orAll(reqs) | orAll(opts)
	case MetaZeroOrMore, MetaZeroOrOne:
		s.required = 0
		s.optional = orAll(reqs) | orAll(opts)
	}
	s.optional &^= s.required
}

func (s *MatchSet) masks() (required, optional uint64) {
	return s.required, s.optional
}

func skipNonStandard(m matchMember) bool {
	leaf, ok := m.(*Match)
	return ok && !leaf.isStandardField()
}

func (s *MatchSet) satisfy(residual rule.Match, builds []matchBuild) *Remaining[rule.Match, matchBuild] {
	return s.run(residual, builds, false)
}

// run prunes by the precomputed field masks before descending into the
// combinator fold. Extension fields are skipped, rules cannot carry them.
func (s *MatchSet) run(residual rule.Match, builds []matchBuild, final bool) *Remaining[rule.Match, matchBuild] {
	bits := residual.FieldBits()
	if bits&s.required != s.required {
		return newRemaining[rule.Match, matchBuild]()
	}
	if final && bits&(s.optional|s.required) != bits {
		return newRemaining[rule.Match, matchBuild]()
	}
	out := satisfyList(s.Meta, s.members,
		seedRemaining(residual, builds...), skipNonStandard)
	if final {
		out = out.Filter(func(m rule.Match) bool { return m.Len() == 0 })
	}
	return out
}

// Satisfies reports whether the match can be fully consumed by this set.
func (s *MatchSet) Satisfies(m rule.Match) bool {
	return s.run(m, nil, true).Len() > 0
}

func (s *MatchSet) String() string {
	parts := make([]string, 0, len(s.members))
	for _, m := range s.members {
		switch v := m.(type) {
		case *Match:
			parts = append(parts, v.String())
		case *MatchSet:
			parts = append(parts, v.String())
		}
	}
	return string(s.Meta) + "(" + strings.Join(parts, ",") + ")"
}
