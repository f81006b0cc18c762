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
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
)

// Range is an inclusive integer range, written "min..max" in a pattern.
type Range struct {
	Min int64
	Max int64
}

// Contains reports whether v lies within the range, inclusive.
func (r Range) Contains(v int64) bool {
	return r.Min <= v && v <= r.Max
}

func (r Range) String() string {
	return strconv.FormatInt(r.Min, 10) + ".." + strconv.FormatInt(r.Max, 10)
}

// object is the common base of every pattern member. It wraps the decoded
// node the member came from, remembers the source span findings should
// point at, and carries the name, doc and opt_tag members every object may
// declare. Members without their own tracked span inherit the parent's.
type object struct {
	ttp   *Pattern
	node  *jsontree.Node
	obj   *jsontree.Object
	start int
	end   int
	// what names the member kind in findings, e.g. "flow_mod".
	what string
	path string

	Name   string
	Doc    string
	OptTag string
}

func makeObject(p *Pattern, node *jsontree.Node, parent *object, what string) object {
	o := object{ttp: p, node: node, what: what, start: -1, end: -1, path: what}
	if parent != nil {
		o.start, o.end = parent.start, parent.end
		o.path = parent.path + "/" + what
	}
	if node != nil {
		if obj, ok := node.Object(); ok {
			o.obj = obj
		}
		if node.Start >= 0 {
			o.start, o.end = node.Start, node.End
		}
	}
	return o
}

// loadCommon reads the members every object may carry. A doc given as a
// list of strings is joined with spaces.
func (o *object) loadCommon() {
	if n, ok := o.get("doc"); ok {
		if elems, isList := n.Array(); isList {
			var parts []string
			for _, e := range elems {
				if s, ok := scalarString(e); ok {
					parts = append(parts, s)
				}
			}
			o.Doc = strings.Join(parts, " ")
		} else {
			o.Doc, _ = o.readString("doc", true)
		}
	}
	o.Name, _ = o.readString("name", true)
	if o.Name != "" {
		o.path += " " + o.Name
	}
	o.OptTag, _ = o.readString("opt_tag", true)
	if o.OptTag != "" {
		o.ttp.addOptTagged(o.OptTag, o.path)
	}
}

func (o *object) issuef(sev Severity, format string, args ...any) {
	o.ttp.report(Issue{
		Severity: sev,
		Msg:      fmt.Sprintf(format, args...),
		Path:     o.path,
		Start:    o.start,
		End:      o.end,
	})
}

func (o *object) get(attr string) (*jsontree.Node, bool) {
	if o.obj == nil {
		return nil, false
	}
	return o.obj.Get(attr)
}

func (o *object) has(attr string) bool {
	_, ok := o.get(attr)
	return ok
}

// readValue returns the member node. A missing or null required member is
// reported. JSON null counts as absent everywhere.
func (o *object) readValue(attr string, opt bool) (*jsontree.Node, bool) {
	n, ok := o.get(attr)
	if ok && !n.IsNull() {
		return n, true
	}
	if !opt {
		o.issuef(Warning, "Required attribute %s not found in %s", attr, o.what)
	}
	return nil, false
}

// readString returns the member as a string. A non-string scalar is
// reported and converted; containers are reported and dropped.
func (o *object) readString(attr string, opt bool) (string, bool) {
	n, ok := o.readValue(attr, opt)
	if !ok {
		return "", false
	}
	if s, isStr := n.Str(); isStr {
		return s, true
	}
	o.issuef(Warning, "String expected for %s but found a %s instead in %s",
		attr, n.Kind(), o.what)
	if s, isScalar := scalarString(n); isScalar {
		return s, true
	}
	return "", false
}

// readStringStripped reads a string and strips surrounding whitespace,
// reporting when anything had to be removed.
func (o *object) readStringStripped(attr string, opt bool) (string, bool) {
	s, ok := o.readString(attr, opt)
	if !ok {
		return s, false
	}
	stripped := strings.TrimSpace(s)
	if len(stripped) != len(s) {
		o.issuef(Warning, "Attribute %s's value contained leading or "+
			"trailing whitespace '%s'.", attr, stripped)
	}
	return stripped, true
}

// readInt returns the member as an integer. Strings are accepted when they
// hold a base prefixed integer, since JSON itself only allows decimal. min
// and max are inclusive; violations are reported and drop the value.
func (o *object) readInt(attr string, opt bool, min, max int64) (int64, bool) {
	n, ok := o.readValue(attr, opt)
	if !ok {
		return 0, false
	}
	var value int64
	if num, isNum := n.Number(); isNum {
		v, err := strconv.ParseInt(num.String(), 10, 64)
		if err != nil {
			o.issuef(Warning, "Integer expected for %s but found %s"+
				" instead in %s", attr, num.String(), o.what)
			return 0, false
		}
		value = v
	} else if s, isStr := n.Str(); isStr {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
		if err != nil {
			o.issuef(Warning, "Integer expected for %s but found %s"+
				" instead in %s", attr, s, o.what)
			return 0, false
		}
		value = v
	} else {
		o.issuef(Warning, "Integer expected for %s but found a %s"+
			" instead in %s", attr, n.Kind(), o.what)
		return 0, false
	}
	if value < min {
		o.issuef(Warning, "Attribute %s value smaller than the minimum"+
			" allowed (%d < %d)", attr, value, min)
		return 0, false
	}
	if value > max {
		o.issuef(Warning, "Attribute %s value larger than the maximum"+
			" allowed (%d > %d)", attr, value, max)
		return 0, false
	}
	return value, true
}

// readRange reads a "min..max" range with base prefixed integer bounds.
// Arithmetic expressions are only evaluated when the pattern was loaded
// with AllowMath, and even then each use is reported with its replacement.
func (o *object) readRange(attr string, opt bool, min, max int64) (Range, bool) {
	value, ok := o.readString(attr, opt)
	if !ok {
		return Range{}, false
	}
	parts := strings.Split(value, "..")
	if len(parts) < 2 {
		o.issuef(Error, "Attribute %s is expected to be a range in"+
			" the format min..max but found %s instead.", attr, value)
		return Range{}, false
	}

	rangeMin, ok := o.parseRangeBound(parts[0], value)
	if !ok {
		return Range{}, false
	}
	if rangeMin < min {
		o.issuef(Warning, "Minimum range %s value smaller than"+
			" the minimum allowed (%d < %d)", value, rangeMin, min)
		return Range{}, false
	}

	rangeMax, ok := o.parseRangeBound(parts[1], value)
	if !ok {
		return Range{}, false
	}
	if rangeMax > max {
		o.issuef(Warning, "Maximum range %s value larger than"+
			" the maximum allowed (%d > %d)", value, rangeMax, max)
		return Range{}, false
	}
	if rangeMax < rangeMin {
		o.issuef(Warning, "Invalid range, minimum (%#x) is larger"+
			" than the maximum (%#x)", rangeMin, rangeMax)
		return Range{}, false
	}
	return Range{Min: rangeMin, Max: rangeMax}, true
}

func (o *object) parseRangeBound(part, whole string) (int64, bool) {
	bound, ok := new(big.Int).SetString(strings.TrimSpace(part), 0)
	if !ok && o.ttp.allowMath {
		if v, err := evalMath(part); err == nil {
			o.issuef(Error, "An expression should not be used in a"+
				" range replace %s with %#x", part, v)
			bound, ok = v, true
		}
	}
	if !ok {
		o.issuef(Error, "Invalid non-numeric value %s in range %s",
			part, whole)
		return 0, false
	}
	if !bound.IsInt64() {
		o.issuef(Error, "Range value %s is too large to represent"+
			" in %s", part, whole)
		return 0, false
	}
	return bound.Int64(), true
}

// readRangeOrInt reads either a range or a plain integer. A plain integer
// v comes back as the collapsed range v..v with isRange false.
func (o *object) readRangeOrInt(attr string, opt bool, min, max int64) (rng Range, isRange, ok bool) {
	n, present := o.readValue(attr, opt)
	if !present {
		return Range{}, false, false
	}
	if s, isStr := n.Str(); isStr && strings.Contains(s, "..") {
		r, ok := o.readRange(attr, true, min, max)
		return r, true, ok
	}
	v, ok := o.readInt(attr, true, min, max)
	return Range{Min: v, Max: v}, false, ok
}

// readList returns the member as a list, wrapping a single member in a one
// element list per the pattern one-or-many convention.
func (o *object) readList(attr string, opt bool) ([]*jsontree.Node, bool) {
	n, ok := o.readValue(attr, opt)
	if !ok {
		return nil, false
	}
	return expectList(n), true
}

// expectList wraps a non-list node in a single element list. A nil node is
// an empty list.
func expectList(n *jsontree.Node) []*jsontree.Node {
	if n == nil {
		return nil
	}
	if a, ok := n.Array(); ok {
		return a
	}
	return []*jsontree.Node{n}
}

// scalarString converts a scalar node to its textual form.
func scalarString(n *jsontree.Node) (string, bool) {
	switch v := n.Value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// nodeString renders a node for an issue message: scalars as their text,
// containers and null by kind.
func nodeString(n *jsontree.Node) string {
	if n == nil {
		return "null"
	}
	if s, ok := scalarString(n); ok {
		return s
	}
	return n.Kind()
}

// sourceText returns the raw pattern text this object was decoded from.
func (o *object) sourceText() string {
	return o.ttp.snippet(o.start, o.end)
}

const (
	noMin = math.MinInt64
	noMax = math.MaxInt64
)
