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
	"fmt"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
)

// Variable is a named placeholder from the identifiers list. Values
// reference it in angle brackets, e.g. "<local_vid>", and may never resolve
// to a single number offline.
type Variable struct {
	object

	// Var keeps the angle brackets, references are looked up verbatim.
	Var   string
	Range *Range
}

func newVariable(p *Pattern, n *jsontree.Node, parent *object) *Variable {
	v := &Variable{object: makeObject(p, n, parent, "variable")}
	v.loadCommon()
	if s, ok := v.readStringStripped("var", false); ok {
		if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
			v.issuef(Error, "%s identifier must be enclosed in angle"+
				" brackets (<>)", s)
			s = "<" + s + ">"
		}
		v.Var = s
	}
	if r, ok := v.readRange("range", true, noMin, noMax); ok {
		v.Range = &r
	}
	return v
}

func (v *Variable) rangeString() string {
	if v.Range == nil {
		return "none"
	}
	return v.Range.String()
}

func (v *Variable) String() string {
	s := "Variable:" + v.Var
	if v.Range != nil {
		s += " Range:" + v.Range.String()
	}
	return s + "\n\t" + v.Doc
}

// ExtensionIdentifier declares an experimenter extension the pattern may
// reference with a $ prefix, e.g. a field "$VENDOR_STATE".
type ExtensionIdentifier struct {
	object

	ID string
	// Type is one of field, inst, action or error.
	Type    string
	ExpID   *int64
	ExpCode *int64
}

func newExtensionIdentifier(p *Pattern, n *jsontree.Node, parent *object) *ExtensionIdentifier {
	e := &ExtensionIdentifier{object: makeObject(p, n, parent, "identifier")}
	e.loadCommon()
	if idn, ok := e.get("id"); ok {
		e.ID, _ = scalarString(idn)
	}
	e.Type, _ = e.readStringStripped("type", false)
	if v, ok := e.readInt("exp_id", false, 0, (1<<32)-1); ok {
		e.ExpID = &v
	}
	if v, ok := e.readInt("exp_code", true, 0, noMax); ok {
		e.ExpCode = &v
	}
	switch e.Type {
	case "field", "inst", "action", "error":
	default:
		e.issuef(Warning, "Invalid extension type %s. Expecting type of"+
			" field, inst, action or error.", e.Type)
	}
	return e
}

func (e *ExtensionIdentifier) String() string {
	s := "Extension identifier " + e.Type + ":" + e.ID
	if e.ExpID != nil {
		s += fmt.Sprintf(" Exp_id:%#x", *e.ExpID)
	}
	if e.ExpCode != nil {
		s += fmt.Sprintf(" Exp_code:%#x", *e.ExpCode)
	}
	return s + "\n\t" + e.Doc
}

// Identifiers holds the pattern's variable and extension identifier
// declarations. Duplicate declarations keep the first copy.
type Identifiers struct {
	object

	variables map[string]*Variable
	varOrder  []string
	idents    map[string]*ExtensionIdentifier
	idOrder   []string
}

func newIdentifiers(p *Pattern, n *jsontree.Node, parent *object) *Identifiers {
	ids := &Identifiers{
		object:    makeObject(p, n, parent, "identifiers"),
		variables: make(map[string]*Variable),
		idents:    make(map[string]*ExtensionIdentifier),
	}
	ids.loadCommon()

	items := expectList(n)
	if n != nil {
		if obj, isObj := n.Object(); isObj {
			if inner, ok := obj.Get("Identifier list"); ok {
				ids.issuef(Warning, "Pica8 style Identifier list found, the"+
					" identifier list should be a direct list of variables"+
					" and identifiers")
				items = expectList(inner)
			}
		}
	}

	for _, item := range items {
		obj, isObj := item.Object()
		if isObj {
			if _, ok := obj.Get("var"); ok {
				ids.addVariable(newVariable(p, item, &ids.object))
				continue
			}
			if _, ok := obj.Get("id"); ok {
				ids.addExtension(newExtensionIdentifier(p, item, &ids.object))
				continue
			}
		}
		member := makeObject(p, item, &ids.object, "identifier")
		member.issuef(Error, "Invalid identifier type found: %s",
			member.sourceText())
	}
	return ids
}

func (ids *Identifiers) addVariable(v *Variable) {
	prev, dup := ids.variables[v.Var]
	if !dup {
		ids.variables[v.Var] = v
		ids.varOrder = append(ids.varOrder, v.Var)
		return
	}
	var diff []string
	if !rangeEqual(prev.Range, v.Range) {
		diff = append(diff, "range")
	}
	if prev.Doc != v.Doc {
		diff = append(diff, "doc")
	}
	v.issuef(Warning, "Multiple copies of %s have been defined, these"+
		" differ by: %v", v.Var, diff)
}

func (ids *Identifiers) addExtension(e *ExtensionIdentifier) {
	prev, dup := ids.idents[e.ID]
	if !dup {
		ids.idents[e.ID] = e
		ids.idOrder = append(ids.idOrder, e.ID)
		return
	}
	var diff []string
	if !int64PtrEqual(prev.ExpID, e.ExpID) {
		diff = append(diff, "exp_id")
	}
	if !int64PtrEqual(prev.ExpCode, e.ExpCode) {
		diff = append(diff, "exp_code")
	}
	if prev.Type != e.Type {
		diff = append(diff, "type")
	}
	if prev.Doc != e.Doc {
		diff = append(diff, "doc")
	}
	e.issuef(Warning, "Multiple copies of %s have been defined, these"+
		" differ by: %v", e.ID, diff)
}

// Len returns the number of declared variables and extension identifiers.
func (ids *Identifiers) Len() int {
	return len(ids.variables) + len(ids.idents)
}

// Variables returns the declared variables in declaration order.
func (ids *Identifiers) Variables() []*Variable {
	out := make([]*Variable, 0, len(ids.varOrder))
	for _, name := range ids.varOrder {
		out = append(out, ids.variables[name])
	}
	return out
}

// Extensions returns the declared extension identifiers in declaration
// order.
func (ids *Identifiers) Extensions() []*ExtensionIdentifier {
	out := make([]*ExtensionIdentifier, 0, len(ids.idOrder))
	for _, id := range ids.idOrder {
		out = append(out, ids.idents[id])
	}
	return out
}

func (ids *Identifiers) variable(name string) *Variable {
	return ids.variables[name]
}

// CheckIdentifier reports whether a $ prefixed reference names a declared
// extension identifier of the wanted type. Misses and type mismatches are
// reported against the referencing object, with close name suggestions
// when any identifiers of the type exist.
func (ids *Identifiers) CheckIdentifier(name, typ string, o *object) bool {
	name = strings.TrimPrefix(name, "$")

	if ident, ok := ids.idents[name]; ok {
		if ident.Type == typ {
			ids.ttp.log.Debug("Known experimenter id", "type", typ, "id", name)
			return true
		}
		o.issuef(Warning, "experimenter id found with wrong type,"+
			" expected %s found %s", typ, ident.Type)
		return false
	}

	var candidates []string
	for _, id := range ids.idOrder {
		if ids.idents[id].Type == typ {
			candidates = append(candidates, id)
		}
	}
	if maybes := suggestion(closeMatches(name, candidates, 3, 0.6)); maybes != "" {
		o.issuef(Warning, "Experimental %s id %s not found - did you"+
			" mean: %s?", typ, name, maybes)
	} else {
		o.issuef(Warning, "Experimental %s id %s not found", typ, name)
	}
	return false
}

func rangeEqual(a, b *Range) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
