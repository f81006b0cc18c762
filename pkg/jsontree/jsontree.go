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

// Package jsontree decodes JSON documents into a navigable tree that
// remembers where each object came from in the source text. Object nodes
// carry the byte offsets of their braces, which lets consumers report
// findings against the original document.
package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// Node is a single JSON value. Value holds one of nil, bool, json.Number,
// string, []*Node or *Object.
type Node struct {
	Value any
	// Start and End delimit the value in the source text, from the
	// opening brace to one past the closing brace. Offsets are only
	// tracked for objects, all other nodes carry -1.
	Start int
	End   int
}

// Object is a JSON object. Members keep document order, with a repeated
// key overwriting the value at its first position.
type Object struct {
	keys  []string
	index map[string]*Node
}

func (o *Object) set(key string, val *Node) {
	if _, ok := o.index[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.index[key] = val
}

// Get returns the member value for key.
func (o *Object) Get(key string) (*Node, bool) {
	v, ok := o.index[key]
	return v, ok
}

// Has reports whether the object has a member named key.
func (o *Object) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Keys returns the member names in document order. The returned slice is
// shared and must not be modified.
func (o *Object) Keys() []string {
	return o.keys
}

func (o *Object) Len() int {
	return len(o.index)
}

// Object returns the node value as an object.
func (n *Node) Object() (*Object, bool) {
	o, ok := n.Value.(*Object)
	return o, ok
}

// Array returns the node value as an array.
func (n *Node) Array() ([]*Node, bool) {
	a, ok := n.Value.([]*Node)
	return a, ok
}

// Str returns the node value as a string.
func (n *Node) Str() (string, bool) {
	s, ok := n.Value.(string)
	return s, ok
}

// Number returns the node value as an unparsed number literal.
func (n *Node) Number() (json.Number, bool) {
	v, ok := n.Value.(json.Number)
	return v, ok
}

// Bool returns the node value as a bool.
func (n *Node) Bool() (bool, bool) {
	b, ok := n.Value.(bool)
	return b, ok
}

// IsNull reports whether the node holds JSON null.
func (n *Node) IsNull() bool {
	return n.Value == nil
}

// Kind names the JSON type of the node, for use in messages.
func (n *Node) Kind() string {
	switch n.Value.(type) {
	case *Object:
		return "object"
	case []*Node:
		return "list"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return "unknown"
}

// Span returns the source offsets of the node, or (-1, -1) if untracked.
func (n *Node) Span() (int, int) {
	return n.Start, n.End
}

// Decode parses a single JSON document from UTF-8 text. Numbers are kept
// as json.Number literals.
func Decode(src []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()
	node, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, serrors.New("trailing data after document",
			"offset", dec.InputOffset())
	}
	return node, nil
}

func parseValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return nil, serrors.New("unexpected delimiter", "delim", delim.String())
	}
	return &Node{Value: tok, Start: -1, End: -1}, nil
}

func parseObject(dec *json.Decoder) (*Node, error) {
	// The opening brace is consumed, the decoder position is just past it.
	start := int(dec.InputOffset()) - 1
	obj := &Object{index: map[string]*Node{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, serrors.New("object key is not a string",
				"offset", dec.InputOffset())
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		obj.set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return &Node{Value: obj, Start: start, End: int(dec.InputOffset())}, nil
}

func parseArray(dec *json.Decoder) (*Node, error) {
	var elems []*Node
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		elems = append(elems, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return &Node{Value: elems, Start: -1, End: -1}, nil
}

// SyntaxOffset extracts the byte offset from a JSON syntax error, so that
// parse failures can be reported against the source text.
func SyntaxOffset(err error) (int, bool) {
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return int(syntax.Offset), true
	}
	return 0, false
}
