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

package rule

import (
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
)

// Action is a single OpenFlow action. Kind carries the action name as
// spelled in patterns (OUTPUT, SET_FIELD, GROUP, PUSH_VLAN, ...). The
// argument depends on the kind: SET_FIELD uses Field and Value, OUTPUT
// uses Value as the port, PUSH_* as the ethertype, SET_QUEUE as the
// queue, TTL setters as the TTL. Kinds without an argument leave
// HasValue false. GROUP actions reference the group content.
type Action struct {
	Kind     string
	Field    string
	Value    openflow.Uint128
	HasValue bool
	Group    *Group
}

// Key fingerprints the action content.
func (a Action) Key() string {
	var b strings.Builder
	b.WriteString(a.Kind)
	if a.Field != "" {
		b.WriteString(":")
		b.WriteString(a.Field)
	}
	if a.HasValue {
		b.WriteString("=")
		b.WriteString(a.Value.Hex())
	}
	if a.Group != nil {
		b.WriteString("{")
		b.WriteString(a.Group.Key())
		b.WriteString("}")
	}
	return b.String()
}

// String renders the action for humans, resolving reserved port names.
func (a Action) String() string {
	switch a.Kind {
	case "SET_FIELD":
		return a.Field + "=" + a.Value.Hex()
	case "OUTPUT":
		if name, ok := openflow.PortName(a.Value.Uint64()); ok && a.Value.Hi == 0 {
			return a.Kind + "=" + name
		}
		return a.Kind + "=" + a.Value.String()
	case "GROUP":
		if a.Group != nil {
			return a.Kind + "=" + a.Group.String()
		}
	}
	if a.HasValue {
		return a.Kind + "=" + a.Value.Hex()
	}
	return a.Kind
}

// ActionList is an ordered list of actions.
type ActionList []Action

// WithAppended returns a copy with actions appended.
func (l ActionList) WithAppended(actions ...Action) ActionList {
	out := make(ActionList, len(l), len(l)+len(actions))
	copy(out, l)
	return append(out, actions...)
}

// WithRemoved returns a copy with the first action of equal content
// removed. Removing an action that is not present is a no-op.
func (l ActionList) WithRemoved(a Action) ActionList {
	key := a.Key()
	for i := range l {
		if l[i].Key() == key {
			out := make(ActionList, 0, len(l)-1)
			out = append(out, l[:i]...)
			return append(out, l[i+1:]...)
		}
	}
	return l
}

// Contains reports whether an action of equal content is present.
func (l ActionList) Contains(a Action) bool {
	key := a.Key()
	for i := range l {
		if l[i].Key() == key {
			return true
		}
	}
	return false
}

// Concat returns the concatenation of both lists as a new list.
func (l ActionList) Concat(other ActionList) ActionList {
	out := make(ActionList, 0, len(l)+len(other))
	out = append(out, l...)
	return append(out, other...)
}

// Key fingerprints the list content. Order contributes, the same actions
// in a different order are a different list.
func (l ActionList) Key() string {
	keys := make([]string, 0, len(l))
	for _, a := range l {
		keys = append(keys, a.Key())
	}
	return strings.Join(keys, ";")
}

// String renders the actions comma separated.
func (l ActionList) String() string {
	parts := make([]string, 0, len(l))
	for _, a := range l {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// Group is a group table entry: a type and the buckets holding its
// actions. FF and SELECT groups carry per bucket metadata on the device,
// which is not modeled here.
type Group struct {
	Type    string
	Buckets []ActionList
}

// Key fingerprints the group content.
func (g *Group) Key() string {
	keys := make([]string, 0, len(g.Buckets)+1)
	keys = append(keys, g.Type)
	for _, b := range g.Buckets {
		keys = append(keys, "["+b.Key()+"]")
	}
	return strings.Join(keys, "|")
}

// String renders the group type with its buckets.
func (g *Group) String() string {
	parts := make([]string, 0, len(g.Buckets))
	for _, b := range g.Buckets {
		parts = append(parts, "["+b.String()+"]")
	}
	if len(parts) == 0 {
		return g.Type
	}
	return g.Type + "{" + strings.Join(parts, "; ") + "}"
}
