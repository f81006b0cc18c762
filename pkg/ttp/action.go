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

// Action kinds that do not carry an argument.
func isBareActionKind(kind string) bool {
	switch kind {
	case "COPY_TTL_OUT", "COPY_TTL_IN", "POP_VLAN",
		"DEC_MPLS_TTL", "DEC_NW_TTL", "POP_PBB":
		return true
	}
	return false
}

// Action is a single template action. Only the members the kind uses are
// set; the rest stay zero.
type Action struct {
	object

	Kind string
	// Field and ValueText for SET_FIELD. The value may be a variable
	// reference, it is carried as written.
	Field     string
	ValueText string
	// Port for OUTPUT when the template pins one. A nil port matches any.
	Port     *openflow.Uint128
	PortText string
	// GroupID for GROUP.
	GroupID string
	// Display only arguments.
	TTLText       string
	EthertypeText string
	QueueText     string
}

func newAction(p *Pattern, n *jsontree.Node, parent *object) *Action {
	a := &Action{object: makeObject(p, n, parent, "action")}
	a.loadCommon()
	a.Kind, _ = a.readString("action", false)

	switch a.Kind {
	case "OUTPUT":
		a.loadPort()
	case "SET_MPLS_TTL", "SET_NW_TTL":
		if n, ok := a.get("ttl"); ok {
			a.TTLText = nodeString(n)
		}
	case "PUSH_VLAN", "PUSH_MPLS", "POP_MPLS", "PUSH_PBB":
		if n, ok := a.get("ethertype"); ok {
			a.EthertypeText = nodeString(n)
		}
	case "SET_QUEUE":
		if n, ok := a.get("queue_id"); ok {
			a.QueueText = nodeString(n)
		}
	case "GROUP":
		a.GroupID, _ = a.readString("group_id", true)
		if a.GroupID != "" {
			a.checkGroupRef()
		}
	case "SET_FIELD":
		a.loadSetField()
	case "COPY_TTL_OUT", "COPY_TTL_IN", "DEC_MPLS_TTL", "DEC_NW_TTL",
		"POP_VLAN", "POP_PBB", "":
	default:
		if strings.HasPrefix(a.Kind, "$") {
			p.identifiers.CheckIdentifier(a.Kind, "action", &a.object)
		} else {
			a.issuef(Warning, "Unspecified action id: %s", a.Kind)
			a.issuef(Warning, "Experimenter types should be prefixed"+
				" with '$'")
		}
	}
	return a
}

// loadPort keeps a numeric or reserved name port as a value, anything
// else, such as a variable reference, matches any port.
func (a *Action) loadPort() {
	n, ok := a.get("port")
	if !ok {
		return
	}
	a.PortText = nodeString(n)
	if s, isStr := n.Str(); isStr {
		if v, reserved := openflow.PortValue(s); reserved {
			port := openflow.U64(v)
			a.Port = &port
		}
		return
	}
	if num, isNum := n.Number(); isNum {
		if v, err := openflow.ParseUint128(num.String()); err == nil {
			a.Port = &v
		}
	}
}

func (a *Action) checkGroupRef() {
	if _, ok := a.ttp.FindGroup(a.GroupID); ok {
		return
	}
	maybes := suggestion(closeMatches(
		a.GroupID, a.ttp.groupNames(), 3, 0.6))
	if maybes != "" {
		a.issuef(Critical, "Invalid group reference %s not found!"+
			" Did you mean: %s?", a.GroupID, maybes)
	} else {
		a.issuef(Critical, "Invalid group reference %s not found!",
			a.GroupID)
	}
}

func (a *Action) loadSetField() {
	if a.has("field") {
		a.Field, _ = a.readString("field", true)
	} else if a.has("type") {
		a.issuef(Warning, "Incorrect use of 'type' instead of 'field'"+
			" within a SET_FIELD action")
		a.Field, _ = a.readString("type", true)
	} else {
		a.issuef(Critical, "SET_FIELD does not have a field set")
		return
	}
	if n, ok := a.get("value"); ok {
		a.ValueText = nodeString(n)
	}
	if strings.HasPrefix(a.Field, "$") {
		a.ttp.identifiers.CheckIdentifier(a.Field, "field", &a.object)
	} else if _, known := openflow.FieldByName(a.Field); !known {
		a.issuef(Warning, "Unknown OpenFlow field %s", a.Field)
	}
}

// matchesAction reports whether a concrete rule action fits this template
// slot. GROUP templates never match directly, they delegate to the group.
func (a *Action) matchesAction(act rule.Action) bool {
	if a.Kind != act.Kind {
		return false
	}
	switch {
	case isBareActionKind(act.Kind):
		return true
	case act.Kind == "SET_FIELD":
		return a.Field == act.Field
	case act.Kind == "OUTPUT":
		return a.Port == nil || (act.HasValue && *a.Port == act.Value)
	}
	return true
}

// satisfy consumes the first fitting action from the residual list.
// SET_FIELD on $ALLOW_VLAN_TRANSLATION is a device capability rather than
// an action, it passes through without consuming anything. GROUP templates
// hand the whole residual to the referenced group.
func (a *Action) satisfy(residual rule.ActionList, builds []actionBuild) *Remaining[rule.ActionList, actionBuild] {
	res := newRemaining[rule.ActionList, actionBuild]()
	if a.Kind == "SET_FIELD" && a.Field == "$ALLOW_VLAN_TRANSLATION" {
		res.AddAll(residual, builds)
		return res
	}
	if a.Kind == "GROUP" {
		if len(residual) == 0 {
			return res
		}
		group, ok := a.ttp.FindGroup(a.GroupID)
		if !ok || group == nil {
			return res
		}
		for _, b := range builds {
			res.Update(group.satisfyGroup(residual, b))
		}
		return res
	}
	for _, act := range residual {
		if !a.matchesAction(act) {
			continue
		}
		consumed := residual.WithRemoved(act)
		next := make([]actionBuild, 0, len(builds))
		for _, b := range builds {
			next = append(next, actionBuild{
				actions: b.actions.WithAppended(act),
				binding: appendTrail(b.binding, actionBind{leaf: a}),
				tmpl:    b.tmpl,
			})
		}
		res.AddAll(consumed, next)
		return res
	}
	return res
}

// applyAction replays this bound leaf: move the first fitting action from
// in to out.
func (a *Action) applyAction(in *rule.ActionList, out *rule.ActionList, outBind *[]actionBind) error {
	for _, act := range *in {
		if !a.matchesAction(act) {
			continue
		}
		*in = in.WithRemoved(act)
		*out = out.WithAppended(act)
		*outBind = append(*outBind, actionBind{leaf: a})
		return nil
	}
	return serrors.New("rule is missing a bound action", "action", a.String())
}

func (a *Action) String() string {
	switch a.Kind {
	case "SET_FIELD":
		return a.Field + "=" + a.ValueText
	case "GROUP":
		return a.Kind + "=" + a.GroupID
	case "OUTPUT":
		if a.Port != nil {
			if name, ok := openflow.PortName(a.Port.Uint64()); ok {
				return a.Kind + "=" + name
			}
			return a.Kind + "=" + a.Port.String()
		}
		if a.PortText != "" {
			return a.Kind + "=" + a.PortText
		}
	}
	return a.Kind
}

// ActionList is a list of template actions and nested lists under a meta
// type.
type ActionList struct {
	object
	Meta    MetaType
	members []actionMember
}

func newActionList(p *Pattern, n *jsontree.Node, parent *object, meta MetaType) *ActionList {
	l := &ActionList{object: makeObject(p, n, parent, "action_list")}
	l.loadCommon()
	var members []listMember
	l.Meta, members = listMembers(n, meta)
	for _, mem := range members {
		if mem.meta != "" {
			l.members = append(l.members,
				newActionList(p, mem.node, &l.object, mem.meta))
		} else {
			l.members = append(l.members, newAction(p, mem.node, &l.object))
		}
	}
	return l
}

// emptyActionList makes the stand-in list used when a pattern omits one.
func emptyActionList(p *Pattern, parent *object, what string) *ActionList {
	l := &ActionList{object: makeObject(p, nil, parent, what), Meta: MetaAll}
	return l
}

// Leaves returns the list's actions with nested lists flattened out.
func (l *ActionList) Leaves() []*Action {
	var out []*Action
	for _, m := range l.members {
		switch v := m.(type) {
		case *Action:
			out = append(out, v)
		case *ActionList:
			out = append(out, v.Leaves()...)
		}
	}
	return out
}

func (l *ActionList) satisfy(residual rule.ActionList, builds []actionBuild) *Remaining[rule.ActionList, actionBuild] {
	return satisfyList(l.Meta, l.members, seedRemaining(residual, builds...), nil)
}

// run adds the final filter: only residuals with every action consumed.
func (l *ActionList) run(residual rule.ActionList, builds []actionBuild, final bool) *Remaining[rule.ActionList, actionBuild] {
	out := l.satisfy(residual, builds)
	if final {
		out = out.Filter(func(r rule.ActionList) bool { return len(r) == 0 })
	}
	return out
}

// applyList replays a bound action list: each bound slot consumes its
// action from in into out, in binding order.
func applyActionList(in *rule.ActionList, out *rule.ActionList, outBind *[]actionBind,
	model rule.ActionList, trail []actionBind) error {

	if len(model) != len(trail) {
		return serrors.New("binding does not cover the bound actions",
			"actions", len(model), "bound", len(trail))
	}
	for i, slot := range trail {
		switch {
		case slot.leaf != nil:
			if err := slot.leaf.applyAction(in, out, outBind); err != nil {
				return err
			}
		case slot.group != nil:
			if err := slot.group.applyGroup(in, out, outBind, model[i]); err != nil {
				return err
			}
		default:
			return serrors.New("empty binding slot")
		}
	}
	return nil
}

func (l *ActionList) String() string {
	parts := make([]string, 0, len(l.members))
	for _, m := range l.members {
		switch v := m.(type) {
		case *Action:
			parts = append(parts, v.String())
		case *ActionList:
			parts = append(parts, v.String())
		}
	}
	return string(l.Meta) + "(" + strings.Join(parts, ",") + ")"
}
