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
	"bytes"
	"encoding/json"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// The rule set document format:
//
//	{
//	  "rules": [
//	    {
//	      "priority": 1000,
//	      "match": [{"field": "IPV4_SRC", "value": "10.0.0.0", "mask": "0xffffff00"}],
//	      "instructions": {
//	        "goto_table": 1,
//	        "apply_actions": [{"action": "OUTPUT", "port": "CONTROLLER"}]
//	      }
//	    }
//	  ],
//	  "groups": [{"name": "flood", "type": "ALL", "buckets": [[...]]}]
//	}
//
// Values accept JSON numbers as well as strings holding hexadecimal,
// dotted IPv4, IPv6, MAC-48 or named protocol constant forms. GROUP
// actions reference a group by name, or embed the group object inline.

type jsonFile struct {
	Rules  []jsonRule  `json:"rules"`
	Groups []jsonGroup `json:"groups,omitempty"`
}

type jsonRule struct {
	Priority     int               `json:"priority"`
	Cookie       *uint64           `json:"cookie,omitempty"`
	Table        *int              `json:"table,omitempty"`
	Match        []jsonField       `json:"match,omitempty"`
	Instructions *jsonInstructions `json:"instructions,omitempty"`
}

type jsonField struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
	Mask  json.RawMessage `json:"mask,omitempty"`
}

type jsonInstructions struct {
	GotoTable    *int         `json:"goto_table,omitempty"`
	ClearActions bool         `json:"clear_actions,omitempty"`
	Apply        []jsonAction `json:"apply_actions,omitempty"`
	Write        []jsonAction `json:"write_actions,omitempty"`
	Meter        *uint32      `json:"meter,omitempty"`
}

type jsonAction struct {
	Action    string          `json:"action"`
	Field     string          `json:"field,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Port      json.RawMessage `json:"port,omitempty"`
	Ethertype json.RawMessage `json:"ethertype,omitempty"`
	QueueID   json.RawMessage `json:"queue_id,omitempty"`
	TTL       json.RawMessage `json:"ttl,omitempty"`
	Group     json.RawMessage `json:"group,omitempty"`
}

type jsonGroup struct {
	Name    string         `json:"name,omitempty"`
	Type    string         `json:"type"`
	Buckets [][]jsonAction `json:"buckets"`
}

// ParseRules decodes a rule set document.
func ParseRules(raw []byte) ([]Rule, error) {
	var file jsonFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, serrors.Wrap("decoding rule set", err)
	}
	groups := map[string]*Group{}
	for _, jg := range file.Groups {
		if jg.Name == "" {
			return nil, serrors.New("group without a name", "type", jg.Type)
		}
		if _, ok := groups[jg.Name]; ok {
			return nil, serrors.New("duplicate group name", "name", jg.Name)
		}
		group, err := parseGroup(jg, groups)
		if err != nil {
			return nil, serrors.Wrap("parsing group", err, "name", jg.Name)
		}
		groups[jg.Name] = group
	}
	rules := make([]Rule, 0, len(file.Rules))
	for i, jr := range file.Rules {
		r, err := parseRule(jr, groups)
		if err != nil {
			return nil, serrors.Wrap("parsing rule", err, "index", i)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseRule(jr jsonRule, groups map[string]*Group) (Rule, error) {
	r := Rule{Priority: jr.Priority, Table: jr.Table}
	if jr.Cookie != nil {
		r.Cookie = *jr.Cookie
	}
	for _, jf := range jr.Match {
		if jf.Field == "" {
			return Rule{}, serrors.New("match term without a field")
		}
		value, err := parseValue(jf.Value)
		if err != nil {
			return Rule{}, serrors.Wrap("match value", err, "field", jf.Field)
		}
		f := Field{Name: jf.Field, Value: value}
		if len(jf.Mask) > 0 {
			mask, err := parseValue(jf.Mask)
			if err != nil {
				return Rule{}, serrors.Wrap("match mask", err, "field", jf.Field)
			}
			f.Mask, f.HasMask = mask, true
		}
		r.Match = r.Match.WithField(f)
	}
	if jr.Instructions == nil {
		return r, nil
	}
	r.Instructions.GotoTable = jr.Instructions.GotoTable
	r.Instructions.ClearActions = jr.Instructions.ClearActions
	r.Instructions.Meter = jr.Instructions.Meter
	var err error
	if r.Instructions.Apply, err = parseActions(jr.Instructions.Apply, groups); err != nil {
		return Rule{}, serrors.Wrap("apply actions", err)
	}
	if r.Instructions.Write, err = parseActions(jr.Instructions.Write, groups); err != nil {
		return Rule{}, serrors.Wrap("write actions", err)
	}
	return r, nil
}

func parseActions(jas []jsonAction, groups map[string]*Group) (ActionList, error) {
	var list ActionList
	for _, ja := range jas {
		a, err := parseAction(ja, groups)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, nil
}

func parseAction(ja jsonAction, groups map[string]*Group) (Action, error) {
	if ja.Action == "" {
		return Action{}, serrors.New("action without a kind")
	}
	a := Action{Kind: ja.Action, Field: ja.Field}
	if ja.Action == "SET_FIELD" && ja.Field == "" {
		return Action{}, serrors.New("SET_FIELD without a field")
	}
	if len(ja.Group) > 0 {
		group, err := parseGroupRef(ja.Group, groups)
		if err != nil {
			return Action{}, err
		}
		a.Group = group
	}
	if a.Kind == "GROUP" && a.Group == nil {
		return Action{}, serrors.New("GROUP without a group")
	}
	arg := firstRaw(ja.Value, ja.Port, ja.Ethertype, ja.QueueID, ja.TTL)
	if len(arg) == 0 {
		return a, nil
	}
	if ja.Action == "OUTPUT" && len(arg) > 0 && arg[0] == '"' {
		var name string
		if err := json.Unmarshal(arg, &name); err == nil {
			if port, ok := openflow.PortValue(name); ok {
				a.Value, a.HasValue = openflow.U64(port), true
				return a, nil
			}
		}
	}
	value, err := parseValue(arg)
	if err != nil {
		return Action{}, serrors.Wrap("action argument", err, "action", ja.Action)
	}
	a.Value, a.HasValue = value, true
	return a, nil
}

func firstRaw(raws ...json.RawMessage) json.RawMessage {
	for _, raw := range raws {
		if len(raw) > 0 {
			return raw
		}
	}
	return nil
}

func parseGroupRef(raw json.RawMessage, groups map[string]*Group) (*Group, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		group, ok := groups[name]
		if !ok {
			return nil, serrors.New("unknown group", "name", name)
		}
		return group, nil
	}
	var jg jsonGroup
	if err := json.Unmarshal(raw, &jg); err != nil {
		return nil, serrors.Wrap("decoding inline group", err)
	}
	return parseGroup(jg, groups)
}

func parseGroup(jg jsonGroup, groups map[string]*Group) (*Group, error) {
	if jg.Type == "" {
		return nil, serrors.New("group without a type")
	}
	group := &Group{Type: jg.Type}
	for _, jb := range jg.Buckets {
		bucket, err := parseActions(jb, groups)
		if err != nil {
			return nil, err
		}
		group.Buckets = append(group.Buckets, bucket)
	}
	return group, nil
}

// parseValue accepts a JSON number, or a string holding any of the
// textual value forms.
func parseValue(raw json.RawMessage) (openflow.Uint128, error) {
	if len(raw) == 0 {
		return openflow.Uint128{}, serrors.New("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return openflow.Uint128{}, err
		}
		return openflow.ParseValue(s)
	}
	var v openflow.Uint128
	if err := v.UnmarshalJSON(raw); err != nil {
		return openflow.Uint128{}, err
	}
	return v, nil
}

// MarshalRules encodes rules into the document format. Groups referenced
// by built rules are embedded inline.
func MarshalRules(rules []Rule) ([]byte, error) {
	file := jsonFile{Rules: make([]jsonRule, 0, len(rules))}
	for _, r := range rules {
		file.Rules = append(file.Rules, marshalRule(r))
	}
	return json.MarshalIndent(file, "", "    ")
}

func marshalRule(r Rule) jsonRule {
	jr := jsonRule{Priority: r.Priority, Table: r.Table}
	if r.Cookie != 0 {
		cookie := r.Cookie
		jr.Cookie = &cookie
	}
	for _, f := range r.Match.Fields() {
		jf := jsonField{Field: f.Name, Value: marshalValue(f.Value)}
		if f.HasMask {
			jf.Mask = marshalValue(f.Mask)
		}
		jr.Match = append(jr.Match, jf)
	}
	in := r.Instructions
	if in.Empty() && in.Meter == nil {
		return jr
	}
	jr.Instructions = &jsonInstructions{
		GotoTable:    in.GotoTable,
		ClearActions: in.ClearActions,
		Meter:        in.Meter,
		Apply:        marshalActions(in.Apply),
		Write:        marshalActions(in.Write),
	}
	return jr
}

func marshalActions(list ActionList) []jsonAction {
	if len(list) == 0 {
		return nil
	}
	out := make([]jsonAction, 0, len(list))
	for _, a := range list {
		out = append(out, marshalAction(a))
	}
	return out
}

func marshalAction(a Action) jsonAction {
	ja := jsonAction{Action: a.Kind, Field: a.Field}
	if a.HasValue {
		arg := marshalValue(a.Value)
		switch a.Kind {
		case "OUTPUT":
			ja.Port = arg
		case "PUSH_VLAN", "PUSH_MPLS", "PUSH_PBB":
			ja.Ethertype = arg
		case "SET_QUEUE":
			ja.QueueID = arg
		case "SET_NW_TTL", "SET_MPLS_TTL":
			ja.TTL = arg
		default:
			ja.Value = arg
		}
	}
	if a.Group != nil {
		jg := jsonGroup{Type: a.Group.Type}
		for _, bucket := range a.Group.Buckets {
			jg.Buckets = append(jg.Buckets, marshalActions(bucket))
		}
		ja.Group, _ = json.Marshal(jg)
	}
	return ja
}

func marshalValue(v openflow.Uint128) json.RawMessage {
	raw, _ := v.MarshalJSON()
	return raw
}
