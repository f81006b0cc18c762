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

// Package ttp loads Table Type Pattern documents and checks OpenFlow rules
// against them.
//
// Loading is permissive. Deviations from the pattern format are recorded
// as issues against the source text and the offending member degrades to
// a usable default, so that one malformed section does not hide findings
// in the rest of the document. Only findings of Critical severity mean
// the pattern cannot be used.
package ttp

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
	"github.com/wandsdn/ttp-tools/pkg/log"
	"github.com/wandsdn/ttp-tools/pkg/openflow"
	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// Options configure pattern loading.
type Options struct {
	// AllowMath permits arithmetic expressions in range bounds. Each use
	// is still reported with its evaluated replacement, published patterns
	// should carry plain numbers.
	AllowMath bool
	// Overrides pin named values to concrete numbers, e.g. resolving
	// "<local_MAC>" for a particular deployment. Nil selects
	// DefaultOverrides(), an empty map disables overrides entirely.
	Overrides map[string]openflow.Uint128
	// Logger receives findings as they are recorded. Defaults to the root
	// logger, use log.Discard() to load silently.
	Logger log.Logger
}

// Pattern is a loaded Table Type Pattern document: the pipeline of flow
// tables, group entry types and supporting sections describing what rules
// a switch accepts.
type Pattern struct {
	object

	Metadata *Metadata
	Security *Security
	Features *FeatureList

	identifiers *Identifiers

	tablesByName   map[string]*Table
	tablesByNumber map[int]*Table
	groupsByName   map[string]*Group
	groupOrder     []string

	optTags  map[string][]string
	optOrder []string

	issues *Issues
	source []byte
	path   string

	allowMath bool
	overrides map[string]openflow.Uint128
	log       log.Logger
}

// LoadFile reads and parses the pattern at path. The document may be
// UTF-8, UTF-16 or UTF-32 encoded. The returned pattern is non-nil even
// on error so recorded findings stay available.
func LoadFile(path string, opts Options) (*Pattern, error) {
	p := newPattern(opts, path)
	p.log.Info("Loading TTP from the file", "file", path)
	raw, err := os.ReadFile(path)
	if err != nil {
		p.issuef(Critical, "Unable to open JSON file")
		return p, serrors.Wrap("reading pattern", err, "file", path)
	}
	return p, p.load(raw)
}

// Load parses a pattern document from raw bytes. See LoadFile.
func Load(raw []byte, opts Options) (*Pattern, error) {
	p := newPattern(opts, "")
	p.log.Info("Loading TTP from the string")
	return p, p.load(raw)
}

func newPattern(opts Options, path string) *Pattern {
	logger := opts.Logger
	if logger == nil {
		logger = log.Root()
	}
	if opts.Overrides == nil {
		opts.Overrides = DefaultOverrides()
	}
	p := &Pattern{
		tablesByName:   make(map[string]*Table),
		tablesByNumber: make(map[int]*Table),
		groupsByName:   make(map[string]*Group),
		optTags:        make(map[string][]string),
		issues:         &Issues{},
		path:           path,
		allowMath:      opts.AllowMath,
		overrides:      opts.Overrides,
		log:            logger,
	}
	p.object = makeObject(p, nil, nil, "ttp")
	return p
}

func (p *Pattern) load(raw []byte) error {
	node, src, err := jsontree.DecodeDetect(raw)
	p.source = src
	if err != nil {
		start, end := -1, -1
		if off, ok := jsontree.SyntaxOffset(err); ok {
			start, end = off, off+1
		}
		p.report(Issue{
			Severity: Critical,
			Msg:      "Unable to open JSON file",
			Path:     p.path,
			Start:    start,
			End:      end,
		})
		return serrors.Wrap("parsing pattern", err)
	}
	p.object = makeObject(p, node, nil, "ttp")
	p.loadCommon()

	if mn, ok := p.get("NDM_metadata"); ok {
		p.Metadata = newMetadata(p, mn, &p.object)
		p.log.Info("Processing the TTP", "id", p.Metadata.Identifier())
	} else {
		p.issuef(Critical, "Expected a unique ID in the TTP, missing"+
			" the NDM_metadata field")
	}

	if sn, ok := p.get("security"); ok {
		p.Security = newSecurity(p, sn, &p.object)
		p.log.Info("Successfully loaded the security from the TTP")
	}

	if in, ok := p.get("identifiers"); ok {
		p.identifiers = newIdentifiers(p, in, &p.object)
		p.log.Info("Successfully loaded identifiers",
			"variables", len(p.identifiers.variables),
			"identifiers", len(p.identifiers.idents))
	} else {
		p.identifiers = newIdentifiers(p, nil, &p.object)
	}

	if fn, ok := p.get("features"); ok {
		p.Features = newFeatureList(p, fn, &p.object)
	} else {
		p.Features = newFeatureList(p, nil, &p.object)
	}

	p.loadGroups()
	p.loadTables()
	p.linkTables()

	p.log.Info("Completed loading the TTP")
	return nil
}

// loadGroups builds the group entry types. Names register first so group
// references resolve regardless of declaration order.
func (p *Pattern) loadGroups() {
	gn, ok := p.get("group_entry_types")
	if !ok {
		return
	}
	groups := p.flattenMetaGroups(expectList(gn))
	for _, g := range groups {
		obj, _ := g.Object()
		nameNode, _ := obj.Get("name")
		name, _ := scalarString(nameNode)
		if _, seen := p.groupsByName[name]; !seen {
			p.groupOrder = append(p.groupOrder, name)
		}
		p.groupsByName[name] = nil
	}
	for _, g := range groups {
		group := newGroup(p, g, &p.object)
		p.groupsByName[group.Name] = group
	}
}

func (p *Pattern) flattenMetaGroups(nodes []*jsontree.Node) []*jsontree.Node {
	var flat []*jsontree.Node
	for _, n := range nodes {
		obj, isObj := n.Object()
		if isObj {
			if _, named := obj.Get("name"); named {
				flat = append(flat, n)
				continue
			}
		}
		if !isObj {
			member := makeObject(p, n, &p.object, "group")
			member.issuef(Error, "Ignoring group without name: %s",
				member.sourceText())
			continue
		}
		for _, key := range obj.Keys() {
			if !isMetaName(key) {
				member := makeObject(p, n, &p.object, "group")
				member.issuef(Error, "Ignoring group without name: %s",
					member.sourceText())
				break
			}
			value, _ := obj.Get(key)
			flat = append(flat, p.flattenMetaGroups(expectList(value))...)
		}
	}
	return flat
}

// loadTables builds the pipeline from the table_map and flow_tables
// sections. The table map assigns each named flow table its number, either
// as a name to number object or as a list of {name, number} entries.
func (p *Pattern) loadTables() {
	var flowTables []*jsontree.Node
	if ftn, ok := p.get("flow_tables"); ok {
		if arr, isList := ftn.Array(); isList {
			flowTables = arr
		} else {
			p.issuef(Error, "Flow_tables is expected to be a list.")
			flowTables = expectList(ftn)
		}
	} else {
		p.issuef(Error, "Missing flow_tables!")
	}
	tablesLen := len(flowTables)

	// linkTable finds the named flow_tables entry and registers it under
	// number. A missing name is its own finding and still counts as a
	// parsed map entry; an entry that cannot be inspected aborts the scan
	// and reports as a tablemap parse failure.
	linkTable := func(name string, number int) bool {
		for _, tn := range flowTables {
			obj, isObj := tn.Object()
			if !isObj {
				return false
			}
			nameNode, hasName := obj.Get("name")
			if !hasName {
				return false
			}
			if tname, isStr := nameNode.Str(); isStr && tname == name {
				t := newTable(p, tn, &p.object, number)
				p.tablesByNumber[number] = t
				p.tablesByName[name] = t
				return true
			}
		}
		p.issuef(Critical, "Unable to find table %s in flow_tables.", name)
		return true
	}

	mapLen := 0
	tmn, ok := p.get("table_map")
	if !ok {
		p.issuef(Error, "Missing table_map!")
		tmn = nil
	}
	if obj, isObj := tableMapObject(tmn); isObj {
		for _, name := range obj.Keys() {
			vn, _ := obj.Get(name)
			number, numOK := tableMapNumber(vn)
			if !numOK || !linkTable(name, number) {
				p.issuef(Critical, "Unable to parse tablemap '%s': %s.",
					name, nodeString(vn))
				continue
			}
			mapLen++
		}
	} else if arr, isList := tableMapList(tmn); isList {
		for _, mn := range arr {
			name, number, entryOK := tableMapEntry(mn)
			if !entryOK || !linkTable(name, number) {
				member := makeObject(p, mn, &p.object, "table_map")
				member.issuef(Critical, "Unable to parse tablemap item %s",
					member.sourceText())
				continue
			}
			mapLen++
		}
	} else if tmn != nil {
		p.issuef(Critical, "Unable to parse the tablemap, format unknown.")
	}

	if mapLen != tablesLen {
		p.issuef(Critical, "Mismatch between number of tables in the"+
			" table_map (%d) and flow_tables (%d).", mapLen, tablesLen)
	}
}

func tableMapObject(n *jsontree.Node) (*jsontree.Object, bool) {
	if n == nil {
		return nil, false
	}
	return n.Object()
}

func tableMapList(n *jsontree.Node) ([]*jsontree.Node, bool) {
	if n == nil {
		return nil, false
	}
	return n.Array()
}

func tableMapNumber(n *jsontree.Node) (int, bool) {
	if n == nil {
		return 0, false
	}
	s, ok := scalarString(n)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}

func tableMapEntry(n *jsontree.Node) (string, int, bool) {
	obj, isObj := n.Object()
	if !isObj {
		return "", 0, false
	}
	nameNode, ok := obj.Get("name")
	if !ok {
		return "", 0, false
	}
	name, ok := scalarString(nameNode)
	if !ok {
		return "", 0, false
	}
	numNode, hasNumber := obj.Get("number")
	if !hasNumber {
		if numNode, ok = obj.Get("num"); !ok {
			return "", 0, false
		}
	}
	number, ok := tableMapNumber(numNode)
	return name, number, ok
}

// linkTables resolves the GOTO targets collected while flows parsed.
// Links to unknown tables and links that do not increase the table number
// are dropped with a finding against each declaring flow.
func (p *Pattern) linkTables() {
	for _, this := range p.Tables() {
		for _, name := range this.gotoOrder {
			flows := this.gotoFlows[name]
			that, ok := p.FindTable(name)
			if !ok {
				for _, flow := range flows {
					flow.issuef(Critical, "Cannot find the table %s"+
						" referenced in GOTO in %s", name, this.Name)
				}
				continue
			}
			if this.Number >= that.Number {
				for _, flow := range flows {
					flow.issuef(Error, "A GOTO in %s(%d) goes to %s(%d)"+
						" which does not increase the table number. We have"+
						" removed this!", this.Name, this.Number,
						that.Name, that.Number)
				}
				continue
			}
			this.linkTo(that, flows)
			that.linkFrom(this)
		}
	}
}

// linkGoto records a GOTO_TABLE reference for the second link pass once
// all tables have loaded.
func (p *Pattern) linkGoto(in *Instruction, flow *Flow) {
	if flow == nil {
		return
	}
	flow.table.linkToName(in.Table, flow)
}

func (p *Pattern) report(i Issue) {
	p.issues.add(i)
	logIssue(p.log, i)
}

func (p *Pattern) addOptTagged(tag, path string) {
	if _, ok := p.optTags[tag]; !ok {
		p.optOrder = append(p.optOrder, tag)
	}
	p.optTags[tag] = append(p.optTags[tag], path)
}

// snippet returns the source text between two byte offsets, for quoting
// members in findings.
func (p *Pattern) snippet(start, end int) string {
	if start < 0 || end < start || end > len(p.source) {
		return ""
	}
	return string(p.source[start:end])
}

func (p *Pattern) lookupVariable(name string) *Variable {
	return p.identifiers.variable(name)
}

// Issues returns the findings recorded while loading.
func (p *Pattern) Issues() *Issues {
	return p.issues
}

// Source returns the decoded UTF-8 text of the document. Issue offsets
// index into it.
func (p *Pattern) Source() []byte {
	return p.source
}

// Path returns the file the pattern was loaded from, or "" when it was
// loaded from bytes.
func (p *Pattern) Path() string {
	return p.path
}

// Identifier returns the unique pattern identifier, or "" when the
// NDM_metadata section is missing.
func (p *Pattern) Identifier() string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata.Identifier()
}

// Identifiers returns the declared variables and extension identifiers.
func (p *Pattern) Identifiers() *Identifiers {
	return p.identifiers
}

// Tables returns the pattern's tables ordered by table number.
func (p *Pattern) Tables() []*Table {
	out := make([]*Table, 0, len(p.tablesByName))
	for _, t := range p.tablesByName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FindTable retrieves a table by name, falling back to the table number
// for numeric references.
func (p *Pattern) FindTable(name string) (*Table, bool) {
	if t, ok := p.tablesByName[name]; ok {
		return t, true
	}
	if num, err := strconv.Atoi(name); err == nil {
		t, ok := p.tablesByNumber[num]
		return t, ok
	}
	return nil, false
}

// TableByNumber retrieves a table by its number in the table map.
func (p *Pattern) TableByNumber(num int) (*Table, bool) {
	t, ok := p.tablesByNumber[num]
	return t, ok
}

// FindGroup retrieves a group entry type by name. One enclosing pair of
// angle brackets is stripped, references may be written "<name>". During
// loading a declared but not yet built group returns (nil, true).
func (p *Pattern) FindGroup(name string) (*Group, bool) {
	if strings.HasPrefix(name, "<") && strings.HasSuffix(name, ">") &&
		len(name) >= 2 {
		name = name[1 : len(name)-1]
	}
	g, ok := p.groupsByName[name]
	return g, ok
}

// Groups returns the group entry types in declaration order.
func (p *Pattern) Groups() []*Group {
	out := make([]*Group, 0, len(p.groupOrder))
	for _, name := range p.groupOrder {
		if g := p.groupsByName[name]; g != nil {
			out = append(out, g)
		}
	}
	return out
}

func (p *Pattern) groupNames() []string {
	return p.groupOrder
}

// OptTags returns each opt_tag label with the paths of the members
// declaring it. The returned map is shared, treat it as read only.
func (p *Pattern) OptTags() map[string][]string {
	return p.optTags
}

// Overrides returns the value overrides the pattern was loaded with.
func (p *Pattern) Overrides() map[string]openflow.Uint128 {
	return p.overrides
}

// Logger returns the logger the pattern reports findings to.
func (p *Pattern) Logger() log.Logger {
	return p.log
}
