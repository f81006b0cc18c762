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
	"strconv"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
)

// Metadata is the NDM_metadata section naming and versioning a pattern.
type Metadata struct {
	object

	Authority string
	Type      string
	Version   string
	OFVersion string
	// Version split into numeric parts, zero when the version does not
	// follow major.minor.edit.
	Major, Minor, Edit int
}

func newMetadata(p *Pattern, n *jsontree.Node, parent *object) *Metadata {
	m := &Metadata{object: makeObject(p, n, parent, "NDM_metadata")}
	m.loadCommon()
	m.Authority, _ = m.readString("authority", false)
	m.Type, _ = m.readString("type", false)
	m.Name, _ = m.readString("name", false)
	m.Version, _ = m.readString("version", false)
	m.OFVersion, _ = m.readString("OF_protocol_version", false)

	if m.Type != "TTPv1" {
		m.issuef(Warning, "Unexpected type %s was expecting TTPv1", m.Type)
	}
	if !m.has("doc") {
		m.issuef(Note, "It is recommended to include a doc string"+
			" describing a TTP in NDM_metadata")
	}

	parts := strings.Split(m.Version, ".")
	ok := len(parts) >= 3
	if ok {
		var err error
		if m.Major, err = strconv.Atoi(parts[0]); err != nil {
			ok = false
		} else if m.Minor, err = strconv.Atoi(parts[1]); err != nil {
			ok = false
		} else if m.Edit, err = strconv.Atoi(parts[2]); err != nil {
			ok = false
		}
	}
	if !ok {
		m.Major, m.Minor, m.Edit = 0, 0, 0
		m.issuef(Warning, "TTP version should be in the format"+
			" <major>.<minor>.<edit>")
	}
	return m
}

// ShortDescription returns a short human readable description.
func (m *Metadata) ShortDescription() string {
	return m.Name + " v" + m.Version
}

// Identifier returns the authority/type/name/version tuple which uniquely
// identifies a pattern.
func (m *Metadata) Identifier() string {
	return m.Authority + "/" + m.Type + "/" + m.Name + "/" + m.Version
}

func (m *Metadata) String() string {
	return m.Identifier() + " for OFv" + m.OFVersion + ":\n" + m.Doc
}

// Security is the optional security considerations section.
type Security struct {
	object

	Sig string
}

func newSecurity(p *Pattern, n *jsontree.Node, parent *object) *Security {
	s := &Security{object: makeObject(p, n, parent, "security")}
	s.loadCommon()
	if !s.has("doc") {
		s.issuef(Error, "The security section should contain a doc string")
	}
	if sn, ok := s.get("sig"); ok {
		s.Sig, _ = scalarString(sn)
	}
	return s
}

func (s *Security) String() string {
	out := "Security considerations: " + s.Doc
	if s.Sig != "" {
		out += "\n Signed: " + s.Sig
	}
	return out
}

// Feature names an OpenFlow protocol feature the switch must support to
// implement the pattern.
type Feature struct {
	object

	Feature string
}

func newFeature(p *Pattern, n *jsontree.Node, parent *object) *Feature {
	f := &Feature{object: makeObject(p, n, parent, "feature")}
	f.loadCommon()
	f.Feature, _ = f.readStringStripped("feature", false)
	return f
}

func (f *Feature) String() string {
	return f.Feature + " [" + f.Doc + "]"
}

// FeatureList holds the required protocol features. Meta groupings are
// allowed but only carry documentation value, the features flatten out.
type FeatureList struct {
	object

	features []*Feature
}

func newFeatureList(p *Pattern, n *jsontree.Node, parent *object) *FeatureList {
	fl := &FeatureList{object: makeObject(p, n, parent, "features")}
	fl.collect(n, MetaAll)
	return fl
}

func (fl *FeatureList) collect(n *jsontree.Node, meta MetaType) {
	_, members := listMembers(n, meta)
	for _, m := range members {
		if m.meta != "" {
			fl.collect(m.node, m.meta)
			continue
		}
		fl.features = append(fl.features, newFeature(fl.ttp, m.node, &fl.object))
	}
}

// Features returns the required features in declaration order.
func (fl *FeatureList) Features() []*Feature {
	return fl.features
}

func (fl *FeatureList) String() string {
	strs := make([]string, 0, len(fl.features))
	for _, f := range fl.features {
		strs = append(strs, f.String())
	}
	return "all(" + strings.Join(strs, ",") + ")"
}
