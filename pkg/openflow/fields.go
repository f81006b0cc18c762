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

// Package openflow holds OpenFlow 1.3.5 protocol definitions needed to
// interpret Table Type Patterns: the basic class OXM match fields, named
// protocol constants and reserved port numbers.
package openflow

import (
	"sort"
)

// FieldInfo describes an OXM match field of the OpenFlow basic class.
type FieldInfo struct {
	// ID is the field number within the basic class.
	ID int
	// Bits is the payload width of the field in bits.
	Bits int
}

// The basic class match fields of OpenFlow 1.3.5, keyed by the name used
// in patterns, without the OXM_OF_ prefix.
var oxmFields = map[string]FieldInfo{
	"IN_PORT":        {0, 32},
	"IN_PHY_PORT":    {1, 32},
	"METADATA":       {2, 64},
	"ETH_DST":        {3, 48},
	"ETH_SRC":        {4, 48},
	"ETH_TYPE":       {5, 16},
	"VLAN_VID":       {6, 13},
	"VLAN_PCP":       {7, 3},
	"IP_DSCP":        {8, 6},
	"IP_ECN":         {9, 2},
	"IP_PROTO":       {10, 8},
	"IPV4_SRC":       {11, 32},
	"IPV4_DST":       {12, 32},
	"TCP_SRC":        {13, 16},
	"TCP_DST":        {14, 16},
	"UDP_SRC":        {15, 16},
	"UDP_DST":        {16, 16},
	"SCTP_SRC":       {17, 16},
	"SCTP_DST":       {18, 16},
	"ICMPV4_TYPE":    {19, 8},
	"ICMPV4_CODE":    {20, 8},
	"ARP_OP":         {21, 16},
	"ARP_SPA":        {22, 32},
	"ARP_TPA":        {23, 32},
	"ARP_SHA":        {24, 48},
	"ARP_THA":        {25, 48},
	"IPV6_SRC":       {26, 128},
	"IPV6_DST":       {27, 128},
	"IPV6_FLABEL":    {28, 20},
	"ICMPV6_TYPE":    {29, 8},
	"ICMPV6_CODE":    {30, 8},
	"IPV6_ND_TARGET": {31, 128},
	"IPV6_ND_SLL":    {32, 48},
	"IPV6_ND_TLL":    {33, 48},
	"MPLS_LABEL":     {34, 20},
	"MPLS_TC":        {35, 3},
	"MPLS_BOS":       {36, 1},
	"PBB_ISID":       {37, 24},
	"TUNNEL_ID":      {38, 64},
	"IPV6_EXTHDR":    {39, 9},
}

// FieldByName returns the OXM description of a basic class field.
func FieldByName(name string) (FieldInfo, bool) {
	info, ok := oxmFields[name]
	return info, ok
}

// FieldBits returns the payload width of a basic class field in bits.
func FieldBits(name string) (int, bool) {
	info, ok := oxmFields[name]
	return info.Bits, ok
}

// WidthMask returns the all-ones value of the field's width.
func WidthMask(name string) (Uint128, bool) {
	info, ok := oxmFields[name]
	if !ok {
		return Uint128{}, false
	}
	return Mask(info.Bits), true
}

// FieldBit returns a single bit identifying the field, suitable for set
// arithmetic over collections of field names. All basic class fields fit
// in a uint64.
func FieldBit(name string) (uint64, bool) {
	info, ok := oxmFields[name]
	if !ok {
		return 0, false
	}
	return 1 << uint(info.ID), true
}

// FieldNames returns the names of all basic class fields, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(oxmFields))
	for name := range oxmFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
