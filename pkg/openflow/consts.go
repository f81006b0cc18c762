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

package openflow

// VLAN_VID values. The present bit is set on every frame carrying a VLAN
// tag, so VID matches in patterns are interpreted relative to it.
const (
	VIDNone    uint64 = 0x0000
	VIDPresent uint64 = 0x1000
)

// Reserved port numbers of ofp_port_no.
const (
	PortMax        uint64 = 0xffffff00
	PortInPort     uint64 = 0xfffffff8
	PortTable      uint64 = 0xfffffff9
	PortNormal     uint64 = 0xfffffffa
	PortFlood      uint64 = 0xfffffffb
	PortAll        uint64 = 0xfffffffc
	PortController uint64 = 0xfffffffd
	PortLocal      uint64 = 0xfffffffe
	PortAny        uint64 = 0xffffffff
)

// Reserved group numbers of ofp_group.
const (
	GroupMax uint64 = 0xffffff00
	GroupAll uint64 = 0xfffffffc
	GroupAny uint64 = 0xffffffff
)

// namedConstants are the protocol constants accepted where patterns spell
// a value by its OpenFlow name.
var namedConstants = map[string]uint64{
	"OFPVID_NONE":      VIDNone,
	"OFPVID_PRESENT":   VIDPresent,
	"OFPP_MAX":         PortMax,
	"OFPP_IN_PORT":     PortInPort,
	"OFPP_TABLE":       PortTable,
	"OFPP_NORMAL":      PortNormal,
	"OFPP_FLOOD":       PortFlood,
	"OFPP_ALL":         PortAll,
	"OFPP_CONTROLLER":  PortController,
	"OFPP_LOCAL":       PortLocal,
	"OFPP_ANY":         PortAny,
	"OFPG_MAX":         GroupMax,
	"OFPG_ALL":         GroupAll,
	"OFPG_ANY":         GroupAny,
	"OFPCML_MAX":       0xffe5,
	"OFPCML_NO_BUFFER": 0xffff,
	"OFP_NO_BUFFER":    0xffffffff,
}

// ConstantValue resolves a named protocol constant such as OFPVID_PRESENT
// or OFPP_CONTROLLER.
func ConstantValue(name string) (uint64, bool) {
	v, ok := namedConstants[name]
	return v, ok
}

// outputPorts are the reserved port names accepted by OUTPUT actions,
// without the OFPP_ prefix.
var outputPorts = map[string]uint64{
	"IN_PORT":    PortInPort,
	"TABLE":      PortTable,
	"NORMAL":     PortNormal,
	"FLOOD":      PortFlood,
	"ALL":        PortAll,
	"CONTROLLER": PortController,
	"LOCAL":      PortLocal,
}

// PortValue resolves a reserved port name as used by OUTPUT actions.
func PortValue(name string) (uint64, bool) {
	v, ok := outputPorts[name]
	return v, ok
}

// PortName is the reverse of PortValue, for rendering reserved ports.
func PortName(v uint64) (string, bool) {
	for name, port := range outputPorts {
		if port == v {
			return name, true
		}
	}
	return "", false
}
