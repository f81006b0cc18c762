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

package conf

const overridesSample = `
# Values for the variable references and named constants found in pattern
# documents. Entries extend and shadow the built in table. Values accept
# decimal, 0x prefixed hex, IPv4, IPv6, MAC-48 and OFPP_* constants.
"<Router_IP>" = "192.0.2.1"
"<Router_MAC_DA>" = "f0:00:00:00:00:01"
"L3 PHP" = "32"
`
