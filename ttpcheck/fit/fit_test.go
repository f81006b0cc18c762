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

package fit_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/log"
	"github.com/wandsdn/ttp-tools/pkg/rule"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
	"github.com/wandsdn/ttp-tools/private/app"
	"github.com/wandsdn/ttp-tools/private/app/command"
	"github.com/wandsdn/ttp-tools/ttpcheck/fit"
)

func loadBridge(t *testing.T) *ttp.Pattern {
	t.Helper()
	p, err := ttp.LoadFile(filepath.Join("testdata", "l2_acl.json"),
		ttp.Options{Logger: log.Discard()})
	require.NoError(t, err)
	require.Equal(t, 0, p.Issues().Len())
	return p
}

func loadRules(t *testing.T, name string) []rule.Rule {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	rules, err := rule.ParseRules(raw)
	require.NoError(t, err)
	return rules
}

func TestFit(t *testing.T) {
	pattern := loadBridge(t)
	rules := loadRules(t, "bridge_rules.json")
	require.Len(t, rules, 3)

	res := fit.Fit(pattern, rules)
	assert.True(t, res.Fits)
	assert.Equal(t, filepath.Join("testdata", "l2_acl.json"), res.Pattern)
	assert.Equal(t, "nz.ac.waikato.wand/TTPv1/L2 Bridge with ACL/1.0.2",
		res.Identifier)
	require.Len(t, res.Results, 3)

	override := res.Results[0]
	assert.True(t, override.Fits)
	assert.Equal(t, "priority=100 match[ETH_TYPE=0x800, IP_PROTO=0x6, "+
		"TCP_DST=0x50] APPLY_ACTIONS: OUTPUT=3, CLEAR_ACTIONS", override.Rule)
	require.Len(t, override.Placements, 1)
	acl := override.Placements[0]
	assert.Equal(t, 2, acl.Table)
	assert.Equal(t, "ACL", acl.Name)
	require.Len(t, acl.Bindings, 1)
	assert.Equal(t, "Output Override", acl.Bindings[0].Flow)
	assert.Contains(t, acl.Bindings[0].Model, "OUTPUT=3")
	require.Len(t, acl.Paths, 2)
	assert.Equal(t, []int{0, 2}, acl.Paths[0].Tables)
	assert.Equal(t, [][]string{{"Protocol Bypass"}}, acl.Paths[0].Hops)
	assert.Equal(t, []int{0, 1, 2}, acl.Paths[1].Tables)
	assert.Equal(t, [][]string{
		{"Ingress Miss (built in)"},
		{"Bridging Miss (built in)"},
	}, acl.Paths[1].Hops)

	unicast := res.Results[1]
	assert.True(t, unicast.Fits)
	assert.Equal(t, "priority=0 match[VLAN_VID=0x1064, ETH_DST=0xf58824a1b6ff] "+
		"WRITE_ACTIONS: POP_VLAN, OUTPUT=5, GOTO_TABLE: 2", unicast.Rule)
	require.Len(t, unicast.Placements, 1)
	bridging := unicast.Placements[0]
	assert.Equal(t, 1, bridging.Table)
	assert.Equal(t, "Bridging", bridging.Name)
	require.Len(t, bridging.Bindings, 1)
	assert.Equal(t, "Known MAC", bridging.Bindings[0].Flow)
	require.Len(t, bridging.Paths, 1)
	assert.Equal(t, []int{0, 1}, bridging.Paths[0].Tables)
	assert.Equal(t, [][]string{{"Ingress Miss (built in)"}},
		bridging.Paths[0].Hops)

	flood := res.Results[2]
	assert.True(t, flood.Fits)
	require.Len(t, flood.Placements, 1)
	require.Len(t, flood.Placements[0].Bindings, 1)
	assert.Equal(t, 1, flood.Placements[0].Table)
	assert.Equal(t, "Unknown MAC", flood.Placements[0].Bindings[0].Flow)
	assert.Contains(t, flood.Placements[0].Bindings[0].Model, "ALL{")
}

func TestFitNoHome(t *testing.T) {
	pattern := loadBridge(t)
	rules := loadRules(t, "nofit_rules.json")

	res := fit.Fit(pattern, rules)
	assert.False(t, res.Fits)
	require.Len(t, res.Results, 1)
	assert.False(t, res.Results[0].Fits)
	assert.Empty(t, res.Results[0].Placements)
	assert.Equal(t, "priority=50 match[ARP_OP=0x1] "+
		"APPLY_ACTIONS: OUTPUT=CONTROLLER", res.Results[0].Rule)
}

func TestResultHuman(t *testing.T) {
	pattern := loadBridge(t)
	res := fit.Fit(pattern, loadRules(t, "bridge_rules.json"))
	res.Rules = "testdata/bridge_rules.json"

	var buf bytes.Buffer
	res.Human(&buf, false)
	out := buf.String()

	assert.Contains(t, out, "Pattern: "+filepath.Join("testdata", "l2_acl.json"))
	assert.Contains(t, out, "(nz.ac.waikato.wand/TTPv1/L2 Bridge with ACL/1.0.2)")
	assert.Contains(t, out, "Rules: testdata/bridge_rules.json")
	assert.Contains(t, out, "table 2 (ACL)")
	assert.Contains(t, out, "Output Override: ")
	assert.Contains(t, out, "path 0 -> 2 via Protocol Bypass")
	assert.Contains(t, out,
		"path 0 -> 1 -> 2 via Ingress Miss (built in), then Bridging Miss (built in)")
	assert.Contains(t, out, "3 of 3 rules fit the pattern")
	assert.NotContains(t, out, "no fit")
}

func TestResultHumanNoFit(t *testing.T) {
	pattern := loadBridge(t)
	res := fit.Fit(pattern, loadRules(t, "nofit_rules.json"))
	res.Rules = "testdata/nofit_rules.json"

	var buf bytes.Buffer
	res.Human(&buf, false)
	out := buf.String()

	assert.Contains(t, out, "no fit")
	assert.Contains(t, out, "0 of 1 rules fit the pattern")
}

func TestCommand(t *testing.T) {
	testCases := map[string]struct {
		args     []string
		exitCode int
		contains []string
	}{
		"fits": {
			args: []string{
				"testdata/l2_acl.json", "testdata/bridge_rules.json",
			},
			exitCode: 0,
			contains: []string{"3 of 3 rules fit the pattern"},
		},
		"no fit": {
			args: []string{
				"testdata/l2_acl.json", "testdata/nofit_rules.json",
			},
			exitCode: 1,
			contains: []string{"no fit", "0 of 1 rules fit the pattern"},
		},
		"json": {
			args: []string{
				"testdata/l2_acl.json", "testdata/bridge_rules.json",
				"--format", "json",
			},
			exitCode: 0,
			contains: []string{
				`"fits": true`,
				`"flow_mod_type": "Output Override"`,
				`"Ingress Miss (built in)"`,
			},
		},
		"override flag": {
			args: []string{
				"testdata/l2_acl.json", "testdata/bridge_rules.json",
				"--override", "<Router_IP>=10.0.0.1",
			},
			exitCode: 0,
			contains: []string{"3 of 3 rules fit the pattern"},
		},
		"malformed override": {
			args: []string{
				"testdata/l2_acl.json", "testdata/bridge_rules.json",
				"--override", "broken",
			},
			exitCode: -1,
		},
		"rules that are not a rule set": {
			args: []string{
				"testdata/l2_acl.json", "testdata/l2_acl.json",
			},
			exitCode: -1,
		},
		"missing pattern": {
			args: []string{
				"testdata/missing.json", "testdata/bridge_rules.json",
			},
			exitCode: 3,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cmd := fit.NewCommand(command.StringPather("ttpcheck"))
			var stdout, stderr bytes.Buffer
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetArgs(append(tc.args, "--log.level", "error", "--no-color"))
			err := cmd.Execute()
			if tc.exitCode == 0 {
				require.NoError(t, err, stderr.String())
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.exitCode, app.ExitCode(err))
			}
			for _, want := range tc.contains {
				assert.Contains(t, stdout.String(), want)
			}
		})
	}
}
