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

package validate_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/log"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
	"github.com/wandsdn/ttp-tools/private/app"
	"github.com/wandsdn/ttp-tools/private/app/command"
	"github.com/wandsdn/ttp-tools/ttpcheck/validate"
)

func load(t *testing.T, name string) *ttp.Pattern {
	t.Helper()
	p, _ := ttp.LoadFile(filepath.Join("testdata", name),
		ttp.Options{Logger: log.Discard()})
	require.NotNil(t, p)
	return p
}

func TestSummarize(t *testing.T) {
	testCases := map[string]struct {
		File   string
		Usable bool
		Counts validate.Counts
		Check  func(t *testing.T, res *validate.Result)
	}{
		"clean": {
			File:   "two_table.json",
			Usable: true,
			Check: func(t *testing.T, res *validate.Result) {
				assert.Equal(t,
					"nz.ac.waikato.wand/TTPv1/Two Table Pipeline/1.0.0",
					res.Identifier)
				assert.Empty(t, res.Issues)
			},
		},
		"invalid identifier entry": {
			File:   "bad_identifier.json",
			Usable: true,
			Counts: validate.Counts{Errors: 1},
			Check: func(t *testing.T, res *validate.Result) {
				require.Len(t, res.Issues, 1)
				issue := res.Issues[0]
				assert.Equal(t, "error", issue.Severity)
				assert.Contains(t, issue.Message, "Invalid identifier type found")
				assert.Equal(t, 11, issue.Line)
				assert.Equal(t, 9, issue.Column)
			},
		},
		"empty document": {
			File:   "empty.json",
			Usable: false,
			Counts: validate.Counts{Critical: 1, Errors: 2},
			Check: func(t *testing.T, res *validate.Result) {
				require.Len(t, res.Issues, 3)
				assert.Equal(t, "critical", res.Issues[0].Severity)
				assert.Equal(t, 1, res.Issues[0].Line)
				assert.Equal(t, 1, res.Issues[0].Column)
			},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			res := validate.Summarize(load(t, tc.File))
			assert.Equal(t, tc.Usable, res.Usable)
			assert.Equal(t, tc.Counts, res.Counts)
			if tc.Check != nil {
				tc.Check(t, res)
			}
		})
	}
}

func TestResultHuman(t *testing.T) {
	res := validate.Summarize(load(t, "bad_identifier.json"))
	var buf bytes.Buffer
	res.Human(&buf, false)
	out := buf.String()
	assert.Contains(t, out, "Pattern: "+filepath.Join("testdata", "bad_identifier.json"))
	assert.Contains(t, out,
		"Identifier: nz.ac.waikato.wand/TTPv1/Bad Identifier Pipeline/1.0.0")
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "11:9")
	assert.Contains(t, out, "0 critical, 1 errors, 0 warnings, 0 notes")
}

func TestLocate(t *testing.T) {
	src := []byte("abc\ndef\n")
	testCases := map[string]struct {
		Offset       int
		Line, Column int
	}{
		"start":            {Offset: 0, Line: 1, Column: 1},
		"line end":         {Offset: 3, Line: 1, Column: 4},
		"second line":      {Offset: 4, Line: 2, Column: 1},
		"document end":     {Offset: 8, Line: 3, Column: 1},
		"without position": {Offset: -1},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			line, column := validate.Locate(src, tc.Offset)
			assert.Equal(t, tc.Line, line)
			assert.Equal(t, tc.Column, column)
		})
	}
}

func TestAnnotate(t *testing.T) {
	src := []byte("{\n  \"a\": 1,\n  \"b\": 2\n}\n")
	issues := []validate.Issue{
		{Severity: "error", Message: "bad member", Start: 4, End: 10, Line: 2, Column: 3},
		{Severity: "warning", Message: "odd value", Start: 9, End: 11, Line: 2, Column: 8},
		{Severity: "note", Message: "unplaced", Start: -1, End: -1},
	}
	ris, segs := validate.Annotate(src, issues)

	require.Len(t, ris, 3)
	assert.Equal(t, 1, ris[0].ID)
	assert.Equal(t, "2:3", ris[0].Position)
	assert.Equal(t, "src-4", ris[0].Anchor)
	assert.Equal(t, "src-9", ris[1].Anchor)
	assert.Equal(t, "-", ris[2].Position)
	assert.Empty(t, ris[2].Anchor)

	// The source splits at every finding boundary, so the overlap of the
	// two positioned findings becomes its own span.
	require.Len(t, segs, 5)
	assert.Equal(t, "{\n  ", segs[0].Text)
	assert.Empty(t, segs[0].Classes)
	assert.Equal(t, "\"a\": ", segs[1].Text)
	assert.Equal(t, "hl error", segs[1].Classes)
	assert.Equal(t, "src-4", segs[1].Anchor)
	assert.Equal(t, "1", segs[2].Text)
	assert.Equal(t, "hl error", segs[2].Classes)
	assert.Equal(t, "error: bad member\nwarning: odd value", segs[2].Title)
	assert.Equal(t, "src-9", segs[2].Anchor)
	assert.Equal(t, ",", segs[3].Text)
	assert.Equal(t, "hl warning", segs[3].Classes)
	assert.Empty(t, segs[3].Anchor)
	assert.Equal(t, "\n  \"b\": 2\n}\n", segs[4].Text)
	assert.Empty(t, segs[4].Classes)
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, validate.WriteReport(&buf, load(t, "bad_identifier.json")))
	out := buf.String()
	assert.Contains(t, out, "TTP validation report")
	assert.Contains(t, out, `<tr id="issue-1">`)
	assert.Contains(t, out, `<a href="#src-`)
	assert.Contains(t, out, `class="hl error"`)
	assert.Contains(t, out, "Invalid identifier type found")
	assert.Contains(t, out, "neither a var nor an id")
}

func TestWriteReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, validate.WriteReportFile(path, load(t, "two_table.json")))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Two Table Pipeline")
	assert.NotContains(t, string(raw), `class="hl`)
}

func TestCommand(t *testing.T) {
	testCases := map[string]struct {
		Args     []string
		ExitCode int
		Contains []string
	}{
		"clean": {
			Args: []string{
				filepath.Join("testdata", "two_table.json"),
				"--log.level", "error", "--no-color",
			},
			Contains: []string{"Two Table Pipeline", "0 critical"},
		},
		"errors exit 2": {
			Args: []string{
				filepath.Join("testdata", "bad_identifier.json"),
				"--log.level", "error", "--no-color",
			},
			ExitCode: 2,
			Contains: []string{"Invalid identifier type found"},
		},
		"critical exit 3": {
			Args: []string{
				filepath.Join("testdata", "empty.json"),
				"--log.level", "error", "--format", "json",
			},
			ExitCode: 3,
			Contains: []string{`"usable": false`},
		},
		"unknown format": {
			Args: []string{
				filepath.Join("testdata", "two_table.json"),
				"--format", "xml",
			},
			ExitCode: -1,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cmd := validate.NewCommand(command.StringPather("ttpcheck"))
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetErr(&buf)
			cmd.SetArgs(tc.Args)
			err := cmd.Execute()
			if tc.ExitCode == 0 {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.ExitCode, app.ExitCode(err))
			}
			for _, want := range tc.Contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestCommandReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	cmd := validate.NewCommand(command.StringPather("ttpcheck"))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		filepath.Join("testdata", "two_table.json"),
		"--log.level", "error", "--no-color", "-o", path,
	})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Report written to")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Two Table Pipeline")
}
