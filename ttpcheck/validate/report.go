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

package validate

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
)

// WriteReportFile renders the HTML report for a loaded pattern to path.
func WriteReportFile(path string, pattern *ttp.Pattern) error {
	f, err := os.Create(path)
	if err != nil {
		return serrors.Wrap("creating the report file", err, "file", path)
	}
	if err := WriteReport(f, pattern); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteReport renders an HTML report: the findings table with anchors into
// an annotated listing of the source document. Overlapping findings share
// highlighted ranges, each range is classed by the most severe finding
// covering it and titled with all of them.
func WriteReport(w io.Writer, pattern *ttp.Pattern) error {
	res := Summarize(pattern)
	data := reportData{
		File:       res.File,
		Identifier: res.Identifier,
		Counts:     res.Counts,
	}
	data.Issues, data.Segments = annotate(pattern.Source(), res.Issues)
	return reportTmpl.Execute(w, data)
}

type reportData struct {
	File       string
	Identifier string
	Counts     Counts
	Issues     []reportIssue
	Segments   []segment
}

type reportIssue struct {
	ID       int
	Severity string
	Position string
	Message  string
	Path     string
	Anchor   string
}

// segment is a run of source text covered by a fixed set of findings. A
// segment at which a finding starts carries the anchor its table row links
// to.
type segment struct {
	Text    string
	Classes string
	Title   string
	Anchor  string
}

// annotate numbers the findings and splits the source at every finding
// boundary, flattening overlapping ranges into a sequence of spans.
func annotate(src []byte, issues []Issue) ([]reportIssue, []segment) {
	type span struct {
		start, end int
		severity   string
		msg        string
	}

	var ris []reportIssue
	var spans []span
	cuts := map[int]bool{0: true, len(src): true}
	for idx, i := range issues {
		ri := reportIssue{
			ID:       idx + 1,
			Severity: i.Severity,
			Position: "-",
			Message:  i.Message,
			Path:     i.Path,
		}
		if i.Line > 0 {
			ri.Position = fmt.Sprintf("%d:%d", i.Line, i.Column)
		}
		start, end := clamp(i.Start, len(src)), clamp(i.End, len(src))
		if i.Start >= 0 && start < end {
			ri.Anchor = fmt.Sprintf("src-%d", start)
			spans = append(spans, span{
				start:    start,
				end:      end,
				severity: i.Severity,
				msg:      i.Message,
			})
			cuts[start] = true
			cuts[end] = true
		}
		ris = append(ris, ri)
	}

	bounds := make([]int, 0, len(cuts))
	for b := range cuts {
		bounds = append(bounds, b)
	}
	sort.Ints(bounds)

	var segs []segment
	for i := 0; i+1 < len(bounds); i++ {
		a, b := bounds[i], bounds[i+1]
		seg := segment{Text: string(src[a:b])}
		worst, worstName := -1, ""
		var titles []string
		for _, s := range spans {
			if s.start > a || b > s.end {
				continue
			}
			if r := severityRank(s.severity); r > worst {
				worst, worstName = r, s.severity
			}
			titles = append(titles, fmt.Sprintf("%s: %s", s.severity, s.msg))
			if s.start == a {
				seg.Anchor = fmt.Sprintf("src-%d", a)
			}
		}
		if worst >= 0 {
			seg.Classes = "hl " + worstName
			seg.Title = strings.Join(titles, "\n")
		}
		segs = append(segs, seg)
	}
	return ris, segs
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func severityRank(severity string) int {
	switch severity {
	case ttp.Critical.String():
		return 3
	case ttp.Error.String():
		return 2
	case ttp.Warning.String():
		return 1
	}
	return 0
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>TTP validation report: {{.File}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.3em; }
h2 { font-size: 1.1em; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { text-align: left; padding: 0.25em 0.75em; border-bottom: 1px solid #ddd; }
pre { background: #f8f8f8; padding: 1em; overflow-x: auto; line-height: 1.45; }
.sev { font-weight: bold; }
.sev.note { color: #1971c2; }
.sev.warning { color: #b08800; }
.sev.error { color: #c92a2a; }
.sev.critical { color: #a61e1e; }
.hl { border-bottom: 2px solid; }
.hl.note { background: #d0ebff; border-color: #1971c2; }
.hl.warning { background: #fff3bf; border-color: #b08800; }
.hl.error { background: #ffd8d8; border-color: #c92a2a; }
.hl.critical { background: #ffc9c9; border-color: #a61e1e; }
</style>
</head>
<body>
<h1>Table Type Pattern validation report</h1>
<p><b>File:</b> {{.File}}<br>
{{if .Identifier}}<b>Identifier:</b> {{.Identifier}}<br>
{{end}}<b>Findings:</b> {{.Counts}}</p>
{{if .Issues}}<table>
<tr><th>#</th><th>Severity</th><th>Line</th><th>Finding</th><th>Member</th></tr>
{{range .Issues}}<tr id="issue-{{.ID}}">
<td>{{.ID}}</td>
<td><span class="sev {{.Severity}}">{{.Severity}}</span></td>
<td>{{.Position}}</td>
<td>{{if .Anchor}}<a href="#{{.Anchor}}">{{.Message}}</a>{{else}}{{.Message}}{{end}}</td>
<td>{{.Path}}</td>
</tr>
{{end}}</table>
{{end}}<h2>Source</h2>
<pre>{{range .Segments}}{{if .Classes}}<span class="{{.Classes}}"{{if .Title}} title="{{.Title}}"{{end}}{{if .Anchor}} id="{{.Anchor}}"{{end}}>{{.Text}}</span>{{else}}{{.Text}}{{end}}{{end}}</pre>
</body>
</html>
`))
