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

// Package validate implements the validate command. It loads a Table Type
// Pattern document, lists every finding the loader records and optionally
// renders an HTML report of the annotated source.
package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
	"github.com/wandsdn/ttp-tools/private/app"
	"github.com/wandsdn/ttp-tools/private/app/command"
	"github.com/wandsdn/ttp-tools/private/app/flag"
	"github.com/wandsdn/ttp-tools/ttpcheck/conf"
)

// Result is the validation outcome for one pattern document.
type Result struct {
	File       string  `json:"file,omitempty" yaml:"file,omitempty"`
	Identifier string  `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Usable     bool    `json:"usable" yaml:"usable"`
	Counts     Counts  `json:"counts" yaml:"counts"`
	Issues     []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Counts tallies the findings by severity.
type Counts struct {
	Critical int `json:"critical" yaml:"critical"`
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Notes    int `json:"notes" yaml:"notes"`
}

func (c Counts) String() string {
	return fmt.Sprintf("%d critical, %d errors, %d warnings, %d notes",
		c.Critical, c.Errors, c.Warnings, c.Notes)
}

// Issue is one finding, positioned both by byte offset and by line. Line
// and Column are 1-based and elided for findings without a position.
type Issue struct {
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"msg" yaml:"msg"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Start    int    `json:"start" yaml:"start"`
	End      int    `json:"end" yaml:"end"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// Summarize collects the findings of a loaded pattern into a result. The
// findings are ordered by source position, position-less ones first.
func Summarize(pattern *ttp.Pattern) *Result {
	issues := pattern.Issues()
	res := &Result{
		File:       pattern.Path(),
		Identifier: pattern.Identifier(),
		Usable:     !issues.Critical(),
		Counts: Counts{
			Critical: issues.Count(ttp.Critical),
			Errors:   issues.Count(ttp.Error),
			Warnings: issues.Count(ttp.Warning),
			Notes:    issues.Count(ttp.Note),
		},
	}
	lines := newLineIndex(pattern.Source())
	for _, i := range issues.Sorted() {
		issue := Issue{
			Severity: i.Severity.String(),
			Message:  i.Msg,
			Path:     i.Path,
			Start:    i.Start,
			End:      i.End,
		}
		issue.Line, issue.Column = lines.locate(i.Start)
		res.Issues = append(res.Issues, issue)
	}
	return res
}

// Human writes the result in a human readable format to w.
func (r *Result) Human(w io.Writer, colored bool) {
	cs := colorScheme(colored)
	fmt.Fprintf(w, "%s %s\n", cs.header.Sprint("Pattern:"), r.File)
	if r.Identifier != "" {
		fmt.Fprintf(w, "%s %s\n", cs.header.Sprint("Identifier:"),
			cs.value.Sprint(r.Identifier))
	}
	for _, i := range r.Issues {
		pos := "-"
		if i.Line > 0 {
			pos = fmt.Sprintf("%d:%d", i.Line, i.Column)
		}
		fmt.Fprintf(w, "  %s %-9s %s",
			cs.severity[i.Severity].Sprintf("%-8s", i.Severity), pos, i.Message)
		if i.Path != "" {
			fmt.Fprintf(w, "  (%s)", i.Path)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s %s\n", cs.header.Sprint("Findings:"), r.Counts)
}

type scheme struct {
	header   *color.Color
	value    *color.Color
	severity map[string]*color.Color
}

func colorScheme(colored bool) scheme {
	if !colored {
		plain := color.New()
		return scheme{
			header: plain,
			value:  plain,
			severity: map[string]*color.Color{
				"critical": plain,
				"error":    plain,
				"warning":  plain,
				"note":     plain,
			},
		}
	}
	return scheme{
		header: color.New(color.FgHiBlack),
		value:  color.New(color.FgHiCyan),
		severity: map[string]*color.Color{
			"critical": color.New(color.FgRed, color.Bold),
			"error":    color.New(color.FgRed),
			"warning":  color.New(color.FgYellow),
			"note":     color.New(color.FgCyan),
		},
	}
}

// lineIndex maps byte offsets in a source document to 1-based line and
// column numbers. Columns count bytes.
type lineIndex struct {
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) locate(offset int) (line, column int) {
	if offset < 0 {
		return 0, 0
	}
	i := sort.SearchInts(li.starts, offset+1) - 1
	return i + 1, offset - li.starts[i] + 1
}

// NewCommand returns the validate command.
func NewCommand(pather command.Pather) *cobra.Command {
	var flags struct {
		format    flag.Format
		overrides string
		override  flag.Overrides
		allowMath bool
		report    string
		logLevel  string
		noColor   bool
	}
	flags.format = "human"
	cmd := &cobra.Command{
		Use:   "validate <pattern.json>",
		Short: "Validate a Table Type Pattern document",
		Long: `'validate' loads a Table Type Pattern document and reports every finding:
notes, warnings, recoverable errors and critical failures. Findings carry
byte offsets and line positions into the decoded source document.

The exit status reflects the worst finding: 2 when errors were recorded,
3 when the pattern is unusable because of a critical finding.
`,
		Example: fmt.Sprintf(`  %[1]s validate l2_acl.json
  %[1]s validate l2_acl.json --format json
  %[1]s validate l2_acl.json -o report.html`, pather.CommandPath()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := app.SetupLog(flags.logLevel); err != nil {
				return serrors.Wrap("setting up logging", err)
			}
			printf, err := app.GetPrintf(string(flags.format), cmd.OutOrStdout())
			if err != nil {
				return serrors.Wrap("validating the output format", err)
			}
			overrides, err := conf.Load(flags.overrides)
			if err != nil {
				return err
			}
			if len(flags.override) > 0 {
				if overrides.Values == nil {
					overrides.Values = map[string]string{}
				}
				for name, value := range flags.override {
					overrides.Values[name] = value
				}
			}
			values, err := overrides.Resolve()
			if err != nil {
				return err
			}

			pattern, loadErr := ttp.LoadFile(args[0], ttp.Options{
				AllowMath: flags.allowMath,
				Overrides: values,
			})
			res := Summarize(pattern)

			switch flags.format {
			case "human":
				colored := !flags.noColor && isatty.IsTerminal(os.Stdout.Fd())
				res.Human(cmd.OutOrStdout(), colored)
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				if err := enc.Encode(res); err != nil {
					return serrors.Wrap("encoding the result", err)
				}
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				if err := enc.Encode(res); err != nil {
					return serrors.Wrap("encoding the result", err)
				}
			}

			if flags.report != "" {
				if err := WriteReportFile(flags.report, pattern); err != nil {
					return serrors.Wrap("writing the report", err)
				}
				printf("Report written to %q\n", flags.report)
			}

			switch {
			case res.Counts.Critical > 0:
				err := loadErr
				if err == nil {
					err = serrors.New("pattern cannot be used",
						"critical", res.Counts.Critical)
				}
				return app.WithExitCode(err, 3)
			case res.Counts.Errors > 0:
				return app.WithExitCode(serrors.New("pattern has errors",
					"errors", res.Counts.Errors), 2)
			case loadErr != nil:
				return loadErr
			}
			return nil
		},
	}
	cmd.Flags().Var(&flags.format, "format", "Output format (human|json|yaml)")
	cmd.Flags().StringVar(&flags.overrides, "overrides", "",
		"Value overrides configuration file (TOML)")
	cmd.Flags().Var(&flags.override, "override",
		"Set a single override as NAME=VALUE, can be repeated")
	cmd.Flags().BoolVar(&flags.allowMath, "allow-math", false,
		"Permit arithmetic expressions in range bounds")
	cmd.Flags().StringVarP(&flags.report, "out", "o", "",
		"Write an HTML report of the annotated source to this file")
	cmd.Flags().StringVar(&flags.logLevel, "log.level", "", app.LogLevelUsage)
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	return cmd
}
