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

// Package show implements the show command, a pipeline overview of a
// Table Type Pattern: the tables with their flow mod types, the group
// entry types and the reachable paths.
package show

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
	"github.com/wandsdn/ttp-tools/private/app"
	"github.com/wandsdn/ttp-tools/private/app/command"
	"github.com/wandsdn/ttp-tools/private/app/flag"
)

// Result is the displayable overview of one pattern.
type Result struct {
	File       string  `json:"file,omitempty" yaml:"file,omitempty"`
	Identifier string  `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	Version    string  `json:"version,omitempty" yaml:"version,omitempty"`
	OFVersion  string  `json:"of_version,omitempty" yaml:"of_version,omitempty"`
	Doc        string  `json:"doc,omitempty" yaml:"doc,omitempty"`
	Tables     []Table `json:"tables" yaml:"tables"`
	Groups     []Group `json:"groups,omitempty" yaml:"groups,omitempty"`
	Paths      [][]int `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Table summarizes one flow table of the pipeline.
type Table struct {
	Number       int      `json:"number" yaml:"number"`
	Name         string   `json:"name" yaml:"name"`
	Doc          string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	FlowModTypes []string `json:"flow_mod_types,omitempty" yaml:"flow_mod_types,omitempty"`
	BuiltIns     []string `json:"built_in_flow_mods,omitempty" yaml:"built_in_flow_mods,omitempty"`
	Goto         []int    `json:"goto_tables,omitempty" yaml:"goto_tables,omitempty"`
}

// Group summarizes one group entry type.
type Group struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Describe builds the pipeline overview of a loaded pattern.
func Describe(pattern *ttp.Pattern) *Result {
	res := &Result{
		File:       pattern.Path(),
		Identifier: pattern.Identifier(),
		Paths:      pattern.Paths(),
	}
	if m := pattern.Metadata; m != nil {
		res.Name = m.Name
		res.Version = m.Version
		res.OFVersion = m.OFVersion
		res.Doc = m.Doc
	}
	for _, t := range pattern.Tables() {
		info := Table{
			Number: t.Number,
			Name:   t.Name,
			Doc:    t.Doc,
		}
		for _, f := range t.FlowModTypes {
			info.FlowModTypes = append(info.FlowModTypes, f.Name)
		}
		for _, f := range t.BuiltIns {
			info.BuiltIns = append(info.BuiltIns, f.Name)
		}
		for _, succ := range t.Successors() {
			info.Goto = append(info.Goto, succ.Number)
		}
		res.Tables = append(res.Tables, info)
	}
	for _, g := range pattern.Groups() {
		res.Groups = append(res.Groups, Group{Name: g.Name, Type: g.Type, Doc: g.Doc})
	}
	return res
}

// Human writes the overview in a human readable format to w.
func (r *Result) Human(w io.Writer, colored bool) {
	header, value := color.New(), color.New()
	if colored {
		header = color.New(color.FgHiBlack)
		value = color.New(color.FgHiCyan)
	}
	fmt.Fprintf(w, "%s %s\n", header.Sprint("Pattern:"), r.File)
	if r.Identifier != "" {
		fmt.Fprintf(w, "%s %s", header.Sprint("Identifier:"), value.Sprint(r.Identifier))
		if r.OFVersion != "" {
			fmt.Fprintf(w, " (OpenFlow %s)", r.OFVersion)
		}
		fmt.Fprintln(w)
	}
	if r.Doc != "" {
		fmt.Fprintf(w, "%s\n", r.Doc)
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"#", "Table", "Flow mod types", "Built in", "Goto"})
	rows := make([][]string, 0, len(r.Tables))
	for _, t := range r.Tables {
		rows = append(rows, []string{
			strconv.Itoa(t.Number),
			t.Name,
			strings.Join(t.FlowModTypes, ", "),
			strings.Join(t.BuiltIns, ", "),
			formatPath(t.Goto, ", "),
		})
	}
	table.AppendBulk(rows)
	table.Render()

	if len(r.Groups) > 0 {
		fmt.Fprintf(w, "\n%s\n", header.Sprint("Group entry types:"))
		for _, g := range r.Groups {
			fmt.Fprintf(w, "  %s (%s)", value.Sprint(g.Name), g.Type)
			if g.Doc != "" {
				fmt.Fprintf(w, "  %s", g.Doc)
			}
			fmt.Fprintln(w)
		}
	}
	if len(r.Paths) > 0 {
		fmt.Fprintf(w, "\n%s\n", header.Sprint("Pipeline paths:"))
		for _, p := range r.Paths {
			fmt.Fprintf(w, "  %s\n", formatPath(p, " -> "))
		}
	}
}

func formatPath(nums []int, sep string) string {
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, sep)
}

// NewCommand returns the show command.
func NewCommand(pather command.Pather) *cobra.Command {
	var flags struct {
		format    flag.Format
		allowMath bool
		logLevel  string
		noColor   bool
	}
	flags.format = "human"
	cmd := &cobra.Command{
		Use:   "show <pattern.json>",
		Short: "Show the pipeline of a Table Type Pattern",
		Long: `'show' loads a Table Type Pattern document and displays its pipeline:
the metadata identifying the pattern, each flow table with its flow mod
types and built in flow mods, the group entry types and every reachable
path through the tables.

A document with recoverable findings still displays, run 'validate' for
the listing. A critical finding aborts with exit status 3.
`,
		Example: fmt.Sprintf(`  %[1]s show l2_acl.json
  %[1]s show l2_acl.json --format yaml`, pather.CommandPath()),
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

			pattern, loadErr := ttp.LoadFile(args[0], ttp.Options{
				AllowMath: flags.allowMath,
			})
			if pattern.Issues().Critical() {
				if loadErr == nil {
					loadErr = serrors.New("pattern cannot be used",
						"critical", pattern.Issues().Count(ttp.Critical))
				}
				return app.WithExitCode(loadErr, 3)
			}
			if n := pattern.Issues().Len(); n > 0 {
				printf("Pattern loaded with %d findings, run '%s validate' for the listing.\n\n",
					n, pather.CommandPath())
			}

			res := Describe(pattern)
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
			return nil
		},
	}
	cmd.Flags().Var(&flags.format, "format", "Output format (human|json|yaml)")
	cmd.Flags().BoolVar(&flags.allowMath, "allow-math", false,
		"Permit arithmetic expressions in range bounds")
	cmd.Flags().StringVar(&flags.logLevel, "log.level", "", app.LogLevelUsage)
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	return cmd
}
