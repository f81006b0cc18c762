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

// Package fit implements the fit command, checking whether a set of
// OpenFlow rules can be expressed and placed by a Table Type Pattern.
package fit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
	"github.com/wandsdn/ttp-tools/pkg/rule"
	"github.com/wandsdn/ttp-tools/pkg/ttp"
	"github.com/wandsdn/ttp-tools/private/app"
	"github.com/wandsdn/ttp-tools/private/app/command"
	"github.com/wandsdn/ttp-tools/private/app/flag"
	"github.com/wandsdn/ttp-tools/ttpcheck/conf"
)

// Result is the outcome of fitting a rule set against one pattern.
type Result struct {
	Pattern    string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Identifier string    `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Rules      string    `json:"rules,omitempty" yaml:"rules,omitempty"`
	Fits       bool      `json:"fits" yaml:"fits"`
	Results    []RuleFit `json:"results" yaml:"results"`
}

// RuleFit is the outcome for a single rule. A rule fits when at least one
// placement has a pipeline path delivering packets to its table.
type RuleFit struct {
	Rule       string      `json:"rule" yaml:"rule"`
	Fits       bool        `json:"fits" yaml:"fits"`
	Placements []Placement `json:"placements,omitempty" yaml:"placements,omitempty"`
}

// Placement is one table whose flow mod types fully express the rule.
type Placement struct {
	Table    int       `json:"table" yaml:"table"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Bindings []Binding `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	Paths    []Path    `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Binding is one way a flow mod type expressed the rule, with the
// installable rule it modeled.
type Binding struct {
	Flow  string `json:"flow_mod_type" yaml:"flow_mod_type"`
	Model string `json:"model" yaml:"model"`
}

// Path is a viable pipeline path into the placed table. Hops[i] lists the
// carrier options across the Tables[i] to Tables[i+1] edge, built in
// carriers are marked.
type Path struct {
	Tables []int      `json:"tables" yaml:"tables"`
	Hops   [][]string `json:"hops,omitempty" yaml:"hops,omitempty"`
}

// Fit checks every rule against the pattern: the tables whose flow mod
// types express it, every binding, and the pipeline paths that deliver
// its packets there.
func Fit(pattern *ttp.Pattern, rules []rule.Rule) *Result {
	res := &Result{
		Pattern:    pattern.Path(),
		Identifier: pattern.Identifier(),
		Fits:       true,
	}
	for _, r := range rules {
		rf := RuleFit{Rule: r.String()}
		for _, pl := range pattern.PlaceRules([]rule.Rule{r}) {
			placement := Placement{Table: pl.Table.Number, Name: pl.Table.Name}
			for _, b := range pl.Bindings {
				placement.Bindings = append(placement.Bindings, Binding{
					Flow:  b.Flow().Name,
					Model: b.Model().String(),
				})
			}
			for _, pp := range pl.Paths {
				path := Path{Tables: pp.Path}
				for _, hop := range pp.Hops {
					opts := make([]string, 0, len(hop))
					for _, c := range hop {
						opts = append(opts, carrierString(c))
					}
					path.Hops = append(path.Hops, opts)
				}
				placement.Paths = append(placement.Paths, path)
			}
			if len(placement.Paths) > 0 {
				rf.Fits = true
			}
			rf.Placements = append(rf.Placements, placement)
		}
		if !rf.Fits {
			res.Fits = false
		}
		res.Results = append(res.Results, rf)
	}
	return res
}

func carrierString(c ttp.Carrier) string {
	if c.BuiltIn() {
		return c.Flow.Name + " (built in)"
	}
	return c.Flow.Name
}

// Human writes the result in a human readable format to w.
func (r *Result) Human(w io.Writer, colored bool) {
	header, good, bad := color.New(), color.New(), color.New()
	if colored {
		header = color.New(color.FgHiBlack)
		good = color.New(color.FgGreen)
		bad = color.New(color.FgRed, color.Bold)
	}
	fmt.Fprintf(w, "%s %s", header.Sprint("Pattern:"), r.Pattern)
	if r.Identifier != "" {
		fmt.Fprintf(w, " (%s)", r.Identifier)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", header.Sprint("Rules:"), r.Rules)

	fitted := 0
	for _, rf := range r.Results {
		status := bad.Sprint("no fit")
		if rf.Fits {
			status = good.Sprint("fits")
			fitted++
		}
		fmt.Fprintf(w, "\n%s  %s\n", status, rf.Rule)
		for _, pl := range rf.Placements {
			fmt.Fprintf(w, "  table %d (%s)\n", pl.Table, pl.Name)
			for _, b := range pl.Bindings {
				fmt.Fprintf(w, "    %s: %s\n", b.Flow, b.Model)
			}
			for _, path := range pl.Paths {
				fmt.Fprintf(w, "    path %s", formatPath(path.Tables))
				if len(path.Hops) > 0 {
					hops := make([]string, 0, len(path.Hops))
					for _, hop := range path.Hops {
						hops = append(hops, strings.Join(hop, " | "))
					}
					fmt.Fprintf(w, " via %s", strings.Join(hops, ", then "))
				}
				fmt.Fprintln(w)
			}
		}
	}
	fmt.Fprintf(w, "\n%d of %d rules fit the pattern\n", fitted, len(r.Results))
}

func formatPath(nums []int) string {
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, " -> ")
}

// NewCommand returns the fit command.
func NewCommand(pather command.Pather) *cobra.Command {
	var flags struct {
		format    flag.Format
		overrides string
		override  flag.Overrides
		allowMath bool
		logLevel  string
		noColor   bool
	}
	flags.format = "human"
	cmd := &cobra.Command{
		Use:   "fit <pattern.json> <rules.json>",
		Short: "Check whether rules fit a Table Type Pattern",
		Long: `'fit' loads a Table Type Pattern document and a rule set, and checks
every rule against the pipeline: which tables' flow mod types fully
express the rule, the concrete rule each binding would install, and the
pipeline paths that deliver the rule's packets to the table, naming the
carrier options across every hop.

The exit status is 1 when a rule does not fit, 3 when the pattern is
unusable because of a critical finding.
`,
		Example: fmt.Sprintf(`  %[1]s fit l2_acl.json rules.json
  %[1]s fit l2_acl.json rules.json --format yaml
  %[1]s fit l2_acl.json rules.json --overrides site.toml`, pather.CommandPath()),
		Args: cobra.ExactArgs(2),
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
			if pattern.Issues().Critical() {
				if loadErr == nil {
					loadErr = serrors.New("pattern cannot be used",
						"critical", pattern.Issues().Count(ttp.Critical))
				}
				return app.WithExitCode(loadErr, 3)
			}
			if n := pattern.Issues().Len(); n > 0 {
				printf("Pattern loaded with %d findings, run '%s validate' for the listing.\n",
					n, pather.CommandPath())
			}

			raw, err := os.ReadFile(args[1])
			if err != nil {
				return serrors.Wrap("reading the rule set", err, "file", args[1])
			}
			rules, err := rule.ParseRules(raw)
			if err != nil {
				return err
			}

			res := Fit(pattern, rules)
			res.Rules = args[1]
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

			if !res.Fits {
				misfits := 0
				for _, rf := range res.Results {
					if !rf.Fits {
						misfits++
					}
				}
				return app.WithExitCode(
					serrors.New("rules do not fit", "rules", misfits), 1)
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
	cmd.Flags().StringVar(&flags.logLevel, "log.level", "", app.LogLevelUsage)
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	return cmd
}
