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

package command

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// headers demote the generated markdown heading levels so the pages can be
// embedded under an existing manual section.
var headers = []struct {
	Search  *regexp.Regexp
	Replace string
}{
	{Search: regexp.MustCompile("\\)\\=\n\n## "), Replace: ")=\n\n# "},
	{Search: regexp.MustCompile("\n### "), Replace: "## "},
	{Search: regexp.MustCompile("\n#### "), Replace: "### "},
	{Search: regexp.MustCompile("\n##### "), Replace: "#### "},
}

// NewGendocs creates a hidden command that writes one markdown page per
// command in the tree to the given directory.
func NewGendocs(pather Pather) *cobra.Command {
	var cmd = &cobra.Command{
		Use:    "gendocs <directory>",
		Short:  "Generate documentation",
		Args:   cobra.ExactArgs(1),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Root().DisableAutoGenTag = true

			directory := args[0]
			if err := os.MkdirAll(directory, 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}

			if err := genMarkdownTree(cmd.Root(), directory); err != nil {
				return fmt.Errorf("generating documentation: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func genMarkdownTree(cmd *cobra.Command, dir string) error {
	var children []string
	for _, c := range cmd.Commands() {
		if !c.IsAvailableCommand() || c.IsAdditionalHelpTopicCommand() {
			continue
		}
		if err := genMarkdownTree(c, dir); err != nil {
			return err
		}
		children = append(children, strings.ReplaceAll(c.CommandPath(), " ", "_"))
	}

	var buf bytes.Buffer
	if _, err := buf.WriteString("---\norphan: true\n---\n\n"); err != nil {
		return err
	}
	fmt.Fprintf(&buf, "(app-%s)=\n\n", strings.Replace(cmd.CommandPath(), " ", "-", -1))
	if err := doc.GenMarkdown(cmd, &buf); err != nil {
		return err
	}

	// Child pages hang off a hidden toctree on the parent page.
	if len(children) != 0 {
		if _, err := buf.WriteString("```{toctree}\n---\nhidden: true\n---\n"); err != nil {
			return err
		}
		if _, err := buf.WriteString(strings.Join(children, "\n")); err != nil {
			return err
		}
		if _, err := buf.WriteString("\n```\n"); err != nil {
			return err
		}
	}

	raw := buf.Bytes()
	for _, h := range headers {
		raw = h.Search.ReplaceAll(raw, []byte(h.Replace))
	}

	basename := strings.ReplaceAll(cmd.CommandPath(), " ", "_") + ".md"
	return os.WriteFile(filepath.Join(dir, basename), raw, 0666)
}
