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

package ttp

import (
	"fmt"
	"sort"

	"github.com/wandsdn/ttp-tools/pkg/log"
)

// Severity classifies a finding made while loading a pattern. Loading is
// permissive: most findings degrade the offending member to a default and
// continue. Critical findings leave the pattern unusable.
type Severity int

const (
	// Note records advice, e.g. a recommended doc string is missing.
	Note Severity = iota
	// Warning records a recoverable deviation, e.g. a wrong type that
	// could still be interpreted.
	Warning
	// Error records a member that had to be discarded.
	Error
	// Critical records a finding after which the pattern cannot be
	// meaningfully used, e.g. an unparsable table map.
	Critical
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler so issue listings can be
// serialized directly.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalYAML renders the severity by name, yaml does not consult
// MarshalText.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// Issue is a single finding tied back to the source document. Start and End
// are byte offsets into the decoded UTF-8 source of the nearest enclosing
// JSON object, or -1 when the finding has no position.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Msg      string   `json:"msg" yaml:"msg"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
	Start    int      `json:"start" yaml:"start"`
	End      int      `json:"end" yaml:"end"`
}

func (i Issue) String() string {
	if i.Start < 0 {
		return fmt.Sprintf("%s: %s", i.Severity, i.Msg)
	}
	return fmt.Sprintf("%s: %s (%d:%d)", i.Severity, i.Msg, i.Start, i.End)
}

// Issues accumulates the findings of one load. It is not safe for
// concurrent use; a Pattern owns exactly one collector.
type Issues struct {
	list   []Issue
	counts [Critical + 1]int
}

func (is *Issues) add(i Issue) {
	is.list = append(is.list, i)
	if i.Severity >= Note && i.Severity <= Critical {
		is.counts[i.Severity]++
	}
}

// Len returns the total number of findings.
func (is *Issues) Len() int {
	return len(is.list)
}

// All returns the findings in the order they were recorded.
func (is *Issues) All() []Issue {
	return is.list
}

// Sorted returns a copy of the findings ordered by source position, with
// position-less findings first. Ties keep recording order.
func (is *Issues) Sorted() []Issue {
	out := make([]Issue, len(is.list))
	copy(out, is.list)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Start < out[b].Start })
	return out
}

// Filter returns the findings of at least the given severity, in recording
// order.
func (is *Issues) Filter(min Severity) []Issue {
	var out []Issue
	for _, i := range is.list {
		if i.Severity >= min {
			out = append(out, i)
		}
	}
	return out
}

// Errors returns the Error and Critical findings.
func (is *Issues) Errors() []Issue {
	return is.Filter(Error)
}

// Count returns how many findings of exactly the given severity were
// recorded.
func (is *Issues) Count(s Severity) int {
	if s < Note || s > Critical {
		return 0
	}
	return is.counts[s]
}

// Critical reports whether loading hit a critical finding, i.e. the pattern
// should not be used.
func (is *Issues) Critical() bool {
	return is.counts[Critical] > 0
}

// logLevel maps a finding onto the logger. The logger has no warn level;
// warnings surface as info.
func logIssue(logger log.Logger, i Issue) {
	if logger == nil {
		return
	}
	ctx := []any{"start", i.Start, "end", i.End}
	if i.Path != "" {
		ctx = append(ctx, "path", i.Path)
	}
	switch i.Severity {
	case Note:
		logger.Debug(i.Msg, ctx...)
	case Warning:
		logger.Info(i.Msg, ctx...)
	default:
		logger.Error(i.Msg, ctx...)
	}
}
