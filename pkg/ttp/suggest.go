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
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// closeMatches returns up to n candidates whose similarity to word is at
// least cutoff, best match first. Ties keep candidate order. Used for the
// did-you-mean suggestions on unknown identifier and group references.
func closeMatches(word string, candidates []string, n int, cutoff float64) []string {
	dmp := diffmatchpatch.New()
	type scored struct {
		name  string
		score float64
	}
	var kept []scored
	for _, cand := range candidates {
		s := similarity(dmp, word, cand)
		if s >= cutoff {
			kept = append(kept, scored{name: cand, score: s})
		}
	}
	sort.SliceStable(kept, func(a, b int) bool { return kept[a].score > kept[b].score })
	if len(kept) > n {
		kept = kept[:n]
	}
	names := make([]string, 0, len(kept))
	for _, k := range kept {
		names = append(names, k.name)
	}
	return names
}

// similarity scores two strings in [0, 1] from their Levenshtein distance
// relative to the longer string.
func similarity(dmp *diffmatchpatch.DiffMatchPatch, a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
	return 1 - float64(dist)/float64(longest)
}

// suggestion renders matches the way findings quote them, or "" when there
// is nothing to suggest.
func suggestion(matches []string) string {
	return strings.Join(matches, " or ")
}
