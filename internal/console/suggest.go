// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance is the largest edit distance offered as a
// "did you mean" suggestion.
const maxSuggestionDistance = 3

type suggestion struct {
	name     string
	distance int
}

// similarNames returns up to limit names within maxSuggestionDistance edits
// of input, closest first and alphabetical within a distance.
func similarNames(names []string, input string, limit int) []string {
	if limit <= 0 || input == "" {
		return nil
	}

	var suggestions []suggestion
	for _, name := range names {
		dist := levenshtein.ComputeDistance(input, name)
		if dist > 0 && dist <= maxSuggestionDistance && dist < max(len(name), 2) {
			suggestions = append(suggestions, suggestion{name: name, distance: dist})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].distance != suggestions[j].distance {
			return suggestions[i].distance < suggestions[j].distance
		}
		return suggestions[i].name < suggestions[j].name
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.name
	}
	return out
}
