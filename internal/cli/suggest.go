// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Command suggestion for typo correction.
package cli

import (
	"strings"
)

// validCommands is the list of all valid why2 commands.
var validCommands = []string{
	"history",
	"hist",
	"config",
	"version",
	"help",
}

// maxSuggestDistance is the largest edit distance still offered as a fix.
const maxSuggestDistance = 2

// SuggestCommand returns the closest valid command to input, or "" when
// nothing is close enough.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)
	if input == "" {
		return ""
	}

	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, cmd := range validCommands {
		if cmd == input {
			return ""
		}
		d := levenshteinDistance(input, cmd)
		if d < bestDistance {
			best = cmd
			bestDistance = d
		}
	}
	return best
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
