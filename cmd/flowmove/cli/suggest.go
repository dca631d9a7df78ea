// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still worth
// suggesting. It catches transpositions and dropped characters.
const maxSuggestDistance = 3

// suggestCommand returns the name of the closest matching subcommand to
// the unknown input, or "" if nothing is close enough.
func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, len(commands))
	for index, command := range commands {
		names[index] = command.Name
	}
	return closest(unknown, names)
}

// suggestFlag finds the first unrecognized flag in args and returns the
// closest defined flag, formatted with its prefix. Returns "" if no
// good suggestion is found.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	if flagSet == nil {
		return ""
	}
	var defined []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		defined = append(defined, f.Name)
	})

	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if index := strings.IndexByte(name, '='); index >= 0 {
			name = name[:index]
		}
		if flagSet.Lookup(name) != nil {
			continue
		}
		if best := closest(name, defined); best != "" {
			return "--" + best
		}
		// Only the first unrecognized flag.
		break
	}
	return ""
}

func closest(unknown string, candidates []string) string {
	bestName := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range candidates {
		if distance := levenshtein(unknown, candidate); distance < bestDistance {
			bestDistance = distance
			bestName = candidate
		}
	}
	return bestName
}

// levenshtein computes the edit distance between two strings using a
// single row of the distance matrix.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous = current
	}
	return previous[len(a)]
}
