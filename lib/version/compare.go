// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is a parsed major.minor.patch release number.
type Number struct {
	Major int
	Minor int
	Patch int
}

func (number Number) String() string {
	return fmt.Sprintf("%d.%d.%d", number.Major, number.Minor, number.Patch)
}

// Parse reads "major.minor" or "major.minor.patch" with an optional
// leading "v". A pre-release or build suffix after "-" or "+" is
// ignored, so "0.1.0-dev" parses as 0.1.0.
func Parse(text string) (Number, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(text), "v")
	if cut := strings.IndexAny(trimmed, "-+"); cut >= 0 {
		trimmed = trimmed[:cut]
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Number{}, fmt.Errorf("version %q: want major.minor[.patch]", text)
	}

	values := make([]int, 3)
	for index, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return Number{}, fmt.Errorf("version %q: component %q is not a number", text, part)
		}
		values[index] = value
	}
	return Number{Major: values[0], Minor: values[1], Patch: values[2]}, nil
}

// Compare returns -1, 0, or +1 as a is older than, equal to, or newer
// than b.
func Compare(a, b Number) int {
	for _, pair := range [][2]int{{a.Major, b.Major}, {a.Minor, b.Minor}, {a.Patch, b.Patch}} {
		switch {
		case pair[0] < pair[1]:
			return -1
		case pair[0] > pair[1]:
			return 1
		}
	}
	return 0
}

// Newer reports whether candidate is a strictly later release than
// current. Both strings go through Parse.
func Newer(current, candidate string) (bool, error) {
	currentNumber, err := Parse(current)
	if err != nil {
		return false, err
	}
	candidateNumber, err := Parse(candidate)
	if err != nil {
		return false, err
	}
	return Compare(candidateNumber, currentNumber) > 0, nil
}
