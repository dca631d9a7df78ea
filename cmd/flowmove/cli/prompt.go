// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter reads operator answers. Passwords are read without echo when
// the input is a terminal.
type Prompter struct {
	input  *bufio.Reader
	output io.Writer
	fd     int

	// terminal enables echo-free password reads on fd.
	terminal bool

	// interactive enables selection and confirmation prompts.
	interactive bool
}

// NewPrompter prompts on stderr and reads from stdin.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	terminal := term.IsTerminal(fd)
	return &Prompter{
		input:       bufio.NewReader(os.Stdin),
		output:      os.Stderr,
		fd:          fd,
		terminal:    terminal,
		interactive: terminal,
	}
}

// NewScriptedPrompter reads answers from input, as when stdin is piped.
func NewScriptedPrompter(input io.Reader, output io.Writer) *Prompter {
	return &Prompter{input: bufio.NewReader(input), output: output, fd: -1}
}

// NewOperatorPrompter reads answers from input as if an operator were
// typing them: selections and confirmations are prompted for, but
// passwords are read as plain lines.
func NewOperatorPrompter(input io.Reader, output io.Writer) *Prompter {
	prompter := NewScriptedPrompter(input, output)
	prompter.interactive = true
	return prompter
}

// Interactive reports whether an operator is answering.
func (prompter *Prompter) Interactive() bool {
	return prompter.interactive
}

// Line prints prompt and returns one trimmed line of input.
func (prompter *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(prompter.output, prompt)
	line, err := prompter.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Password prints prompt and reads a password. On a terminal echo is
// disabled; otherwise one line is read.
func (prompter *Prompter) Password(prompt string) ([]byte, error) {
	if !prompter.terminal {
		line, err := prompter.Line(prompt)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}
	fmt.Fprint(prompter.output, prompt)
	password, err := term.ReadPassword(prompter.fd)
	fmt.Fprintln(prompter.output)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// Confirm asks for the literal answer "yes". Anything else declines.
func (prompter *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := prompter.Line(prompt + " (type 'yes' to confirm): ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "yes"), nil
}

// ParseSelection parses a 1-based selection over count listed items:
// comma-separated numbers and ranges ("1,3,5-7") or "all". It returns
// 0-based indices in the order given, without duplicates. Numbers
// outside 1..count are returned in skipped rather than failing.
func ParseSelection(text string, count int) (indices []int, skipped []int, err error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "all") {
		indices = make([]int, count)
		for index := range indices {
			indices[index] = index
		}
		return indices, nil, nil
	}

	seen := make(map[int]bool)
	add := func(number int) {
		if number < 1 || number > count {
			skipped = append(skipped, number)
			return
		}
		if !seen[number] {
			seen[number] = true
			indices = append(indices, number-1)
		}
	}

	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		low, high, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(low))
		if err != nil {
			return nil, nil, Validation("invalid selection %q: not a number", part)
		}
		if !isRange {
			add(first)
			continue
		}
		last, err := strconv.Atoi(strings.TrimSpace(high))
		if err != nil || last < first {
			return nil, nil, Validation("invalid selection range %q", part)
		}
		for number := first; number <= last; number++ {
			add(number)
		}
	}
	return indices, skipped, nil
}
