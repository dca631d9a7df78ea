// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/localflow"
)

// SelectionParams choose apps from a listing. At most one of the three
// may be given; with none, an interactive terminal is prompted.
type SelectionParams struct {
	Apps  []string `json:"-" flag:"app" desc:"app id to select (repeatable)"`
	Index string   `json:"-" flag:"index" desc:"1-based positions in the listing, e.g. 1,3,5-7"`
	All   bool     `json:"-" flag:"all" desc:"select every listed app"`
}

func (selection *SelectionParams) modes() int {
	count := 0
	if len(selection.Apps) > 0 {
		count++
	}
	if selection.Index != "" {
		count++
	}
	if selection.All {
		count++
	}
	return count
}

// listing describes the items a selection is made from.
type listing struct {
	count int

	// find returns the position of the item with the given id.
	find func(id string) (int, bool)

	// table renders the items for the interactive prompt.
	table func() string
}

// choose resolves the selection to positions in the listing. An empty
// result with a nil error means the operator cancelled.
func (env *environment) choose(selection *SelectionParams, items listing, verb string) ([]int, error) {
	switch selection.modes() {
	case 0:
	case 1:
		if selection.All {
			if items.count == 0 {
				return nil, nil
			}
			indices, _, err := cli.ParseSelection("all", items.count)
			return indices, err
		}
	default:
		return nil, cli.Validation("--app, --index, and --all are mutually exclusive")
	}

	if len(selection.Apps) > 0 {
		indices := make([]int, 0, len(selection.Apps))
		var missing []string
		for _, id := range selection.Apps {
			index, ok := items.find(id)
			if !ok {
				missing = append(missing, id)
				continue
			}
			indices = append(indices, index)
		}
		if len(missing) > 0 {
			return nil, cli.NotFound("no listed app with id %q", missing)
		}
		return indices, nil
	}

	text := selection.Index
	if text == "" {
		if !env.runtime.Prompter.Interactive() {
			return nil, cli.Validation("nothing selected: pass --app, --index, or --all")
		}
		env.notef("%s\n", items.table())
		answer, err := env.runtime.Prompter.Line("Select apps to " + verb + " (e.g. 1,3,5; empty to cancel): ")
		if err != nil {
			return nil, cli.Validation("%w", err)
		}
		if answer == "" {
			env.notef("cancelled\n")
			return nil, nil
		}
		text = answer
	}

	indices, skipped, err := cli.ParseSelection(text, items.count)
	if err != nil {
		return nil, err
	}
	for _, number := range skipped {
		env.notef("warning: no app at position %d, skipped\n", number)
	}
	if len(indices) == 0 {
		return nil, cli.Validation("no valid positions in %q", text)
	}
	return indices, nil
}

// localListing selects from a cache scan by app directory or manifest
// uuid.
func (env *environment) localListing(records []localflow.Record) listing {
	return listing{
		count: len(records),
		find: func(id string) (int, bool) {
			return localflow.Find(records, id)
		},
		table: func() string { return env.renderer.LocalFlows(records) },
	}
}
