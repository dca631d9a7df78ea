// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the flowmove command tree. Each command
// resolves its configuration through a Runtime so tests can drive the
// whole tree with in-memory streams and a scripted prompter.
package commands

import (
	"github.com/flowmove/flowmove/cmd/flowmove/cli"
)

// Root builds the command tree bound to the process's standard streams.
func Root() *cli.Command {
	return newRoot(DefaultRuntime())
}

func newRoot(runtime *Runtime) *cli.Command {
	return &cli.Command{
		Name: "flowmove",
		Description: `flowmove: move automation apps between accounts.

Migrates apps from the local designer cache or from one platform
account to another. Each migrated app gets a fresh identity and a
provenance-stamped name, and every outcome is recorded in a journal.`,
		Examples: []cli.Example{
			{
				Description: "List apps in the local cache",
				Command:     "flowmove scan",
			},
			{
				Description: "Migrate cached apps 1 and 3 to the team account",
				Command:     "flowmove migrate local --to team --index 1,3",
			},
			{
				Description: "Copy every app from one account to another",
				Command:     "flowmove migrate remote --from personal --to team --all",
			},
			{
				Description: "Find uploads left behind by failed migrations",
				Command:     "flowmove journal --orphans",
			},
		},
		Output: runtime.Err,
		Subcommands: []*cli.Command{
			scanCommand(runtime),
			inspectCommand(runtime),
			accountCommand(runtime),
			appsCommand(runtime),
			migrateCommand(runtime),
			deleteCommand(runtime),
			trashCommand(runtime),
			journalCommand(runtime),
			versionCommand(runtime),
		},
	}
}
