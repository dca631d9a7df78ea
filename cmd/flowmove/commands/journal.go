// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/migrate"
)

type journalParams struct {
	GlobalParams
	cli.JSONOutput
	Orphans bool   `json:"-" flag:"orphans" desc:"only apps whose archive was uploaded but never registered"`
	Path    string `json:"-" flag:"path" desc:"journal file (default: journal_path from config)"`
}

func journalCommand(runtime *Runtime) *cli.Command {
	var params journalParams
	return &cli.Command{
		Name:    "journal",
		Summary: "Show recorded migration results",
		Description: `Show every migration result recorded in the journal, oldest first.

--orphans narrows the list to apps that reached the destination's
object storage without being registered. Their new ids can be passed
to "flowmove trash".`,
		Usage:  "flowmove journal [--orphans] [--json]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := runtime.open(&params.GlobalParams, "journal")
			if err != nil {
				return err
			}
			defer env.close()

			path := params.Path
			if path == "" {
				path = env.config.JournalPath
			}
			if path == "" {
				return cli.Validation("no journal: journal_path is not configured")
			}

			records, err := migrate.ReadJournal(path)
			if err != nil {
				return cli.Internal("read journal: %w", err)
			}
			if params.Orphans {
				records = migrate.OrphanRecords(records)
			}
			if done, err := params.EmitJSONTo(env.runtime.Out, records); done {
				return err
			}
			if len(records) == 0 {
				env.notef("no journal records in %s\n", path)
				return nil
			}
			env.printf("%s\n", env.renderer.Journal(records))
			return nil
		},
	}
}
