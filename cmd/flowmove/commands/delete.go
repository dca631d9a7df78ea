// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/localflow"
)

func deleteCommand(runtime *Runtime) *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete apps",
		Subcommands: []*cli.Command{
			deleteLocalCommand(runtime),
		},
	}
}

type deleteLocalParams struct {
	GlobalParams
	SelectionParams
	Root string `json:"-" flag:"root" desc:"cache root (default: local.root from config)"`
	Yes  bool   `json:"-" flag:"yes" desc:"do not ask for confirmation"`
}

func deleteLocalCommand(runtime *Runtime) *cli.Command {
	var params deleteLocalParams
	return &cli.Command{
		Name:    "local",
		Summary: "Remove apps from the local cache",
		Description: `Remove the selected apps' directories from the local cache. This
cannot be undone.

Without --yes the selection is listed and must be confirmed by typing
"yes"; a non-interactive run without --yes is refused.`,
		Usage:  "flowmove delete local [--app <id>... | --index <list> | --all] [--yes]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := runtime.open(&params.GlobalParams, "delete/local")
			if err != nil {
				return err
			}
			defer env.close()

			records, err := env.scan(params.Root)
			if err != nil {
				return err
			}
			indices, err := env.choose(&params.SelectionParams, env.localListing(records), "delete")
			if err != nil || len(indices) == 0 {
				return err
			}

			env.notef("about to delete:\n")
			for position, index := range indices {
				record := &records[index]
				env.notef("  %d. %s\n     %s\n", position+1, record.Name(), record.AppPath())
			}
			if confirmed, err := env.confirm(params.Yes, "Delete these apps?"); err != nil || !confirmed {
				return err
			}

			deleted := 0
			for _, index := range indices {
				record := &records[index]
				if err := localflow.Delete(record); err != nil {
					env.logger.Error("delete failed", "app_id", record.AppID, "error", err)
					env.notef("failed: %s: %v\n", record.Name(), err)
					continue
				}
				env.logger.Info("deleted local app", "app_id", record.AppID, "path", record.AppPath())
				deleted++
			}
			env.printf("deleted %d/%d\n", deleted, len(indices))
			if deleted < len(indices) {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// confirm asks the operator to approve a destructive action unless
// skip is set. Non-interactive runs must pass skip.
func (env *environment) confirm(skip bool, question string) (bool, error) {
	if skip {
		return true, nil
	}
	if !env.runtime.Prompter.Interactive() {
		return false, cli.Validation("refusing to proceed without confirmation: pass --yes")
	}
	confirmed, err := env.runtime.Prompter.Confirm(question)
	if err != nil {
		return false, cli.Validation("%w", err)
	}
	if !confirmed {
		env.notef("cancelled\n")
	}
	return confirmed, nil
}
