// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
)

type trashParams struct {
	GlobalParams
	Account string `json:"-" flag:"account" desc:"account name (required)"`
	Yes     bool   `json:"-" flag:"yes" desc:"do not ask for confirmation"`
}

func trashCommand(runtime *Runtime) *cli.Command {
	var params trashParams
	return &cli.Command{
		Name:    "trash",
		Summary: "Move remote apps to the account's recycle bin",
		Description: `Move the given app ids to the account's recycle bin. Use it to clean up
orphaned uploads reported by "flowmove journal --orphans".`,
		Usage: "flowmove trash --account <name> [--yes] <app-id>...",
		Examples: []cli.Example{
			{
				Description: "Recycle an orphan left by a failed migration",
				Command:     "flowmove trash --account team 2b6e4f0a-...",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return cli.Validation("at least one app id is required")
			}
			env, err := runtime.open(&params.GlobalParams, "trash")
			if err != nil {
				return err
			}
			defer env.close()

			client, err := env.platformClient()
			if err != nil {
				return err
			}
			session, err := env.login(ctx, client, params.Account)
			if err != nil {
				return err
			}

			env.notef("about to move %d app(s) of %s to the recycle bin:\n", len(args), params.Account)
			for _, id := range args {
				env.notef("  %s\n", id)
			}
			if confirmed, err := env.confirm(params.Yes, "Recycle these apps?"); err != nil || !confirmed {
				return err
			}

			trashed := 0
			for _, id := range args {
				if err := session.Trash(ctx, id); err != nil {
					env.logger.Error("trash failed", "app_id", id, "error", err)
					env.notef("failed: %s: %v\n", id, err)
					continue
				}
				env.logger.Info("trashed app", "app_id", id)
				trashed++
			}
			env.printf("trashed %d/%d\n", trashed, len(args))
			if trashed < len(args) {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
