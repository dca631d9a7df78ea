// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/platform"
)

func appsCommand(runtime *Runtime) *cli.Command {
	return &cli.Command{
		Name:    "apps",
		Summary: "Inspect a platform account's catalog",
		Subcommands: []*cli.Command{
			appsListCommand(runtime),
		},
	}
}

type appsListParams struct {
	GlobalParams
	cli.JSONOutput
	Account string `json:"-" flag:"account" desc:"account name (required)"`
}

func appsListCommand(runtime *Runtime) *cli.Command {
	var params appsListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List every app in an account",
		Description: `List the account's apps across all catalog pages.

If a page fails, the apps fetched so far are still printed and the
command exits with a transient error.`,
		Usage:  "flowmove apps list --account <name> [--json]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := runtime.open(&params.GlobalParams, "apps/list")
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

			apps, listErr := session.ListApps(ctx)
			var partial *platform.PartialListError
			if listErr != nil && !errors.As(listErr, &partial) {
				return classify("list apps", listErr)
			}

			if done, err := params.EmitJSONTo(env.runtime.Out, apps); done {
				if err != nil {
					return err
				}
			} else if len(apps) > 0 {
				env.printf("%s\n", env.renderer.Apps(apps))
			}
			if listErr != nil {
				return cli.Transient("listing incomplete: %w", listErr)
			}
			env.notef("%d app(s)\n", len(apps))
			return nil
		},
	}
}

// listApps fetches a source catalog for selection. A partial listing
// is usable: the operator can still pick from what arrived.
func listApps(ctx context.Context, env *environment, session *platform.Session) ([]platform.App, error) {
	apps, err := session.ListApps(ctx)
	var partial *platform.PartialListError
	switch {
	case errors.As(err, &partial):
		env.notef("warning: %v; selecting from the %d app(s) fetched\n", err, len(apps))
	case err != nil:
		return nil, classify("list apps", err)
	}
	if len(apps) == 0 {
		env.notef("the account has no apps\n")
	}
	return apps, nil
}
