// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/localflow"
	"github.com/flowmove/flowmove/lib/migrate"
	"github.com/flowmove/flowmove/lib/platform"
	"github.com/flowmove/flowmove/lib/render"
)

func migrateCommand(runtime *Runtime) *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Summary: "Copy apps into a destination account under new identities",
		Description: `Copy apps into a destination account. Every migrated app gets a fresh
identity and a name suffixed with the time it was received, so the
destination never collides with the source.

Apps are migrated one at a time. A failure aborts that app only; the
batch continues and the exit status is 1 if any app failed. Apps whose
archive was uploaded before the failure are reported as orphaned
uploads and recorded in the journal.`,
		Subcommands: []*cli.Command{
			migrateLocalCommand(runtime),
			migrateRemoteCommand(runtime),
		},
	}
}

type migrateLocalParams struct {
	GlobalParams
	SelectionParams
	cli.JSONOutput
	To   string `json:"-" flag:"to" desc:"destination account name (required)"`
	Root string `json:"-" flag:"root" desc:"cache root (default: local.root from config)"`
}

func migrateLocalCommand(runtime *Runtime) *cli.Command {
	var params migrateLocalParams
	return &cli.Command{
		Name:    "local",
		Summary: "Migrate apps from the local cache",
		Usage:   "flowmove migrate local --to <account> [--app <id>... | --index <list> | --all]",
		Examples: []cli.Example{
			{
				Description: "Pick apps interactively from the scan listing",
				Command:     "flowmove migrate local --to team",
			},
			{
				Description: "Migrate two cached apps by id",
				Command:     "flowmove migrate local --to team --app 7f3c... --app 91ab...",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.To == "" {
				return cli.Validation("--to is required")
			}
			env, err := runtime.open(&params.GlobalParams, "migrate/local")
			if err != nil {
				return err
			}
			defer env.close()

			records, err := env.scan(params.Root)
			if err != nil {
				return err
			}
			indices, err := env.choose(&params.SelectionParams, env.localListing(records), "migrate")
			if err != nil || len(indices) == 0 {
				return err
			}
			selected := make([]localflow.Record, len(indices))
			for position, index := range indices {
				selected[position] = records[index]
			}

			client, err := env.platformClient()
			if err != nil {
				return err
			}
			destination, err := env.login(ctx, client, params.To)
			if err != nil {
				return err
			}
			orchestrator, err := env.orchestrator(client, destination, len(selected))
			if err != nil {
				return err
			}

			summary := orchestrator.MigrateLocal(ctx, selected)
			return env.report(&params.JSONOutput, summary)
		},
	}
}

type migrateRemoteParams struct {
	GlobalParams
	SelectionParams
	cli.JSONOutput
	From string `json:"-" flag:"from" desc:"source account name (required)"`
	To   string `json:"-" flag:"to" desc:"destination account name (required)"`
}

func migrateRemoteCommand(runtime *Runtime) *cli.Command {
	var params migrateRemoteParams
	return &cli.Command{
		Name:    "remote",
		Summary: "Migrate apps from another platform account",
		Description: `Download apps from the source account's catalog, rewrite their
identity, and register them in the destination account.

With --app the catalog is not listed: the ids are fetched directly and
the name comes from each archive's manifest.`,
		Usage: "flowmove migrate remote --from <account> --to <account> [--app <id>... | --index <list> | --all]",
		Examples: []cli.Example{
			{
				Description: "Copy every app of one account into another",
				Command:     "flowmove migrate remote --from old --to new --all",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.From == "" || params.To == "" {
				return cli.Validation("--from and --to are required")
			}
			env, err := runtime.open(&params.GlobalParams, "migrate/remote")
			if err != nil {
				return err
			}
			defer env.close()

			client, err := env.platformClient()
			if err != nil {
				return err
			}
			source, err := env.login(ctx, client, params.From)
			if err != nil {
				return err
			}

			selected, err := env.chooseRemote(ctx, source, &params.SelectionParams, "migrate")
			if err != nil || len(selected) == 0 {
				return err
			}

			// Sessions are independent; logging in to the destination
			// does not disturb the source token.
			destination, err := env.login(ctx, client, params.To)
			if err != nil {
				return err
			}
			orchestrator, err := env.orchestrator(client, destination, len(selected))
			if err != nil {
				return err
			}

			summary := orchestrator.MigrateRemote(ctx, source, selected)
			return env.report(&params.JSONOutput, summary)
		},
	}
}

// chooseRemote resolves a selection against a source account. Explicit
// ids skip the catalog listing.
func (env *environment) chooseRemote(ctx context.Context, source *platform.Session, selection *SelectionParams, verb string) ([]platform.App, error) {
	if len(selection.Apps) > 0 && selection.modes() == 1 {
		apps := make([]platform.App, len(selection.Apps))
		for index, id := range selection.Apps {
			apps[index] = platform.App{AppID: id}
		}
		return apps, nil
	}

	apps, err := listApps(ctx, env, source)
	if err != nil {
		return nil, err
	}
	indices, err := env.choose(selection, listing{
		count: len(apps),
		find: func(id string) (int, bool) {
			for index := range apps {
				if apps[index].AppID == id {
					return index, true
				}
			}
			return 0, false
		},
		table: func() string { return env.renderer.Apps(apps) },
	}, verb)
	if err != nil {
		return nil, err
	}
	selected := make([]platform.App, len(indices))
	for position, index := range indices {
		selected[position] = apps[index]
	}
	return selected, nil
}

// orchestrator builds the migration orchestrator for one batch,
// journaling when journal_path is set and reporting progress on stderr.
func (env *environment) orchestrator(client *platform.Client, destination *platform.Session, total int) (*migrate.Orchestrator, error) {
	var journal *migrate.Journal
	if env.config.JournalPath != "" {
		journal = migrate.OpenJournal(env.config.JournalPath)
	}

	var current migrate.Source
	started := 0
	orchestrator, err := migrate.New(migrate.Config{
		Destination: destination,
		Transfer:    client,
		Journal:     journal,
		Logger:      env.logger,
		Observer: func(event migrate.Event) {
			if event.Source != current {
				current = event.Source
				started++
				env.notef("[%d/%d] %s\n", started, total, render.Truncate(sourceLabel(event.Source), render.DefaultNameWidth))
			}
			if event.State == migrate.IdentityMinted {
				env.notef("      new id %s\n", event.Identity)
			}
			if event.Err != nil {
				env.notef("      failed: %v\n", event.Err)
			}
		},
	})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return orchestrator, nil
}

func sourceLabel(source migrate.Source) string {
	if source.Name != "" {
		return source.Name
	}
	return source.ID
}

// report prints a batch's results and converts failures into exit
// status 1.
func (env *environment) report(output *cli.JSONOutput, summary migrate.Summary) error {
	if done, err := output.EmitJSONTo(env.runtime.Out, batchResult(summary)); done {
		if err != nil {
			return err
		}
	} else {
		env.printf("%s\n", env.renderer.Results(summary))
	}

	if orphans := summary.Orphans(); len(orphans) > 0 {
		env.notef("%d archive(s) were uploaded but never registered; see 'flowmove journal --orphans'\n", len(orphans))
	}
	if len(summary.Failed()) > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// resultEntry is the JSON form of a migrate.Result: the error becomes
// its message.
type resultEntry struct {
	migrate.Result
	State    string `json:"state"`
	Orphaned bool   `json:"orphaned"`
	Error    string `json:"error,omitempty"`
}

type batchOutput struct {
	Results   []resultEntry `json:"results"`
	Succeeded int           `json:"succeeded"`
	Total     int           `json:"total"`
	Summary   string        `json:"summary"`
}

func batchResult(summary migrate.Summary) batchOutput {
	entries := make([]resultEntry, len(summary.Results))
	for index, result := range summary.Results {
		entries[index] = resultEntry{Result: result, State: result.State().String(), Orphaned: result.Orphaned()}
		if result.Err != nil {
			entries[index].Error = result.Err.Error()
		}
	}
	return batchOutput{
		Results:   entries,
		Succeeded: summary.Succeeded(),
		Total:     summary.Total(),
		Summary:   fmt.Sprint(summary),
	}
}
