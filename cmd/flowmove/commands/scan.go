// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"time"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/localflow"
)

type scanParams struct {
	GlobalParams
	cli.JSONOutput
	Root string `json:"-" flag:"root" desc:"cache root (default: local.root from config)"`
}

// scanEntry is one row of scan output.
type scanEntry struct {
	Index   int       `json:"index"`
	Name    string    `json:"name"`
	AppID   string    `json:"app_id"`
	UUID    string    `json:"uuid"`
	UserID  string    `json:"user_id"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

func scanCommand(runtime *Runtime) *cli.Command {
	var params scanParams
	return &cli.Command{
		Name:    "scan",
		Summary: "List apps in the local cache",
		Description: `List every app found under the local cache root, newest first.

The index column is what --index selections in "migrate local" and
"delete local" refer to.`,
		Usage:  "flowmove scan [--root <dir>] [--json]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := runtime.open(&params.GlobalParams, "scan")
			if err != nil {
				return err
			}
			defer env.close()

			records, err := env.scan(params.Root)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSONTo(env.runtime.Out, scanEntries(records)); done {
				return err
			}
			if len(records) == 0 {
				env.notef("no apps found under %s\n", env.config.Local.Root)
				return nil
			}
			env.printf("%s\n", env.renderer.LocalFlows(records))
			return nil
		},
	}
}

func scanEntries(records []localflow.Record) []scanEntry {
	entries := make([]scanEntry, len(records))
	for index := range records {
		record := &records[index]
		entries[index] = scanEntry{
			Index:   index + 1,
			Name:    record.Name(),
			AppID:   record.AppID,
			UUID:    record.UUID(),
			UserID:  record.UserID,
			Path:    record.AppPath(),
			ModTime: record.ModTime,
		}
	}
	return entries
}
