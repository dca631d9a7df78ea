// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"os"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/artifact"
	"github.com/flowmove/flowmove/lib/netutil"
)

type inspectParams struct {
	GlobalParams
	cli.JSONOutput
}

type inspectResult struct {
	Path       string           `json:"path"`
	Size       int              `json:"size"`
	Digest     string           `json:"blake3"`
	UUID       string           `json:"uuid"`
	Name       string           `json:"name"`
	EncryptBot bool             `json:"encrypt_bot"`
	Flows      int              `json:"flows"`
	Keys       int              `json:"manifest_keys"`
	Entries    []artifact.Entry `json:"entries"`
}

func inspectCommand(runtime *Runtime) *cli.Command {
	var params inspectParams
	return &cli.Command{
		Name:    "inspect",
		Summary: "Show an archive's manifest identity and entry digests",
		Description: `Read a .bot archive and print the identity fields of its manifest
(uuid, name, encrypt_bot, flow count) followed by every entry with its
BLAKE3 payload digest.

Comparing the digests of an archive before and after migration shows
that only package.json changed.`,
		Usage:  "flowmove inspect <file.bot> [--json]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one archive path")
			}
			env, err := runtime.open(&params.GlobalParams, "inspect")
			if err != nil {
				return err
			}
			defer env.close()

			result, err := inspectArchive(args[0])
			if err != nil {
				return err
			}
			if done, err := params.EmitJSONTo(env.runtime.Out, result); done {
				return err
			}

			env.printf("archive:     %s (%d bytes, blake3 %s)\n", result.Path, result.Size, result.Digest)
			env.printf("uuid:        %s\n", result.UUID)
			env.printf("name:        %s\n", result.Name)
			env.printf("encrypt_bot: %t\n", result.EncryptBot)
			env.printf("flows:       %d\n", result.Flows)
			env.printf("keys:        %d\n\n", result.Keys)
			env.printf("%s\n", env.renderer.Entries(result.Entries))
			return nil
		},
	}
}

func inspectArchive(path string) (*inspectResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, classify("open archive", err)
	}
	defer file.Close()
	archive, err := netutil.ReadArtifact(file)
	if err != nil {
		return nil, cli.Validation("read %s: %w", path, err)
	}

	manifest, err := artifact.ExtractManifest(archive)
	if err != nil {
		return nil, classify("read manifest of "+path, err)
	}
	entries, err := artifact.Entries(archive)
	if err != nil {
		return nil, classify("list entries of "+path, err)
	}

	return &inspectResult{
		Path:       path,
		Size:       len(archive),
		Digest:     artifact.HashArchive(archive).String(),
		UUID:       manifest.UUID(),
		Name:       manifest.Name(),
		EncryptBot: manifest.EncryptBot(),
		Flows:      manifest.FlowCount(),
		Keys:       manifest.Len(),
		Entries:    entries,
	}, nil
}
