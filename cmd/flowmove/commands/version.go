// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/binhash"
	"github.com/flowmove/flowmove/lib/github"
	"github.com/flowmove/flowmove/lib/version"
)

const (
	releaseOwner = "flowmove"
	releaseRepo  = "flowmove"
)

type versionParams struct {
	cli.JSONOutput
	Check        bool   `json:"-" flag:"check" desc:"compare with the latest published release"`
	ExpectSHA256 string `json:"-" flag:"expect-sha256" desc:"exit 1 unless this binary has the given SHA-256 (hex or a sha256sum line)"`
}

type versionResult struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildTime string   `json:"build_time"`
	Binary    string   `json:"binary_sha256,omitempty"`
	Latest    string   `json:"latest,omitempty"`
	Newer     bool     `json:"update_available"`
	Release   string   `json:"release_url,omitempty"`
	Downloads []string `json:"downloads,omitempty"`
}

func versionCommand(runtime *Runtime) *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Description: `Print the build version and the SHA-256 of the running binary. With
--check, also query the latest GitHub release and report whether it is
newer. Nothing is downloaded.

--expect-sha256 compares the binary against a published checksum.`,
		Usage:  "flowmove version [--check] [--expect-sha256 <hex>] [--json]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			result := versionResult{
				Version:   version.Short(),
				Commit:    version.GitCommit,
				BuildTime: version.BuildTime,
			}
			var expected *binhash.Digest
			if params.ExpectSHA256 != "" {
				digest, err := binhash.ParseDigest(params.ExpectSHA256)
				if err != nil {
					return cli.Validation("--expect-sha256: %w", err)
				}
				expected = &digest
			}
			digest, path, err := binhash.HashExecutable()
			switch {
			case err == nil:
				result.Binary = digest.String()
			case expected != nil:
				return cli.Internal("%w", err)
			}
			if expected != nil && *expected != digest {
				fmt.Fprintf(runtime.Err, "%s: SHA-256 %s does not match the expected %s\n", path, digest, *expected)
				return &cli.ExitError{Code: 1}
			}
			if params.Check {
				if err := checkRelease(ctx, runtime, &result); err != nil {
					return err
				}
			}
			if done, err := params.EmitJSONTo(runtime.Out, result); done {
				return err
			}

			fmt.Fprintf(runtime.Out, "flowmove %s\n", version.Full())
			if result.Binary != "" {
				fmt.Fprintf(runtime.Out, "  SHA-256: %s\n", result.Binary)
			}
			if !params.Check {
				return nil
			}
			if !result.Newer {
				fmt.Fprintf(runtime.Out, "up to date (latest release %s)\n", result.Latest)
				return nil
			}
			fmt.Fprintf(runtime.Out, "update available: %s\n  %s\n", result.Latest, result.Release)
			for _, url := range result.Downloads {
				fmt.Fprintf(runtime.Out, "  %s\n", url)
			}
			return nil
		},
	}
}

func checkRelease(ctx context.Context, runtime *Runtime, result *versionResult) error {
	client, err := github.NewClient(github.Config{
		BaseURL:    runtime.GitHubBaseURL,
		HTTPClient: runtime.GitHubHTTPClient,
		Logger:     runtime.newLogger(slog.LevelWarn).With("command", "version"),
	})
	if err != nil {
		return cli.Validation("%w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	release, err := client.NewestStableRelease(ctx, releaseOwner, releaseRepo)
	switch {
	case github.IsNotFound(err):
		return cli.NotFound("no published releases of %s/%s", releaseOwner, releaseRepo)
	case github.IsRateLimited(err):
		return cli.Transient("release check rate limited: %w", err)
	case err != nil:
		return cli.Transient("release check: %w", err)
	}

	newer, err := version.Newer(result.Version, release.TagName)
	if err != nil {
		return cli.Internal("release check: %w", err)
	}
	result.Latest = release.TagName
	result.Newer = newer
	result.Release = release.HTMLURL
	result.Downloads = release.DownloadURLs()
	return nil
}
