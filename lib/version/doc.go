// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information and release
// number comparison for the update check.
//
// # Build information
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- release version string (set manually for releases)
//
// For example:
//
//	go build -ldflags "-X github.com/flowmove/flowmove/lib/version.Version=1.4.0"
//
// # Release comparison
//
// [Parse] accepts release tags in the form major.minor[.patch] with an
// optional "v" prefix. [Newer] reports whether a published tag is later
// than the running build.
package version
