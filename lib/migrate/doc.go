// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package migrate moves apps into a destination account under a fresh
// identity, from the local cache or from another account.
//
// Each app runs through a fixed pipeline:
//
//	Idle -> IdentityMinted -> BotUploaded -> ManifestUploaded -> Registered
//
// with a transition to Aborted from any state on the first error. The
// archive is always uploaded before the manifest, and both before
// registration. Nothing is retried. A failure after BotUploaded leaves
// an orphaned upload on the platform; [Result.Orphaned] reports it and
// the [Journal] keeps a durable record so an operator can clean up.
//
// An [Orchestrator] migrates one app at a time. Progress is reported as
// [Event] values through Config.Observer and as OpenTelemetry spans;
// the package itself prints nothing.
package migrate
