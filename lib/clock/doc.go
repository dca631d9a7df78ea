// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall clock.
//
// Code that stamps values with the current time (migration name
// suffixes, journal records, log timestamps) takes a Clock instead of
// calling time.Now directly. Production wiring uses Real(); tests use
// Fake() so that generated names are deterministic:
//
//	c := clock.Fake(time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local))
//	orchestrator, _ := migrate.New(migrate.Config{Clock: c, ...})
//	c.Advance(time.Minute)
package clock
