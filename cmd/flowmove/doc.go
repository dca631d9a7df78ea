// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Flowmove migrates automation apps between accounts of an automation
// platform. It reads apps from the local designer cache (scan, inspect,
// migrate local, delete local) or from a source account's catalog
// (apps list, migrate remote), uploads them under a fresh identity, and
// records every result in a journal (journal, trash).
package main
