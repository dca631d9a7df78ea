// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package render formats scan results, catalog listings, migration
// results and journal records as terminal tables.
package render
