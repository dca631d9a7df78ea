// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides flowmove's CBOR encoding configuration.
//
// JSON is used for everything the platform sees and for CLI --json
// output. CBOR is used for local state that only flowmove reads back,
// currently the migration journal. Keeping the modes here means the
// journal writer and every reader agree on one configuration.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
// Journal files are CBOR sequences (RFC 8742), one record after
// another with no framing, so they are written and read with the
// stream types:
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
//
// Types that are only ever journaled use `cbor` struct tags.
package codec
