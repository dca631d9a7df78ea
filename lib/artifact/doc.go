// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact reads and writes robot packages: deflate zip
// archives (conventionally *.bot) holding a relative-path file tree
// with a JSON manifest at the fixed top-level path package.json.
//
// Three transforms cover every way flowmove produces a package:
//
//   - [ExtractManifest] parses the manifest out of an archive.
//   - [ReplaceManifest] copies an archive entry by entry, substituting
//     only the manifest. Payload entries are opaque and may contain
//     executable logic; their names and bytes are preserved exactly.
//   - [BuildFromDirectory] packs a local app directory, writing the
//     manifest from memory rather than trusting the copy on disk.
//
// Entry content is fingerprinted with keyed BLAKE3 ([HashEntry]) so
// callers can prove that a rewrite left the payload untouched
// ([VerifyPayloadPreserved]).
package artifact
