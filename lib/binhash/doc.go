// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes SHA-256 digests of executables, the format
// release checksum files publish. "flowmove version" reports the
// running binary's digest and can check it against an expected one.
package binhash
