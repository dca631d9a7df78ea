// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds account passwords while they are in use.
//
// A [Buffer] keeps its bytes outside the Go heap so the garbage
// collector never copies them. On Linux the memory is an anonymous
// mmap region, locked against swap when RLIMIT_MEMLOCK allows and
// excluded from core dumps. Elsewhere it is an ordinary allocation.
// Close zeroes the memory on every platform.
//
// [NewFromBytes] takes ownership of a password read from config or a
// prompt: the source slice is zeroed once copied.
package secret
