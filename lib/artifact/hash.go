// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte keyed BLAKE3 digest.
type Hash [32]byte

// String returns the hex encoding of the hash.
func (hash Hash) String() string {
	return hex.EncodeToString(hash[:])
}

// MarshalText encodes the hash as lowercase hex.
func (hash Hash) MarshalText() ([]byte, error) {
	return []byte(hash.String()), nil
}

// UnmarshalText decodes a 64-character hex digest.
func (hash *Hash) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(hash) {
		return fmt.Errorf("artifact: hash is %d hex characters, want %d", len(text), hex.EncodedLen(len(hash)))
	}
	if _, err := hex.Decode(hash[:], text); err != nil {
		return fmt.Errorf("artifact: hash: %w", err)
	}
	return nil
}

// Short returns the first 12 hex characters, for tables.
func (hash Hash) Short() string {
	return hash.String()[:12]
}

type domainKey [32]byte

// Domain keys are the ASCII domain name zero-padded to 32 bytes.
// Changing one invalidates every digest recorded in that domain.
var (
	entryDomainKey = domainKey{
		'f', 'l', 'o', 'w', 'm', 'o', 'v', 'e', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c',
		't', '.', 'e', 'n', 't', 'r', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	archiveDomainKey = domainKey{
		'f', 'l', 'o', 'w', 'm', 'o', 'v', 'e', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c',
		't', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e', 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashEntry computes the entry-domain digest of an archive entry's
// uncompressed content.
func HashEntry(data []byte) Hash {
	return keyedHash(entryDomainKey, data)
}

// HashArchive computes the archive-domain digest of a whole package.
// Migration events carry it so an uploaded object can be matched to
// the bytes flowmove produced.
func HashArchive(data []byte) Hash {
	return keyedHash(archiveDomainKey, data)
}

func keyedHash(key domainKey, data []byte) Hash {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var result Hash
	copy(result[:], hasher.Sum(nil))
	return result
}
