// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Digest is a SHA-256 file digest.
type Digest [32]byte

// String returns the lowercase hex encoding, as in sha256sum output.
func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// HashFile streams the file at path through SHA-256.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// HashExecutable hashes the running binary, following symlinks.
func HashExecutable() (Digest, string, error) {
	path, err := os.Executable()
	if err != nil {
		return Digest{}, "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	digest, err := HashFile(path)
	return digest, path, err
}

// ParseDigest parses a hex digest. A trailing sha256sum file name
// ("<hex>  flowmove") is ignored.
func ParseDigest(text string) (Digest, error) {
	var digest Digest
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return digest, fmt.Errorf("empty digest")
	}
	decoded, err := hex.DecodeString(fields[0])
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
