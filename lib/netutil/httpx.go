// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body reads and diagnostic
// helpers shared by the platform clients.
//
// JSON API responses are capped at MaxResponseSize. Artifact downloads
// use ReadArtifact, which allows a larger bound because robot packages
// embed images and bundled dependencies.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxResponseSize bounds JSON API response body reads: 64 MB.
const MaxResponseSize int64 = 64 << 20

// MaxArtifactSize bounds artifact downloads: 2 GB.
const MaxArtifactSize int64 = 2 << 30

// ReadResponse reads a JSON API response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ReadArtifact reads a binary artifact body up to MaxArtifactSize bytes.
// Returns an error when the body exceeds the bound instead of silently
// truncating: a truncated archive would only fail later, far from the
// download that caused it.
func ReadArtifact(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxArtifactSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxArtifactSize {
		return nil, fmt.Errorf("artifact exceeds %d bytes", MaxArtifactSize)
	}
	return data, nil
}

// DecodeResponse reads a JSON API response body (up to MaxResponseSize
// bytes) and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns at most limit
// bytes of it for diagnostic messages. Read errors are ignored.
func ErrorBody(body io.Reader, limit int) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return Snippet(data, limit)
}

// Snippet returns the first limit bytes of data as a string. A rune
// split by the cut is dropped, and invalid bytes elsewhere are replaced
// with U+FFFD so binary noise does not hide the readable remainder.
func Snippet(data []byte, limit int) string {
	cut := data
	if limit > 0 && len(data) > limit {
		cut = trimPartialRune(data[:limit])
	}
	return strings.ToValidUTF8(string(cut), "\uFFFD")
}

// trimPartialRune drops an incomplete multi-byte sequence from the end
// of data.
func trimPartialRune(data []byte) []byte {
	for back := 1; back <= utf8.UTFMax && back <= len(data); back++ {
		start := len(data) - back
		if !utf8.RuneStart(data[start]) {
			continue
		}
		if !utf8.FullRune(data[start:]) {
			return data[:start]
		}
		break
	}
	return data
}

// TruncateURL shortens a pre-signed URL for log and error output.
// Signed query strings are long and carry credentials that should not
// be copied around in full.
func TruncateURL(url string, limit int) string {
	if limit <= 0 || len(url) <= limit {
		return url
	}
	return url[:limit] + "..."
}
