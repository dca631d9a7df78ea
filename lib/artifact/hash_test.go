// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHashDomainsDiffer(t *testing.T) {
	data := []byte("payload")
	if HashEntry(data) == HashArchive(data) {
		t.Error("entry and archive digests of the same bytes are equal")
	}
	if HashEntry(data) != HashEntry([]byte("payload")) {
		t.Error("HashEntry is not deterministic")
	}
}

func TestHash_TextRoundTrip(t *testing.T) {
	original := Entry{Name: "main/flow.py", Size: 7, Digest: HashEntry([]byte("payload"))}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), original.Digest.String()) {
		t.Errorf("encoded entry %s lacks the hex digest", data)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestHash_UnmarshalTextErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "short", text: "abcd"},
		{name: "long", text: strings.Repeat("0", 66)},
		{name: "not hex", text: strings.Repeat("zz", 32)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var hash Hash
			if err := hash.UnmarshalText([]byte(test.text)); err == nil {
				t.Errorf("UnmarshalText(%q) succeeded", test.text)
			}
		})
	}
}
