// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"strings"
	"testing"
	"time"

	"github.com/flowmove/flowmove/lib/artifact"
)

func TestProvenanceSuffix(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got, want := ProvenanceSuffix(at), "_云迁_接收于2024年01月02日 03时04分05秒"; got != want {
		t.Errorf("ProvenanceSuffix = %q, want %q", got, want)
	}
}

func TestRewrite(t *testing.T) {
	original, err := artifact.ParseManifest([]byte(`{
		"uuid": "old",
		"name": "原名",
		"encrypt_bot": true,
		"icon": "i.png",
		"flows": [{"id": "a"}]
	}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	before, _ := original.Marshal()

	rewritten := Rewrite(original, "new-id", "原名", testTime)

	if rewritten.UUID() != "new-id" {
		t.Errorf("uuid = %q", rewritten.UUID())
	}
	if rewritten.EncryptBot() {
		t.Error("encrypt_bot still set")
	}
	if value, ok := rewritten.Get(artifact.KeyEncryptBot); !ok || value != false {
		t.Errorf("encrypt_bot = %v (present %v), want explicit false", value, ok)
	}
	if rewritten.Name() != "原名"+testSuffix {
		t.Errorf("name = %q", rewritten.Name())
	}
	if rewritten.String("icon") != "i.png" || rewritten.FlowCount() != 1 || rewritten.Len() != original.Len() {
		t.Error("pass-through fields changed")
	}

	after, _ := original.Marshal()
	if string(before) != string(after) {
		t.Error("Rewrite modified its input")
	}
}

func TestRewrite_AddsMissingFields(t *testing.T) {
	rewritten := Rewrite(artifact.NewManifest(nil), "id", "base", testTime)
	if rewritten.UUID() != "id" || !strings.HasPrefix(rewritten.Name(), "base"+ProvenanceMarker) {
		t.Errorf("rewritten = uuid %q name %q", rewritten.UUID(), rewritten.Name())
	}
	if _, ok := rewritten.Get(artifact.KeyEncryptBot); !ok {
		t.Error("encrypt_bot not added")
	}
}
