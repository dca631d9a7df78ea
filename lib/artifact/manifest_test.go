// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestManifestMarshal_Format(t *testing.T) {
	manifest, err := ParseManifest([]byte(`{"name":"采购<审批>","uuid":"u-1","size":12345678901234567890}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	data, err := manifest.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := "{\n    \"name\": \"采购<审批>\",\n    \"size\": 12345678901234567890,\n    \"uuid\": \"u-1\"\n}"
	if string(data) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestParseManifest_Rejects(t *testing.T) {
	for _, input := range []string{"null", "[]", `"x"`, `{"a":1}{"b":2}`, ""} {
		if _, err := ParseManifest([]byte(input)); !IsMalformed(err) {
			t.Errorf("ParseManifest(%q) error = %v, want MalformedArtifactError", input, err)
		}
	}
}

func TestManifestWith_IsPure(t *testing.T) {
	original := NewManifest(map[string]any{
		"uuid":  "old",
		"flows": []any{map[string]any{"id": "f1"}},
	})
	updated := original.With("uuid", "new")

	if original.UUID() != "old" {
		t.Errorf("original UUID changed to %q", original.UUID())
	}
	if updated.UUID() != "new" {
		t.Errorf("updated UUID = %q, want new", updated.UUID())
	}

	// Nested values of the copy must not alias the original's.
	copied, _ := updated.Get("flows")
	copied.([]any)[0].(map[string]any)["id"] = "mutated"
	value, _ := original.Get("flows")
	if id := value.([]any)[0].(map[string]any)["id"]; id != "f1" {
		t.Errorf("original flows mutated through the copy: id = %v", id)
	}
}

func TestManifestDefaults(t *testing.T) {
	manifest, err := ParseManifest([]byte(`{
		"icon": "",
		"description": "日报",
		"robot_type": "",
		"external_dependencies": [],
		"internaldependencies": ["lib-a"],
		"ipaasDependencies": null,
		"uia_type": 7
	}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	stringTests := []struct {
		name string
		got  string
		want string
	}{
		{name: "StringOr empty", got: manifest.StringOr("icon", "none"), want: "none"},
		{name: "StringOr present", got: manifest.StringOr("description", "none"), want: "日报"},
		{name: "StringOr absent", got: manifest.StringOr("instruction", "none"), want: "none"},
		{name: "StringDefault empty", got: manifest.StringDefault("robot_type", "app"), want: ""},
		{name: "StringDefault absent", got: manifest.StringDefault("name", "未命名"), want: "未命名"},
		{name: "StringDefault non-string", got: manifest.StringDefault("uia_type", "PC"), want: "PC"},
	}
	for _, test := range stringTests {
		if test.got != test.want {
			t.Errorf("%s = %q, want %q", test.name, test.got, test.want)
		}
	}

	fallback := []any{"fallback"}
	valueTests := []struct {
		key  string
		want any
	}{
		{key: "external_dependencies", want: []any{}},
		{key: "internaldependencies", want: []any{"lib-a"}},
		{key: "ipaasDependencies", want: nil},
		{key: "internalautodependencies", want: fallback},
	}
	for _, test := range valueTests {
		got := manifest.GetOr(test.key, fallback)
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("GetOr(%q) = %#v, want %#v", test.key, got, test.want)
		}
	}
}

func TestManifestJSON(t *testing.T) {
	manifest := NewManifest(map[string]any{"uuid": "u", "name": "n"})
	data, err := json.Marshal(struct {
		Manifest Manifest `json:"manifest"`
	}{manifest})
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"uuid":"u"`) {
		t.Errorf("json.Marshal = %s", data)
	}

	var decoded struct {
		Manifest Manifest `json:"manifest"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if !decoded.Manifest.Equal(manifest) {
		t.Errorf("decoded manifest differs")
	}
}

func TestManifestEqual_NumberForms(t *testing.T) {
	parsed, err := ParseManifest([]byte(`{"count":3}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	built := NewManifest(map[string]any{"count": 3})
	if !parsed.Equal(built) {
		t.Error("manifests with equal serializations compare unequal")
	}
	if parsed.Equal(built.With("count", 4)) {
		t.Error("different manifests compare equal")
	}
}
