// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// ManifestPath is the archive entry holding the manifest.
const ManifestPath = "package.json"

// Well-known manifest keys.
const (
	KeyUUID       = "uuid"
	KeyName       = "name"
	KeyEncryptBot = "encrypt_bot"
	KeyFlows      = "flows"
)

// Manifest is a package manifest: a JSON object whose keys are
// unordered. Values decode with json.Number so numeric literals
// re-serialize exactly as they were read.
//
// Manifest values are immutable; With returns a modified copy.
type Manifest struct {
	fields map[string]any
}

// ParseManifest decodes a manifest. The document must be a JSON object.
func ParseManifest(data []byte) (Manifest, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return Manifest{}, malformed("manifest is not valid JSON", err)
	}
	if fields == nil {
		return Manifest{}, malformed("manifest is not a JSON object", nil)
	}
	if decoder.More() {
		return Manifest{}, malformed("manifest has trailing data", nil)
	}
	return Manifest{fields: fields}, nil
}

// NewManifest builds a manifest from JSON-compatible values (string,
// bool, json.Number or Go numbers, nil, []any, map[string]any).
func NewManifest(fields map[string]any) Manifest {
	return Manifest{fields: cloneMap(fields)}
}

// Get returns the raw value of key.
func (manifest Manifest) Get(key string) (any, bool) {
	value, ok := manifest.fields[key]
	return value, ok
}

// String returns the value of key if it is a string, else "".
func (manifest Manifest) String(key string) string {
	value, _ := manifest.fields[key].(string)
	return value
}

// StringOr returns the value of key if it is a non-empty string, else
// fallback.
func (manifest Manifest) StringOr(key, fallback string) string {
	if value := manifest.String(key); value != "" {
		return value
	}
	return fallback
}

// StringDefault returns the value of key if it is present and a
// string, even an empty one, else fallback.
func (manifest Manifest) StringDefault(key, fallback string) string {
	if value, ok := manifest.fields[key].(string); ok {
		return value
	}
	return fallback
}

// GetOr returns a copy of the value of key, or fallback when the key is
// absent. A present null is returned as nil.
func (manifest Manifest) GetOr(key string, fallback any) any {
	value, ok := manifest.fields[key]
	if !ok {
		return fallback
	}
	return cloneValue(value)
}

// UUID returns the manifest's app identity.
func (manifest Manifest) UUID() string { return manifest.String(KeyUUID) }

// Name returns the manifest's display name.
func (manifest Manifest) Name() string { return manifest.String(KeyName) }

// EncryptBot reports whether the payload is marked encrypted.
func (manifest Manifest) EncryptBot() bool {
	value, _ := manifest.fields[KeyEncryptBot].(bool)
	return value
}

// FlowCount returns the length of the flows list, or 0 when absent.
func (manifest Manifest) FlowCount() int {
	flows, _ := manifest.fields[KeyFlows].([]any)
	return len(flows)
}

// Len returns the number of top-level keys.
func (manifest Manifest) Len() int { return len(manifest.fields) }

// With returns a copy of the manifest with key set to value.
func (manifest Manifest) With(key string, value any) Manifest {
	fields := cloneMap(manifest.fields)
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields[key] = value
	return Manifest{fields: fields}
}

// Marshal serializes the manifest the way the platform writes it:
// 4-space indentation, no HTML escaping, non-ASCII text kept verbatim,
// and no trailing newline.
func (manifest Manifest) Marshal() ([]byte, error) {
	fields := manifest.fields
	if fields == nil {
		fields = map[string]any{}
	}
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(fields); err != nil {
		return nil, fmt.Errorf("artifact: encoding manifest: %w", err)
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

// Equal reports whether two manifests serialize identically.
func (manifest Manifest) Equal(other Manifest) bool {
	left, leftErr := manifest.Marshal()
	right, rightErr := other.Marshal()
	return leftErr == nil && rightErr == nil && bytes.Equal(left, right)
}

// MarshalJSON encodes the manifest as its JSON object.
func (manifest Manifest) MarshalJSON() ([]byte, error) {
	if manifest.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(manifest.fields)
}

// UnmarshalJSON decodes a JSON object into the manifest.
func (manifest *Manifest) UnmarshalJSON(data []byte) error {
	parsed, err := ParseManifest(data)
	if err != nil {
		return err
	}
	*manifest = parsed
	return nil
}

func cloneMap(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	clone := maps.Clone(fields)
	for key, value := range clone {
		clone[key] = cloneValue(value)
	}
	return clone
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		clone := make([]any, len(typed))
		for index, element := range typed {
			clone[index] = cloneValue(element)
		}
		return clone
	}
	return value
}
