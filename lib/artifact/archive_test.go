// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

type testEntry struct {
	name    string
	content []byte
	method  uint16
}

// buildArchive writes entries in order into a zip archive.
func buildArchive(t *testing.T, entries []testEntry) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, entry := range entries {
		method := entry.method
		if method == 0 {
			method = zip.Deflate
		}
		entryWriter, err := writer.CreateHeader(&zip.FileHeader{Name: entry.name, Method: method})
		if err != nil {
			t.Fatalf("CreateHeader(%s): %v", entry.name, err)
		}
		if _, err := entryWriter.Write(entry.content); err != nil {
			t.Fatalf("Write(%s): %v", entry.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buffer.Bytes()
}

// readArchive returns entry names in order and contents by name.
func readArchive(t *testing.T, archive []byte) ([]string, map[string][]byte) {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	var names []string
	contents := make(map[string][]byte)
	for _, file := range reader.File {
		names = append(names, file.Name)
		source, err := file.Open()
		if err != nil {
			t.Fatalf("Open(%s): %v", file.Name, err)
		}
		data, err := io.ReadAll(source)
		source.Close()
		if err != nil {
			t.Fatalf("ReadAll(%s): %v", file.Name, err)
		}
		contents[file.Name] = data
	}
	return names, contents
}

// binaryPayload has bytes that would not survive any text
// normalization: NULs, invalid UTF-8, CRLF.
var binaryPayload = []byte{0x00, 0xff, 0xfe, '\r', '\n', 0x80, 'x', 0x00}

func sampleArchive(t *testing.T) []byte {
	return buildArchive(t, []testEntry{
		{name: "main.py", content: []byte("print('hello')\r\n")},
		{name: ManifestPath, content: []byte(`{"uuid":"old-id","name":"报表","encrypt_bot":true,"flows":[{"id":1},{"id":2}]}`)},
		{name: "resources/blob.bin", content: binaryPayload, method: zip.Store},
		{name: ".dev/settings.json", content: []byte(`{"debug":true}`)},
	})
}

func TestExtractManifest(t *testing.T) {
	manifest, err := ExtractManifest(sampleArchive(t))
	if err != nil {
		t.Fatalf("ExtractManifest: %v", err)
	}
	if manifest.UUID() != "old-id" {
		t.Errorf("UUID() = %q, want old-id", manifest.UUID())
	}
	if manifest.Name() != "报表" {
		t.Errorf("Name() = %q, want 报表", manifest.Name())
	}
	if !manifest.EncryptBot() {
		t.Error("EncryptBot() = false, want true")
	}
	if manifest.FlowCount() != 2 {
		t.Errorf("FlowCount() = %d, want 2", manifest.FlowCount())
	}
}

func TestExtractManifest_Errors(t *testing.T) {
	t.Run("missing entry", func(t *testing.T) {
		archive := buildArchive(t, []testEntry{{name: "main.py", content: []byte("x")}})
		_, err := ExtractManifest(archive)
		if !errors.Is(err, ErrManifestNotFound) {
			t.Fatalf("error = %v, want ErrManifestNotFound", err)
		}
	})

	t.Run("nested manifest does not count", func(t *testing.T) {
		archive := buildArchive(t, []testEntry{{name: "sub/package.json", content: []byte("{}")}})
		_, err := ExtractManifest(archive)
		if !errors.Is(err, ErrManifestNotFound) {
			t.Fatalf("error = %v, want ErrManifestNotFound", err)
		}
	})

	t.Run("not an archive", func(t *testing.T) {
		_, err := ExtractManifest([]byte("definitely not a zip file"))
		if !IsMalformed(err) {
			t.Fatalf("error = %v, want MalformedArtifactError", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		archive := buildArchive(t, []testEntry{{name: ManifestPath, content: []byte("{broken")}})
		_, err := ExtractManifest(archive)
		if !IsMalformed(err) {
			t.Fatalf("error = %v, want MalformedArtifactError", err)
		}
	})

	t.Run("JSON array", func(t *testing.T) {
		archive := buildArchive(t, []testEntry{{name: ManifestPath, content: []byte("[1,2]")}})
		_, err := ExtractManifest(archive)
		if !IsMalformed(err) {
			t.Fatalf("error = %v, want MalformedArtifactError", err)
		}
	})
}

func TestReplaceManifest_RoundTrip(t *testing.T) {
	original := sampleArchive(t)
	manifests := []Manifest{
		NewManifest(map[string]any{"uuid": "new-id", "name": "报表_云迁", "encrypt_bot": false}),
		NewManifest(map[string]any{}),
		NewManifest(map[string]any{
			"uuid":        "x",
			"description": "<b>&amp;</b>",
			"flows":       []any{map[string]any{"steps": []any{1.5, "二", nil}}},
		}),
	}

	for _, manifest := range manifests {
		rewritten, err := ReplaceManifest(original, manifest)
		if err != nil {
			t.Fatalf("ReplaceManifest: %v", err)
		}
		extracted, err := ExtractManifest(rewritten)
		if err != nil {
			t.Fatalf("ExtractManifest: %v", err)
		}
		if !extracted.Equal(manifest) {
			got, _ := extracted.Marshal()
			want, _ := manifest.Marshal()
			t.Errorf("round trip mismatch:\ngot  %s\nwant %s", got, want)
		}
	}
}

func TestReplaceManifest_PreservesPayload(t *testing.T) {
	original := sampleArchive(t)
	originalNames, originalContents := readArchive(t, original)

	manifest := NewManifest(map[string]any{"uuid": "new-id"})
	rewritten, err := ReplaceManifest(original, manifest)
	if err != nil {
		t.Fatalf("ReplaceManifest: %v", err)
	}
	names, contents := readArchive(t, rewritten)

	if len(names) != len(originalNames) {
		t.Fatalf("entry count = %d, want %d", len(names), len(originalNames))
	}
	for index, name := range originalNames {
		if names[index] != name {
			t.Errorf("entry %d = %q, want %q", index, names[index], name)
		}
		if name == ManifestPath {
			continue
		}
		if !bytes.Equal(contents[name], originalContents[name]) {
			t.Errorf("entry %s content changed: %x -> %x", name, originalContents[name], contents[name])
		}
	}

	want, _ := manifest.Marshal()
	if !bytes.Equal(contents[ManifestPath], want) {
		t.Errorf("manifest entry = %s, want %s", contents[ManifestPath], want)
	}

	if err := VerifyPayloadPreserved(original, rewritten); err != nil {
		t.Errorf("VerifyPayloadPreserved: %v", err)
	}
}

func TestReplaceManifest_NoManifest(t *testing.T) {
	archive := buildArchive(t, []testEntry{{name: "main.py", content: []byte("x")}})
	_, err := ReplaceManifest(archive, NewManifest(nil))
	if !errors.Is(err, ErrManifestNotFound) {
		t.Fatalf("error = %v, want ErrManifestNotFound", err)
	}
}

func TestVerifyPayloadPreserved_DetectsChanges(t *testing.T) {
	original := sampleArchive(t)
	tampered := buildArchive(t, []testEntry{
		{name: "main.py", content: []byte("print('tampered')\r\n")},
		{name: ManifestPath, content: []byte(`{}`)},
		{name: ".dev/settings.json", content: []byte(`{"debug":true}`)},
		{name: "extra.txt", content: []byte("new")},
	})

	err := VerifyPayloadPreserved(original, tampered)
	if err == nil {
		t.Fatal("VerifyPayloadPreserved accepted a tampered archive")
	}
	for _, want := range []string{"added extra.txt", "changed main.py", "missing resources/blob.bin"} {
		if !bytes.Contains([]byte(err.Error()), []byte(want)) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
	}
}

func TestBuildFromDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":        "alpha",
		"sub/b.txt":    "beta",
		"package.json": `{"uuid":"on-disk","name":"stale"}`,
	})

	manifest := NewManifest(map[string]any{"uuid": "in-memory", "name": "fresh", "encrypt_bot": false})
	archive, err := BuildFromDirectory(root, manifest)
	if err != nil {
		t.Fatalf("BuildFromDirectory: %v", err)
	}

	names, contents := readArchive(t, archive)
	if len(names) != 3 {
		t.Fatalf("entries = %v, want exactly 3", names)
	}
	want, _ := manifest.Marshal()
	if !bytes.Equal(contents[ManifestPath], want) {
		t.Errorf("package.json = %s, want supplied manifest %s", contents[ManifestPath], want)
	}
	if string(contents["a.txt"]) != "alpha" {
		t.Errorf("a.txt = %q", contents["a.txt"])
	}
	if string(contents["sub/b.txt"]) != "beta" {
		t.Errorf("sub/b.txt = %q", contents["sub/b.txt"])
	}
}

func TestBuildFromDirectory_IncludesHiddenAndAddsManifest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".dev/launch.json": "{}",
		".hidden":          "h",
		"main.py":          "pass",
	})

	archive, err := BuildFromDirectory(root, NewManifest(map[string]any{"uuid": "u"}))
	if err != nil {
		t.Fatalf("BuildFromDirectory: %v", err)
	}
	names, _ := readArchive(t, archive)
	wantNames := []string{".dev/launch.json", ".hidden", "main.py", ManifestPath}
	if len(names) != len(wantNames) {
		t.Fatalf("entries = %v, want %v", names, wantNames)
	}
	for index := range wantNames {
		if names[index] != wantNames[index] {
			t.Errorf("entry %d = %q, want %q", index, names[index], wantNames[index])
		}
	}

	manifest, err := ExtractManifest(archive)
	if err != nil {
		t.Fatalf("ExtractManifest: %v", err)
	}
	if manifest.UUID() != "u" {
		t.Errorf("UUID() = %q, want u", manifest.UUID())
	}
}

func TestBuildFromDirectory_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := BuildFromDirectory(path, NewManifest(nil)); err == nil {
		t.Fatal("BuildFromDirectory on a file succeeded")
	}
	if _, err := BuildFromDirectory(filepath.Join(t.TempDir(), "absent"), NewManifest(nil)); err == nil {
		t.Fatal("BuildFromDirectory on a missing path succeeded")
	}
}

func TestEntries(t *testing.T) {
	entries, err := Entries(sampleArchive(t))
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Entries() = %d, want 4", len(entries))
	}
	blob := entries[2]
	if blob.Name != "resources/blob.bin" || blob.Size != uint64(len(binaryPayload)) {
		t.Errorf("entry 2 = %+v", blob)
	}
	if blob.Digest != HashEntry(binaryPayload) {
		t.Errorf("entry 2 digest = %s, want %s", blob.Digest, HashEntry(binaryPayload))
	}
}
