// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Entry describes one archive entry.
type Entry struct {
	// Name is the slash-separated path inside the archive.
	Name string `json:"name"`

	// Size is the uncompressed size in bytes.
	Size uint64 `json:"size"`

	// Digest is the entry-domain hash of the uncompressed content.
	// Zero for directory entries.
	Digest Hash `json:"blake3"`

	// Directory is true for explicit directory entries ("dir/").
	Directory bool `json:"directory,omitempty"`
}

// ExtractManifest opens archive and parses its package.json entry.
func ExtractManifest(archive []byte) (Manifest, error) {
	reader, err := openArchive(archive)
	if err != nil {
		return Manifest{}, err
	}
	for _, file := range reader.File {
		if file.Name != ManifestPath {
			continue
		}
		data, err := readEntry(file)
		if err != nil {
			return Manifest{}, err
		}
		return ParseManifest(data)
	}
	return Manifest{}, ErrManifestNotFound
}

// ReplaceManifest returns a copy of archive in which the package.json
// entry holds manifest. Every other entry keeps its name, order,
// compression method, modification time, and exact content.
func ReplaceManifest(archive []byte, manifest Manifest) ([]byte, error) {
	reader, err := openArchive(archive)
	if err != nil {
		return nil, err
	}

	found := false
	for _, file := range reader.File {
		if file.Name == ManifestPath {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrManifestNotFound
	}

	manifestBytes, err := manifest.Marshal()
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, file := range reader.File {
		header := copyHeader(&file.FileHeader)
		entryWriter, err := writer.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("artifact: writing entry %s: %w", file.Name, err)
		}
		if strings.HasSuffix(file.Name, "/") {
			continue
		}

		if file.Name == ManifestPath {
			if _, err := entryWriter.Write(manifestBytes); err != nil {
				return nil, fmt.Errorf("artifact: writing manifest: %w", err)
			}
			continue
		}

		source, err := file.Open()
		if err != nil {
			return nil, malformed("opening entry "+file.Name, err)
		}
		_, err = io.Copy(entryWriter, source)
		source.Close()
		if err != nil {
			return nil, malformed("copying entry "+file.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("artifact: finishing archive: %w", err)
	}
	return buffer.Bytes(), nil
}

// BuildFromDirectory packs every regular file under root into a new
// archive, hidden files and directories included. Entry names are
// slash-separated paths relative to root, in lexical order. The
// top-level package.json entry is always written from manifest; it is
// added even when root has no package.json on disk.
func BuildFromDirectory(root string, manifest Manifest) ([]byte, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact: %s is not a directory", root)
	}

	manifestBytes, err := manifest.Marshal()
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	manifestWritten := false

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(relative)

		fileInfo, err := entry.Info()
		if err != nil {
			return err
		}
		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: fileInfo.ModTime(),
		}

		var content []byte
		if name == ManifestPath {
			content = manifestBytes
			manifestWritten = true
		} else {
			content, err = os.ReadFile(path)
			if err != nil {
				return err
			}
		}

		entryWriter, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		_, err = entryWriter.Write(content)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("artifact: packing %s: %w", root, err)
	}

	if !manifestWritten {
		entryWriter, err := writer.CreateHeader(&zip.FileHeader{Name: ManifestPath, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("artifact: writing manifest: %w", err)
		}
		if _, err := entryWriter.Write(manifestBytes); err != nil {
			return nil, fmt.Errorf("artifact: writing manifest: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("artifact: finishing archive: %w", err)
	}
	return buffer.Bytes(), nil
}

// Entries lists archive entries in archive order with their digests.
func Entries(archive []byte) ([]Entry, error) {
	reader, err := openArchive(archive)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(reader.File))
	for _, file := range reader.File {
		if strings.HasSuffix(file.Name, "/") {
			entries = append(entries, Entry{Name: file.Name, Directory: true})
			continue
		}
		data, err := readEntry(file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Name:   file.Name,
			Size:   uint64(len(data)),
			Digest: HashEntry(data),
		})
	}
	return entries, nil
}

// Fingerprint maps every non-manifest file entry to its digest.
func Fingerprint(archive []byte) (map[string]Hash, error) {
	entries, err := Entries(archive)
	if err != nil {
		return nil, err
	}
	fingerprint := make(map[string]Hash, len(entries))
	for _, entry := range entries {
		if entry.Directory || entry.Name == ManifestPath {
			continue
		}
		fingerprint[entry.Name] = entry.Digest
	}
	return fingerprint, nil
}

// VerifyPayloadPreserved checks that rewritten has exactly the
// non-manifest entries of original, with identical content.
func VerifyPayloadPreserved(original, rewritten []byte) error {
	before, err := Fingerprint(original)
	if err != nil {
		return err
	}
	after, err := Fingerprint(rewritten)
	if err != nil {
		return err
	}

	var problems []string
	for name, digest := range before {
		got, ok := after[name]
		switch {
		case !ok:
			problems = append(problems, "missing "+name)
		case got != digest:
			problems = append(problems, "changed "+name)
		}
	}
	for name := range after {
		if _, ok := before[name]; !ok {
			problems = append(problems, "added "+name)
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("artifact: payload not preserved: %s", strings.Join(problems, ", "))
	}
	return nil
}

func openArchive(archive []byte) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, malformed("cannot open archive", err)
	}
	return reader, nil
}

func readEntry(file *zip.File) ([]byte, error) {
	source, err := file.Open()
	if err != nil {
		return nil, malformed("opening entry "+file.Name, err)
	}
	defer source.Close()
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, malformed("reading entry "+file.Name, err)
	}
	return data, nil
}

// copyHeader carries over the fields that describe an entry, leaving
// sizes, checksums, and extra fields for the writer to recompute.
func copyHeader(original *zip.FileHeader) *zip.FileHeader {
	method := original.Method
	if method != zip.Store && method != zip.Deflate {
		method = zip.Deflate
	}
	header := &zip.FileHeader{
		Name:           original.Name,
		Comment:        original.Comment,
		NonUTF8:        original.NonUTF8,
		Method:         method,
		Modified:       original.Modified,
		CreatorVersion: original.CreatorVersion,
		ExternalAttrs:  original.ExternalAttrs,
	}
	if strings.HasSuffix(original.Name, "/") {
		header.Method = zip.Store
	}
	return header
}
