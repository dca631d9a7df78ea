// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package localflow

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeApp creates <root>/<user>/apps/<app>/xbot_robot/package.json
// with the given contents and modification time.
func writeApp(t *testing.T, root, user, app, manifest string, modTime time.Time) string {
	t.Helper()
	robotPath := filepath.Join(root, user, AppsDir, app, RobotDir)
	if err := os.MkdirAll(filepath.Join(robotPath, "main"), 0o755); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(robotPath, "package.json")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(robotPath, "main", "flow.py"), []byte("print(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(manifestPath, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	return robotPath
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	writeApp(t, root, "user-1", "app-old", `{"uuid":"u-old","name":"旧流程"}`, base)
	writeApp(t, root, "user-1", "app-new", `{"name":"新流程"}`, base.Add(2*time.Hour))
	writeApp(t, root, "user-2", "app-mid", `{"uuid":"u-mid"}`, base.Add(time.Hour))
	writeApp(t, root, "user-2", "app-bad", `{not json`, base.Add(3*time.Hour))

	// Noise that must be skipped.
	os.MkdirAll(filepath.Join(root, "user-3"), 0o755)
	os.MkdirAll(filepath.Join(root, "user-2", AppsDir, "app-empty", RobotDir), 0o755)
	os.WriteFile(filepath.Join(root, "stray.txt"), nil, 0o644)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	records, err := Scan(root, logger)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	var order []string
	for _, record := range records {
		order = append(order, record.AppID)
	}
	if got, want := strings.Join(order, ","), "app-new,app-mid,app-old"; got != want {
		t.Errorf("order = %s, want %s", got, want)
	}

	newest := records[0]
	if newest.UserID != "user-1" || newest.UUID() != "app-new" || newest.Name() != "新流程" {
		t.Errorf("newest = user %q uuid %q name %q", newest.UserID, newest.UUID(), newest.Name())
	}
	if records[1].Name() != UnknownName {
		t.Errorf("unnamed record Name() = %q, want %q", records[1].Name(), UnknownName)
	}
	if records[2].UUID() != "u-old" {
		t.Errorf("UUID() = %q, want u-old", records[2].UUID())
	}
	if !strings.Contains(logs.String(), "app-bad") {
		t.Errorf("no warning logged for unparseable manifest; logs:\n%s", logs.String())
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "absent"), nil)
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("Scan error = %v, want ErrRootNotFound", err)
	}
}

func TestFind(t *testing.T) {
	records := []Record{{AppID: "folder-1"}, {AppID: "folder-2"}}
	records[1].Manifest.UnmarshalJSON([]byte(`{"uuid":"manifest-2"}`))

	if index, ok := Find(records, "folder-1"); !ok || index != 0 {
		t.Errorf("Find(folder-1) = %d, %v", index, ok)
	}
	if index, ok := Find(records, "manifest-2"); !ok || index != 1 {
		t.Errorf("Find(manifest-2) = %d, %v", index, ok)
	}
	if _, ok := Find(records, "nope"); ok {
		t.Error("Find(nope) found a record")
	}
}

func TestDelete(t *testing.T) {
	root := t.TempDir()
	robotPath := writeApp(t, root, "user-1", "app-1", `{"uuid":"u"}`, time.Now())
	sibling := writeApp(t, root, "user-1", "app-2", `{"uuid":"v"}`, time.Now())

	records, err := Scan(root, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	index, ok := Find(records, "app-1")
	if !ok {
		t.Fatal("app-1 not scanned")
	}
	record := &records[index]

	if err := Delete(record); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(robotPath)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("app folder still exists: %v", err)
	}
	if _, err := os.Stat(sibling); err != nil {
		t.Errorf("sibling app removed: %v", err)
	}

	if err := Delete(record); err == nil {
		t.Error("second Delete succeeded, want error for missing folder")
	}
}

func TestDelete_RejectsForeignPath(t *testing.T) {
	directory := t.TempDir()
	err := Delete(&Record{RobotPath: directory})
	if err == nil {
		t.Fatal("Delete accepted a path that is not an artifact root")
	}
	if _, statErr := os.Stat(directory); statErr != nil {
		t.Errorf("directory removed: %v", statErr)
	}
}
