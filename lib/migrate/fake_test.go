// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowmove/flowmove/lib/clock"
	"github.com/flowmove/flowmove/lib/localflow"
	"github.com/flowmove/flowmove/lib/platform"
)

// fakePlatform is an in-memory destination, source and transfer.
type fakePlatform struct {
	authenticated bool
	username      string

	// assignErr fails AssignUpload for a kind.
	assignErr map[platform.ArtifactKind]error

	// registerErr, when set, is returned by the registration call whose
	// 1-based index is the key.
	registerErr map[int]error

	// details and objects back AppDetail and Download.
	details map[string]*platform.AppDetail
	objects map[string][]byte

	assignCalls []string
	uploadCalls []string
	uploads     map[string][]byte
	registered  []platform.CreateAppRequest
	registers   int
}

func newFakePlatform(username string) *fakePlatform {
	return &fakePlatform{
		authenticated: true,
		username:      username,
		assignErr:     map[platform.ArtifactKind]error{},
		registerErr:   map[int]error{},
		details:       map[string]*platform.AppDetail{},
		objects:       map[string][]byte{},
		uploads:       map[string][]byte{},
	}
}

func (fake *fakePlatform) Authenticated() bool { return fake.authenticated }
func (fake *fakePlatform) Username() string    { return fake.username }

func (fake *fakePlatform) AssignUpload(_ context.Context, appID string, kind platform.ArtifactKind) (*platform.UploadAssignment, error) {
	fake.assignCalls = append(fake.assignCalls, appID+"/"+kind.String())
	if err := fake.assignErr[kind]; err != nil {
		return nil, err
	}
	return &platform.UploadAssignment{
		UploadURL:  fmt.Sprintf("https://oss.test/%s/%s", appID, kind),
		FileKey:    appID + "/" + kind.String(),
		FileKeyMD5: "md5-" + kind.String(),
	}, nil
}

func (fake *fakePlatform) Register(_ context.Context, request platform.CreateAppRequest) error {
	fake.registers++
	if err := fake.registerErr[fake.registers]; err != nil {
		return err
	}
	fake.registered = append(fake.registered, request)
	return nil
}

func (fake *fakePlatform) AppDetail(_ context.Context, appID string) (*platform.AppDetail, error) {
	detail, ok := fake.details[appID]
	if !ok {
		return nil, fmt.Errorf("app %s: %w", appID, platform.ErrNotFound)
	}
	return detail, nil
}

func (fake *fakePlatform) Upload(_ context.Context, uploadURL string, data []byte) error {
	fake.uploadCalls = append(fake.uploadCalls, uploadURL)
	fake.uploads[uploadURL] = append([]byte(nil), data...)
	return nil
}

func (fake *fakePlatform) Download(_ context.Context, readURL string) ([]byte, error) {
	data, ok := fake.objects[readURL]
	if !ok {
		return nil, &platform.APIError{Operation: "download", StatusCode: 404}
	}
	return data, nil
}

func (fake *fakePlatform) DownloadURL(detail *platform.AppDetail) (string, error) {
	if detail.BotReadURL == "" {
		return "", &platform.MissingFieldError{AppID: detail.AppID, Field: "botReadUrl"}
	}
	return detail.BotReadURL, nil
}

// testTime is the fixed migration time; its local rendering is
// "2024年05月01日 10时00分00秒".
var testTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

const testSuffix = "_云迁_接收于2024年05月01日 10时00分00秒"

// sequentialIDs returns a NewID func yielding id-1, id-2, ...
func sequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("id-%d", next)
	}
}

func newTestOrchestrator(t *testing.T, fake *fakePlatform, mutate func(*Config)) *Orchestrator {
	t.Helper()
	config := Config{
		Destination: fake,
		Transfer:    fake,
		Clock:       clock.Fake(testTime),
		NewID:       sequentialIDs(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&config)
	}
	orchestrator, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orchestrator
}

// writeCachedApp creates an app in a cache tree under root.
func writeCachedApp(t *testing.T, root, appID, manifest string) {
	t.Helper()
	robotPath := filepath.Join(root, "user-1", localflow.AppsDir, appID, localflow.RobotDir)
	files := map[string]string{
		"a.txt":        "alpha",
		"sub/b.txt":    "beta",
		"package.json": manifest,
	}
	for name, content := range files {
		path := filepath.Join(robotPath, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// scanApps builds a cache with one app per manifest and returns its
// records in app order.
func scanApps(t *testing.T, manifests ...string) []localflow.Record {
	t.Helper()
	root := t.TempDir()
	for index, manifest := range manifests {
		writeCachedApp(t, root, fmt.Sprintf("app-%d", index+1), manifest)
	}
	records, err := localflow.Scan(root, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	ordered := make([]localflow.Record, len(manifests))
	for index := range manifests {
		position, ok := localflow.Find(records, fmt.Sprintf("app-%d", index+1))
		if !ok {
			t.Fatalf("app-%d not scanned", index+1)
		}
		ordered[index] = records[position]
	}
	return ordered
}
