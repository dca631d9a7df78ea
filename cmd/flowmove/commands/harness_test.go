// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/artifact"
	"github.com/flowmove/flowmove/lib/localflow"
)

// harness runs the command tree against in-memory streams, a scripted
// prompter, and a config file in a temporary directory.
type harness struct {
	t       *testing.T
	dir     string
	root    string
	journal string
	config  string
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	runtime *Runtime
}

// newHarness writes a config pointing at platformURL (or an unroutable
// placeholder when empty). input is what the prompter reads.
func newHarness(t *testing.T, platformURL, input string) *harness {
	t.Helper()
	h := &harness{t: t, dir: t.TempDir()}
	h.root = filepath.Join(h.dir, "users")
	h.journal = filepath.Join(h.dir, "journal.cbor")
	h.config = filepath.Join(h.dir, "flowmove.yaml")
	if err := os.MkdirAll(h.root, 0o755); err != nil {
		t.Fatal(err)
	}
	if platformURL == "" {
		platformURL = "https://platform.invalid"
	}

	config := fmt.Sprintf(`log_level: warn
platform:
  auth_url: %[1]s/oauth/token
  api_url: %[1]s
  timeout: 10s
local:
  root: %[2]s
journal_path: %[3]s
accounts:
  - name: team
    username: alice
    password: pw
  - name: personal
    username: bob
    password: pw
`, platformURL, h.root, h.journal)
	if err := os.WriteFile(h.config, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}

	h.runtime = &Runtime{
		Out:      &h.stdout,
		Err:      &h.stderr,
		Prompter: cli.NewScriptedPrompter(strings.NewReader(input), &h.stderr),
		Logger: func(slog.Level) *slog.Logger {
			return slog.New(slog.NewTextHandler(io.Discard, nil))
		},
	}
	return h
}

// run executes args with --config appended.
func (h *harness) run(args ...string) error {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	args = append(args, "--config", h.config)
	return newRoot(h.runtime).Execute(context.Background(), args)
}

// decode parses stdout as JSON into v.
func (h *harness) decode(v any) {
	h.t.Helper()
	if err := json.Unmarshal(h.stdout.Bytes(), v); err != nil {
		h.t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
}

// writeLocalApp creates a cached app under the harness root and
// returns its artifact root.
func (h *harness) writeLocalApp(user, app, manifest string, modTime time.Time) string {
	h.t.Helper()
	return writeRobot(h.t, filepath.Join(h.root, user, localflow.AppsDir, app, localflow.RobotDir), manifest, modTime)
}

func writeRobot(t *testing.T, robotPath, manifest string, modTime time.Time) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(robotPath, "main"), 0o755); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(robotPath, artifact.ManifestPath)
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(robotPath, "main", "flow.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(manifestPath, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	return robotPath
}

// buildArchive packs a throwaway artifact root holding manifest.
func buildArchive(t *testing.T, manifest string) []byte {
	t.Helper()
	robotPath := writeRobot(t, filepath.Join(t.TempDir(), localflow.RobotDir), manifest, time.Now())
	parsed, err := artifact.ParseManifest([]byte(manifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	archive, err := artifact.BuildFromDirectory(robotPath, parsed)
	if err != nil {
		t.Fatalf("BuildFromDirectory: %v", err)
	}
	return archive
}

// fakePlatform is an in-process platform: token endpoint, catalog,
// app detail, upload assignment, object storage, registration, and
// recycle bin.
type fakePlatform struct {
	server *httptest.Server

	mu            sync.Mutex
	catalog       []map[string]any
	archives      map[string][]byte
	uploads       map[string][]byte
	registered    []string
	trashed       []string
	rejectCreates bool
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	fake := &fakePlatform{
		archives: make(map[string][]byte),
		uploads:  make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, map[string]any{"success": true, "access_token": "T1"})
	})
	mux.HandleFunc("POST /api/client/app/develop/list", func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			PageDTO struct {
				Page int `json:"page"`
			} `json:"pageDTO"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		fake.mu.Lock()
		defer fake.mu.Unlock()
		data := []map[string]any{}
		if body.PageDTO.Page == 1 {
			data = fake.catalog
		}
		writeJSON(writer, map[string]any{"success": true, "data": data, "page": map[string]any{"pages": 1, "total": len(fake.catalog)}})
	})
	mux.HandleFunc("GET /api/client/app/develop/app/detail", func(writer http.ResponseWriter, request *http.Request) {
		appID := request.URL.Query().Get("appId")
		fake.mu.Lock()
		_, ok := fake.archives[appID]
		fake.mu.Unlock()
		if !ok {
			writeJSON(writer, map[string]any{"success": true, "data": nil})
			return
		}
		writeJSON(writer, map[string]any{"success": true, "data": map[string]any{
			"appId":      appID,
			"botReadUrl": fake.server.URL + "/download/" + appID,
		}})
	})
	mux.HandleFunc("GET /download/{id}", func(writer http.ResponseWriter, request *http.Request) {
		fake.mu.Lock()
		archive, ok := fake.archives[request.PathValue("id")]
		fake.mu.Unlock()
		if !ok {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		writer.Write(archive)
	})
	mux.HandleFunc("POST /api/client/app/file/assignUploadUrl", func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			AppID string `json:"appId"`
			IsBot string `json:"isBot"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		writeJSON(writer, map[string]any{"success": true, "data": map[string]any{
			"uploadUrl":  fake.server.URL + "/oss/" + body.AppID + "/" + body.IsBot,
			"fileKey":    body.AppID + "/" + body.IsBot,
			"readUrl":    fake.server.URL + "/oss/" + body.AppID + "/" + body.IsBot,
			"fileKeyMd5": "md5-" + body.IsBot,
		}})
	})
	mux.HandleFunc("PUT /oss/{id}/{kind}", func(writer http.ResponseWriter, request *http.Request) {
		data, _ := io.ReadAll(request.Body)
		fake.mu.Lock()
		fake.uploads[request.PathValue("id")+"/"+request.PathValue("kind")] = data
		fake.mu.Unlock()
	})
	mux.HandleFunc("POST /api/client/app/develop/create", func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			AppID string `json:"appId"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		fake.mu.Lock()
		defer fake.mu.Unlock()
		if fake.rejectCreates {
			writeJSON(writer, map[string]any{"success": false, "msg": "rejected"})
			return
		}
		fake.registered = append(fake.registered, body.AppID)
		writeJSON(writer, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /api/client/recycle/recycle", func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			AppID string `json:"appId"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		fake.mu.Lock()
		fake.trashed = append(fake.trashed, body.AppID)
		fake.mu.Unlock()
		writeJSON(writer, map[string]any{"success": true})
	})

	fake.server = httptest.NewTLSServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func writeJSON(writer http.ResponseWriter, v any) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(v)
}

// upload returns what was PUT for identity; archive selects the .bot
// slot over the standalone manifest.
func (fake *fakePlatform) upload(t *testing.T, identity string, archive bool) []byte {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	data, ok := fake.uploads[fmt.Sprintf("%s/%t", identity, archive)]
	if !ok {
		t.Fatalf("no upload for %s (archive %t)", identity, archive)
	}
	return data
}
