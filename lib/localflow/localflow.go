// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package localflow

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/flowmove/flowmove/lib/artifact"
)

const (
	// AppsDir is the per-user directory holding app folders.
	AppsDir = "apps"

	// RobotDir is the artifact root inside each app folder.
	RobotDir = "xbot_robot"

	// UnknownName is reported for manifests without a name.
	UnknownName = "未知"
)

// ErrRootNotFound is returned by Scan when the cache root does not
// exist.
var ErrRootNotFound = errors.New("localflow: cache root not found")

// Record is one cached app.
type Record struct {
	// UserID is the user directory the app was found under.
	UserID string

	// AppID is the app folder name.
	AppID string

	// RobotPath is the artifact root: the directory that is archived
	// for upload.
	RobotPath string

	// Manifest is the parsed package.json from RobotPath.
	Manifest artifact.Manifest

	// ModTime is the manifest file's modification time.
	ModTime time.Time
}

// UUID returns the manifest's identity, or the folder name when the
// manifest has none.
func (record *Record) UUID() string {
	if uuid, ok := record.Manifest.Get(artifact.KeyUUID); ok {
		if text, isString := uuid.(string); isString {
			return text
		}
	}
	return record.AppID
}

// Name returns the manifest's display name, or UnknownName.
func (record *Record) Name() string {
	return record.Manifest.StringDefault(artifact.KeyName, UnknownName)
}

// ManifestPath returns the path of the record's package.json.
func (record *Record) ManifestPath() string {
	return filepath.Join(record.RobotPath, artifact.ManifestPath)
}

// AppPath returns the app folder: the parent of RobotPath.
func (record *Record) AppPath() string {
	return filepath.Dir(record.RobotPath)
}

// Scan walks root/<user>/apps/<app>/xbot_robot/package.json and returns
// a record per readable manifest, most recently modified first. Users
// without an apps directory and apps without a manifest are skipped
// silently; a manifest that cannot be read or parsed is skipped with a
// warning on logger.
func Scan(root string, logger *slog.Logger) ([]Record, error) {
	if logger == nil {
		logger = slog.Default()
	}

	users, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("localflow: reading cache root: %w", err)
	}

	records := []Record{}
	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		appsPath := filepath.Join(root, user.Name(), AppsDir)
		apps, err := os.ReadDir(appsPath)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("skipping unreadable apps directory", "path", appsPath, "error", err)
			}
			continue
		}

		for _, app := range apps {
			if !app.IsDir() {
				continue
			}
			robotPath := filepath.Join(appsPath, app.Name(), RobotDir)
			record, err := readRecord(user.Name(), app.Name(), robotPath)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					logger.Warn("skipping unreadable manifest",
						"path", filepath.Join(robotPath, artifact.ManifestPath),
						"error", err,
					)
				}
				continue
			}
			records = append(records, record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ModTime.After(records[j].ModTime)
	})
	return records, nil
}

func readRecord(userID, appID, robotPath string) (Record, error) {
	manifestPath := filepath.Join(robotPath, artifact.ManifestPath)
	info, err := os.Stat(manifestPath)
	if err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Record{}, err
	}
	manifest, err := artifact.ParseManifest(data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		UserID:    userID,
		AppID:     appID,
		RobotPath: robotPath,
		Manifest:  manifest,
		ModTime:   info.ModTime(),
	}, nil
}

// Find returns the position of the record whose folder name or
// manifest identity is id.
func Find(records []Record, id string) (int, bool) {
	for index := range records {
		if records[index].AppID == id || records[index].UUID() == id {
			return index, true
		}
	}
	return 0, false
}

// Delete removes the record's app folder and everything in it. Only a
// record whose RobotPath ends in the artifact root directory is
// accepted, so a malformed record cannot remove an arbitrary tree.
func Delete(record *Record) error {
	if filepath.Base(record.RobotPath) != RobotDir {
		return fmt.Errorf("localflow: %q is not an artifact root", record.RobotPath)
	}
	appPath := record.AppPath()
	if _, err := os.Stat(appPath); err != nil {
		return fmt.Errorf("localflow: app folder %s: %w", appPath, err)
	}
	if err := os.RemoveAll(appPath); err != nil {
		return fmt.Errorf("localflow: removing %s: %w", appPath, err)
	}
	return nil
}
