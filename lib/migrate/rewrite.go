// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"time"

	"github.com/flowmove/flowmove/lib/artifact"
)

// ProvenanceMarker separates an app's original name from the migration
// timestamp in the rewritten name.
const ProvenanceMarker = "_云迁_接收于"

// provenanceLayout renders the migration time, e.g.
// "2024年05月01日 10时00分00秒".
const provenanceLayout = "2006年01月02日 15时04分05秒"

// ProvenanceSuffix returns the suffix appended to a migrated app's name.
// The time is rendered in its own location; callers pass local time.
func ProvenanceSuffix(migratedAt time.Time) string {
	return ProvenanceMarker + migratedAt.Format(provenanceLayout)
}

// Rewrite derives the manifest an app is uploaded under: uuid becomes
// identity, encrypt_bot is cleared, and name becomes baseName plus the
// provenance suffix for migratedAt. Every other field is carried over
// unchanged. The input manifest is not modified.
func Rewrite(manifest artifact.Manifest, identity, baseName string, migratedAt time.Time) artifact.Manifest {
	return manifest.
		With(artifact.KeyUUID, identity).
		With(artifact.KeyName, baseName+ProvenanceSuffix(migratedAt)).
		With(artifact.KeyEncryptBot, false)
}
