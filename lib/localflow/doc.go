// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package localflow reads the desktop client's on-disk app cache.
//
// The cache is laid out as
//
//	<root>/<user id>/apps/<app id>/xbot_robot/package.json
//
// where xbot_robot is the artifact root that gets archived for upload.
// Scan is read-only; Delete removes an app folder and is the only
// mutating operation.
package localflow
