// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads flowmove configuration: platform endpoints, the
// local cache root, the journal location, and the named accounts that
// migrations read from and write to.
//
// Configuration is loaded from a single file specified by:
//   - the --config flag passed to a command, or
//   - the FLOWMOVE_CONFIG environment variable.
//
// With neither set, commands run on Default(), which has no accounts.
// There is no automatic discovery.
//
// Files ending in .json or .jsonc are read as JSON after comments and
// trailing commas are stripped, which lets the desktop client's
// migrate_config.json be used unchanged. Everything else is YAML.
//
// Account passwords are never required in plaintext. An account may
// carry a password_file, or a sealed_password produced by
// "flowmove account seal" and opened with the age identity named by
// identity_file. Accounts without any of these are prompted for
// interactively.
package config
