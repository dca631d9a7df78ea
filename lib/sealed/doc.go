// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts account passwords for storage in flowmove
// config files. It wraps filippo.io/age: passwords are sealed to one or
// more x25519 recipients and stored base64-encoded in the
// sealed_password field of an account entry; at startup the config
// loader opens them with the operator's identity file.
//
// Sealing is done once, from the CLI:
//
//	flowmove account seal --recipient age1... < password.txt
//
// and the output pasted into the config file.
package sealed
