// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform is a client for the automation platform's client
// API: login, catalog listing and detail, trash, upload assignment,
// raw object-storage transfers, and app registration.
//
// A [Client] holds endpoints and transport. Each account gets its own
// [Session], which must [Session.Login] before any authenticated call;
// calls on a session that has not logged in fail with [ErrNotLoggedIn]
// without sending a request. Upload and Download on the Client act on
// pre-signed URLs and need no session.
//
// Nothing in this package retries. Each failure is returned as one of
// a small set of typed errors so callers can classify it:
//
//   - [*AuthError]: login rejected or unreadable
//   - [ErrNotFound] (and [*MissingFieldError]): no such app or field
//   - [*APIError], [*UploadError]: transport and server failures
//   - [ErrTokenExpired]: the server returned 401
package platform
