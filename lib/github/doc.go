// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package github provides a small typed client for the GitHub REST
// releases API, used by the update check.
//
// Requests are anonymous unless a token is configured. Paginated
// endpoints follow RFC 5988 Link headers. Non-2xx responses become
// *APIError values carrying GitHub's message.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base URLs.
package github
