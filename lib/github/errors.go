// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsNotFound reports whether err is a GitHub API 404 Not Found response.
// The latest-release endpoint returns 404 for a repository with no
// published releases.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

// IsRateLimited reports whether err is a GitHub API rate limit response.
// GitHub returns 403 when the primary rate limit is exceeded and 429
// for secondary limits.
func IsRateLimited(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == 429 || (apiError.StatusCode == 403 && isRateLimitMessage(apiError.Message))
}

func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "abuse detection")
}
