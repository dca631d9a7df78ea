// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotLoggedIn is returned by every authenticated operation on a
	// session that has not completed Login. No request is sent.
	ErrNotLoggedIn = errors.New("platform: not logged in")

	// ErrTokenExpired is returned when the platform rejects the bearer
	// token with HTTP 401.
	ErrTokenExpired = errors.New("platform: token expired, log in again")

	// ErrNotFound is returned when the platform reports no data for an
	// app.
	ErrNotFound = errors.New("platform: app not found")

	// ErrNoAssignment is returned when the upload-assignment endpoint
	// does not hand out an upload URL.
	ErrNoAssignment = errors.New("platform: no upload destination assigned")
)

// AuthError reports a failed login: rejected credentials or a response
// that could not be understood.
type AuthError struct {
	// Username is the login that failed.
	Username string

	// Message is the server-reported reason, or a description of the
	// malformed response.
	Message string

	// Err is the underlying transport or decode error, if any.
	Err error
}

func (err *AuthError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "platform: login %s failed", err.Username)
	if err.Message != "" {
		fmt.Fprintf(&builder, ": %s", err.Message)
	}
	if err.Err != nil {
		fmt.Fprintf(&builder, ": %v", err.Err)
	}
	return builder.String()
}

func (err *AuthError) Unwrap() error { return err.Err }

// APIError reports a platform API call that failed: a non-2xx status,
// or a 2xx response whose envelope says success=false.
type APIError struct {
	// Operation names the call ("list apps", "create app").
	Operation string

	// StatusCode is the HTTP status.
	StatusCode int

	// Code is the envelope's code field, when present.
	Code int

	// Message is the envelope's msg field, or a snippet of the body.
	Message string
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "platform: %s: HTTP %d", err.Operation, err.StatusCode)
	if err.Code != 0 {
		fmt.Fprintf(&builder, " code %d", err.Code)
	}
	if err.Message != "" {
		fmt.Fprintf(&builder, ": %s", err.Message)
	}
	return builder.String()
}

// UploadError reports a raw object-storage PUT that did not return
// 200 or 201. It carries enough of the exchange to troubleshoot a
// rejected pre-signed URL.
type UploadError struct {
	// URL is the upload URL, truncated.
	URL string

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	// Body is the first bytes of the response body.
	Body string

	// Err is the transport error when no response arrived.
	Err error
}

func (err *UploadError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("platform: upload to %s: %v", err.URL, err.Err)
	}
	return fmt.Sprintf("platform: upload to %s: HTTP %d: %s", err.URL, err.StatusCode, err.Body)
}

func (err *UploadError) Unwrap() error { return err.Err }

// MissingFieldError is returned when an app detail record lacks the
// configured download URL field.
type MissingFieldError struct {
	// AppID is the app whose detail was fetched.
	AppID string

	// Field is the configured field name.
	Field string

	// Available lists the fields the record does have.
	Available []string
}

func (err *MissingFieldError) Error() string {
	return fmt.Sprintf("platform: app %s detail has no %q field (available: %s)",
		err.AppID, err.Field, strings.Join(err.Available, ", "))
}

// Is makes a missing download field match ErrNotFound.
func (err *MissingFieldError) Is(target error) bool {
	return target == ErrNotFound
}

// PartialListError is returned by ListApps when a page request fails
// after zero or more pages succeeded. The entries fetched before the
// failure are returned alongside it.
type PartialListError struct {
	// Page is the page number that failed.
	Page int

	// Fetched is how many entries were accumulated before the failure.
	Fetched int

	// Err is the page failure.
	Err error
}

func (err *PartialListError) Error() string {
	return fmt.Sprintf("platform: listing stopped at page %d after %d apps: %v", err.Page, err.Fetched, err.Err)
}

func (err *PartialListError) Unwrap() error { return err.Err }

// IsAuthFailure reports whether err is a login failure.
func IsAuthFailure(err error) bool {
	var authError *AuthError
	return errors.As(err, &authError)
}

// IsNotFound reports whether err means the requested app, or a field
// of it, does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is an upload or API failure
// (as opposed to an authentication or lookup failure).
func IsTransport(err error) bool {
	var apiError *APIError
	var uploadError *UploadError
	return errors.As(err, &apiError) || errors.As(err, &uploadError)
}
