// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/flowmove/flowmove/lib/netutil"
)

const pathAssignUpload = "/api/client/app/file/assignUploadUrl"

// AssignUpload requests a write-once upload destination for one
// artifact of the app identified by appID. The returned FileKeyMD5, when
// present, is what registration must be called with.
//
// A response without data or without an upload URL is an error
// matching ErrNoAssignment.
func (session *Session) AssignUpload(ctx context.Context, appID string, kind ArtifactKind) (*UploadAssignment, error) {
	isBot := "false"
	if kind == KindArchive {
		isBot = "true"
	}
	request := assignRequest{
		AppID:   appID,
		AppType: "app",
		Version: "",
		IsBot:   isBot,
	}

	var response envelope
	operation := fmt.Sprintf("assign %s upload for %s", kind, appID)
	if err := session.call(ctx, operation, http.MethodPost, pathAssignUpload, nil, request, &response); err != nil {
		return nil, err
	}
	if !response.Success && !response.hasData() {
		return nil, fmt.Errorf("%w: %w", envelopeError(operation, &response), ErrNoAssignment)
	}
	if !response.hasData() {
		return nil, fmt.Errorf("%s: %w", operation, ErrNoAssignment)
	}

	var assignment UploadAssignment
	if err := json.Unmarshal(response.Data, &assignment); err != nil {
		return nil, &APIError{Operation: operation, StatusCode: http.StatusOK, Message: "assignment is not an object: " + err.Error()}
	}
	if assignment.UploadURL == "" {
		return nil, fmt.Errorf("%s: empty upload URL: %w", operation, ErrNoAssignment)
	}
	return &assignment, nil
}

// Upload PUTs data to a pre-signed location. The request carries no
// Content-Type: the signature covers the header set the desktop client
// sends, and adding one invalidates it. Success is exactly HTTP 200 or
// 201; anything else is an *UploadError with a body snippet.
func (client *Client) Upload(ctx context.Context, uploadURL string, data []byte) error {
	shortURL := netutil.TruncateURL(uploadURL, diagnosticURLLimit)

	request, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return &UploadError{URL: shortURL, Err: err}
	}
	setLegacyHeaders(request)
	request.Header.Set("Referer", uploadURL)
	request.ContentLength = int64(len(data))

	response, err := client.httpClient.Do(request)
	if err != nil {
		return &UploadError{URL: shortURL, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return &UploadError{
			URL:        shortURL,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body, diagnosticBodyLimit),
		}
	}

	client.logger.Debug("uploaded artifact", "url", shortURL, "bytes", len(data), "status", response.StatusCode)
	return nil
}

// Download fetches an artifact from a read location. Only HTTP 200 is
// success.
func (client *Client) Download(ctx context.Context, readURL string) ([]byte, error) {
	shortURL := netutil.TruncateURL(readURL, diagnosticURLLimit)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, readURL, nil)
	if err != nil {
		return nil, fmt.Errorf("platform: download %s: %w", shortURL, err)
	}
	request.Header.Set("Connection", "Keep-Alive")
	request.Header.Set("Accept", "*/*")
	request.Header.Set("User-Agent", legacyUserAgent)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("platform: download %s: %w", shortURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &APIError{
			Operation:  "download " + shortURL,
			StatusCode: response.StatusCode,
			Message:    netutil.ErrorBody(response.Body, diagnosticBodyLimit),
		}
	}

	data, err := netutil.ReadArtifact(response.Body)
	if err != nil {
		return nil, fmt.Errorf("platform: download %s: %w", shortURL, err)
	}
	return data, nil
}
