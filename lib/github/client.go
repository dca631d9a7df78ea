// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flowmove/flowmove/lib/netutil"
)

// githubAPIVersion is the GitHub REST API version header.
const githubAPIVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// Config holds configuration for creating a GitHub API Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS.
	BaseURL string

	// Token is an optional personal access token. Anonymous requests
	// work for public repositories but share a small rate limit.
	Token string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a read-only GitHub REST API client for release metadata.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a GitHub API client from the given configuration.
// Returns an error for a non-HTTPS base URL.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// doRaw executes a GET request with the standard GitHub headers and
// returns the raw response. The caller closes the body.
//
// Used by both get (single objects) and PageIterator (which needs the
// Link header before parsing the body).
func (client *Client) doRaw(ctx context.Context, url string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}

	if client.token != "" {
		request.Header.Set("Authorization", "Bearer "+client.token)
	}
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", githubAPIVersion)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: GET %s: %w", url, err)
	}

	if remaining := response.Header.Get("X-RateLimit-Remaining"); remaining == "0" {
		client.logger.Warn("github rate limit exhausted",
			"reset", response.Header.Get("X-RateLimit-Reset"),
			"url", url,
		)
	}
	return response, nil
}

// get fetches path and decodes the JSON object into result. On non-2xx
// responses it returns an *APIError.
func (client *Client) get(ctx context.Context, path string, result any) error {
	response, err := client.doRaw(ctx, client.baseURL+path)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("github: reading response body: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIErrorFromBody(response.StatusCode, body)
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding %s: %w", path, err)
	}
	return nil
}

// list creates a PageIterator for a paginated GET endpoint.
func list[T any](client *Client, path string) *PageIterator[T] {
	return &PageIterator[T]{
		client:  client,
		nextURL: client.baseURL + path,
	}
}

// parseAPIError reads a GitHub API error from an HTTP response.
func parseAPIError(response *http.Response) *APIError {
	body, _ := netutil.ReadResponse(response.Body)
	return parseAPIErrorFromBody(response.StatusCode, body)
}

// parseAPIErrorFromBody parses a GitHub API error from a status code
// and response body.
func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
	} else {
		apiError.Message = netutil.Snippet(body, 200)
	}

	return apiError
}
