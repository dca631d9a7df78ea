// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowmove/flowmove/lib/netutil"
)

// legacyUserAgent is the user agent of the desktop client. Object
// storage signatures and the token endpoint are only exercised with it.
const legacyUserAgent = "Mozilla/4.0 (compatible; MSIE 9.0; Windows NT 6.1)"

const (
	// diagnosticBodyLimit bounds response bodies quoted in errors.
	diagnosticBodyLimit = 200

	// diagnosticURLLimit bounds pre-signed URLs quoted in errors.
	diagnosticURLLimit = 80

	defaultPageSize = 30
)

// Config holds configuration for creating a platform Client.
type Config struct {
	// AuthURL is the OAuth token endpoint. Must use HTTPS.
	AuthURL string

	// APIURL is the client API base URL. Must use HTTPS.
	APIURL string

	// ClientAuthorization is the base64 client credential for the
	// login Basic header.
	ClientAuthorization string

	// PublicKey is the PEM RSA key for password transport encoding.
	PublicKey string

	// InsecureSkipVerify disables TLS certificate verification on the
	// default HTTP client. Ignored when HTTPClient is set.
	InsecureSkipVerify bool

	// Timeout bounds each request on the default HTTP client. Zero
	// means no timeout. Ignored when HTTPClient is set.
	Timeout time.Duration

	// PageSize is the catalog listing page size. Defaults to 30.
	PageSize int

	// DownloadURLField names the app detail field holding the
	// artifact read URL. Required for remote-source migration.
	DownloadURLField string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client holds the platform endpoints and HTTP transport shared by
// every Session. Raw object-storage transfers (Upload, Download) need
// no login and live here; everything else is a Session method.
type Client struct {
	authURL             string
	apiURL              string
	clientAuthorization string
	encoder             *CredentialEncoder
	httpClient          *http.Client
	pageSize            int
	downloadURLField    string
	logger              *slog.Logger
}

// NewClient creates a platform client from the given configuration.
func NewClient(config Config) (*Client, error) {
	authURL := config.AuthURL
	apiURL := strings.TrimRight(config.APIURL, "/")
	if !strings.HasPrefix(authURL, "https://") {
		return nil, fmt.Errorf("platform: auth URL requires HTTPS (got %q)", authURL)
	}
	if !strings.HasPrefix(apiURL, "https://") {
		return nil, fmt.Errorf("platform: API URL requires HTTPS (got %q)", apiURL)
	}
	if config.ClientAuthorization == "" {
		return nil, fmt.Errorf("platform: client authorization is required")
	}

	encoder, err := NewCredentialEncoder(config.PublicKey)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(config.InsecureSkipVerify, config.Timeout)
	}

	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		authURL:             authURL,
		apiURL:              apiURL,
		clientAuthorization: config.ClientAuthorization,
		encoder:             encoder,
		httpClient:          httpClient,
		pageSize:            pageSize,
		downloadURLField:    config.DownloadURLField,
		logger:              logger,
	}, nil
}

// newHTTPClient builds the default transport. Certificate verification
// is off when insecure is set, matching the desktop client, which
// talks to endpoints whose chains do not always validate.
func newHTTPClient(insecure bool, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: insecure, //nolint:gosec // legacy endpoint compatibility, configurable
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// setLegacyHeaders applies the headers every desktop-client request
// carries.
func setLegacyHeaders(request *http.Request) {
	request.Header.Set("Connection", "Keep-Alive")
	request.Header.Set("Accept", "*/*")
	request.Header.Set("Accept-Language", "zh-cn")
	request.Header.Set("User-Agent", legacyUserAgent)
}

// do sends an authenticated client API request and returns the body of
// a 2xx response. query may be nil; requestBody is JSON-encoded when
// non-nil. HTTP 401 maps to ErrTokenExpired.
func (session *Session) do(ctx context.Context, operation, method, path string, query url.Values, requestBody any) ([]byte, error) {
	token, err := session.bearer()
	if err != nil {
		return nil, err
	}
	client := session.client

	endpoint := client.apiURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("platform: %s: encoding request body: %w", operation, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("platform: %s: creating request: %w", operation, err)
	}
	setLegacyHeaders(request)
	request.Header.Set("Authorization", "bearer "+token)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("platform: %s: %w", operation, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("platform: %s: reading response body: %w", operation, err)
	}

	if response.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s: %w", operation, ErrTokenExpired)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, parseAPIError(operation, response.StatusCode, body)
	}
	return body, nil
}

// call is do followed by decoding the response into result.
func (session *Session) call(ctx context.Context, operation, method, path string, query url.Values, requestBody any, result any) error {
	body, err := session.do(ctx, operation, method, path, query, requestBody)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &APIError{
			Operation:  operation,
			StatusCode: http.StatusOK,
			Message:    "undecodable response: " + netutil.Snippet(body, diagnosticBodyLimit),
		}
	}
	return nil
}

// parseAPIError builds an APIError from a failed response, preferring
// the envelope's msg over the raw body.
func parseAPIError(operation string, statusCode int, body []byte) *APIError {
	apiError := &APIError{Operation: operation, StatusCode: statusCode}
	var wire envelope
	if json.Unmarshal(body, &wire) == nil && (wire.Message != "" || wire.Code != 0) {
		apiError.Code = wire.Code
		apiError.Message = wire.Message
	} else {
		apiError.Message = netutil.Snippet(body, diagnosticBodyLimit)
	}
	return apiError
}

// envelopeError describes a 2xx response whose envelope reports
// failure.
func envelopeError(operation string, response *envelope) *APIError {
	message := response.Message
	if message == "" {
		message = "request reported failure"
	}
	return &APIError{
		Operation:  operation,
		StatusCode: http.StatusOK,
		Code:       response.Code,
		Message:    message,
	}
}
