// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/flowmove/flowmove/lib/netutil"
)

// Session is one account's authenticated view of the platform. A new
// session is unauthenticated; every authenticated method returns
// ErrNotLoggedIn without touching the network until Login succeeds.
//
// The token is held in memory only. A Session is not safe for
// concurrent Login; once logged in it is read-only and may be shared.
type Session struct {
	client   *Client
	username string
	token    string
}

// NewSession returns an unauthenticated session.
func (client *Client) NewSession() *Session {
	return &Session{client: client}
}

// Authenticated reports whether Login has succeeded.
func (session *Session) Authenticated() bool {
	return session.token != ""
}

// Username returns the username of the last Login attempt.
func (session *Session) Username() string {
	return session.username
}

func (session *Session) bearer() (string, error) {
	if session.token == "" {
		return "", ErrNotLoggedIn
	}
	return session.token, nil
}

// Login exchanges a username and password for a bearer token. On
// failure the session is left unauthenticated and the error is an
// *AuthError carrying the server's message.
func (session *Session) Login(ctx context.Context, username string, password []byte) error {
	session.username = username
	session.token = ""

	encoded, err := session.client.encoder.Encode(password)
	if err != nil {
		return &AuthError{Username: username, Message: "encoding password", Err: err}
	}

	form := url.Values{
		"username":   {username},
		"password":   {encoded},
		"crypt":      {"metal"},
		"grant_type": {"password"},
		"scope":      {"all"},
	}

	authURL := session.client.authURL
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Username: username, Message: "creating request", Err: err}
	}
	setLegacyHeaders(request)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded; Charset=UTF-8")
	request.Header.Set("Authorization", "basic "+session.client.clientAuthorization)
	request.Header.Set("Referer", authURL)

	response, err := session.client.httpClient.Do(request)
	if err != nil {
		return &AuthError{Username: username, Message: "request failed", Err: err}
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return &AuthError{Username: username, Message: "reading response", Err: err}
	}

	result, err := parseLoginResponse(body)
	if err != nil {
		return &AuthError{
			Username: username,
			Message:  fmt.Sprintf("HTTP %d: malformed response %q", response.StatusCode, netutil.Snippet(body, diagnosticBodyLimit)),
			Err:      err,
		}
	}
	if !result.Success || result.AccessToken == "" {
		message := result.Message
		if message == "" {
			message = fmt.Sprintf("login rejected (HTTP %d)", response.StatusCode)
		}
		return &AuthError{Username: username, Message: message}
	}

	session.token = result.AccessToken
	session.client.logger.Debug("logged in", "username", username)
	return nil
}

// parseLoginResponse decodes the token endpoint body. The endpoint
// sometimes concatenates two JSON objects ("{...}{...}"); only the
// first is meaningful.
func parseLoginResponse(body []byte) (*loginResponse, error) {
	text := strings.TrimSpace(string(body))
	if index := strings.Index(text, "}{"); index >= 0 {
		text = text[:index+1]
	}
	var result loginResponse
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
