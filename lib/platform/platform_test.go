// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const (
	testClientAuthorization = "dGVzdDp0ZXN0"
	testToken               = "T1"
	testAuthPath            = "/oauth/token"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyPEM  string
)

// testKeypair returns an RSA key shared by every test in the package
// and its public half as PEM.
func testKeypair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			panic(err)
		}
		testKey = key
		testKeyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	})
	return testKey, testKeyPEM
}

// newTestClient creates a Client pointed at server for both the token
// endpoint and the API.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	_, publicKey := testKeypair(t)
	client, err := NewClient(Config{
		AuthURL:             server.URL + testAuthPath,
		APIURL:              server.URL,
		ClientAuthorization: testClientAuthorization,
		PublicKey:           publicKey,
		PageSize:            2,
		DownloadURLField:    "botReadUrl",
		HTTPClient:          server.Client(),
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

// newTestServer serves mux behind TLS plus a token endpoint that
// accepts any login and issues testToken.
func newTestServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	mux.HandleFunc("POST "+testAuthPath, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, map[string]any{"success": true, "access_token": testToken})
	})
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)
	return server
}

// loggedInSession returns a session that has completed Login.
func loggedInSession(t *testing.T, client *Client) *Session {
	t.Helper()
	session := client.NewSession()
	if err := session.Login(context.Background(), "alice", []byte("pw")); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return session
}

// requireBearer fails the request with 401 unless it carries testToken.
func requireBearer(t *testing.T, request *http.Request) bool {
	t.Helper()
	if got := request.Header.Get("Authorization"); got != "bearer "+testToken {
		t.Errorf("Authorization = %q, want bearer %s", got, testToken)
		return false
	}
	return true
}

func decodeBody(t *testing.T, request *http.Request, v any) {
	t.Helper()
	if err := json.NewDecoder(request.Body).Decode(v); err != nil {
		t.Errorf("decoding request body: %v", err)
	}
}

func writeJSON(writer http.ResponseWriter, v any) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(v)
}

func TestNewClient_HTTPSEnforcement(t *testing.T) {
	_, publicKey := testKeypair(t)
	tests := []struct {
		name    string
		authURL string
		apiURL  string
	}{
		{name: "auth", authURL: "http://auth.example/oauth/token", apiURL: "https://api.example"},
		{name: "api", authURL: "https://auth.example/oauth/token", apiURL: "http://api.example"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewClient(Config{
				AuthURL:             test.authURL,
				APIURL:              test.apiURL,
				ClientAuthorization: testClientAuthorization,
				PublicKey:           publicKey,
			})
			if err == nil {
				t.Fatal("expected error for HTTP URL")
			}
		})
	}
}

func TestNewClient_BadPublicKey(t *testing.T) {
	_, err := NewClient(Config{
		AuthURL:             "https://auth.example/oauth/token",
		APIURL:              "https://api.example",
		ClientAuthorization: testClientAuthorization,
		PublicKey:           "not a key",
	})
	if err == nil {
		t.Fatal("expected error for non-PEM public key")
	}
}

func TestCredentialEncoder_RoundTrip(t *testing.T) {
	privateKey, publicKey := testKeypair(t)
	encoder, err := NewCredentialEncoder(publicKey)
	if err != nil {
		t.Fatalf("NewCredentialEncoder: %v", err)
	}

	first, err := encoder.Encode([]byte("密码-secret"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := encoder.Encode([]byte("密码-secret"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if first == second {
		t.Error("two encodings are identical; padding should be randomized")
	}

	if got := decryptCredential(t, privateKey, first); got != "密码-secret" {
		t.Errorf("decrypted = %q", got)
	}
}
