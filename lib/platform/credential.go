// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// CredentialEncoder encrypts login passwords for transport, the
// "crypt=metal" scheme: RSA PKCS #1 v1.5 under the platform's public
// key, then standard base64.
type CredentialEncoder struct {
	key *rsa.PublicKey
}

// NewCredentialEncoder parses a PEM "PUBLIC KEY" (PKIX) block holding
// an RSA key.
func NewCredentialEncoder(publicKeyPEM string) (*CredentialEncoder, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("platform: public key is not PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("platform: parsing public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("platform: public key is %T, want RSA", parsed)
	}
	return &CredentialEncoder{key: key}, nil
}

// Encode encrypts credential. PKCS #1 v1.5 padding is randomized, so
// two encodings of the same credential differ.
func (encoder *CredentialEncoder) Encode(credential []byte) (string, error) {
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, encoder.key, credential)
	if err != nil {
		return "", fmt.Errorf("platform: encrypting credential: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
