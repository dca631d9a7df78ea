// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// Keypair holds an age x25519 keypair in its text encodings.
type Keypair struct {
	// PrivateKey is the identity in AGE-SECRET-KEY-1... format. It
	// belongs in an identity file readable only by the operator.
	PrivateKey string

	// PublicKey is the recipient in age1... format.
	PublicKey string
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}
	return &Keypair{
		PrivateKey: identity.String(),
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// Encrypt seals plaintext to one or more recipients (age1... public
// keys) and returns standard base64 ciphertext.
func Encrypt(plaintext []byte, recipientKeys []string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return "", fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertextBuffer bytes.Buffer
	writer, err := age.Encrypt(&ciphertextBuffer, recipients...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertextBuffer.Bytes()), nil
}

// Decrypt opens base64 ciphertext with any of the given identities.
func Decrypt(ciphertext string, identities []age.Identity) ([]byte, error) {
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities to decrypt with")
	}

	rawCiphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(rawCiphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}

	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}

// ParseIdentities parses an age identity file body: one
// AGE-SECRET-KEY-1... line per identity, with # comments and blank
// lines allowed (the format age-keygen writes).
func ParseIdentities(data []byte) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing age identities: %w", err)
	}
	return identities, nil
}

// LoadIdentities reads and parses an age identity file.
func LoadIdentities(path string) ([]age.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	return ParseIdentities(data)
}

// ParsePublicKey validates an age public key string.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}

// Recipients returns the age1... public key of every x25519 identity,
// so a value can be sealed to the identity file that will open it.
func Recipients(identities []age.Identity) ([]string, error) {
	recipients := make([]string, 0, len(identities))
	for _, identity := range identities {
		x25519, ok := identity.(*age.X25519Identity)
		if !ok {
			return nil, fmt.Errorf("identity of type %T has no x25519 recipient", identity)
		}
		recipients = append(recipients, x25519.Recipient().String())
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no identities")
	}
	return recipients, nil
}
