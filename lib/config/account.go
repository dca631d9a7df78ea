// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/flowmove/flowmove/lib/sealed"
)

// ErrNoPassword is returned by Password when an account has no stored
// credential. Interactive commands prompt in that case.
var ErrNoPassword = errors.New("no password configured")

// Account is a named platform login.
type Account struct {
	// Name is how commands refer to the account (--from, --to).
	Name string `yaml:"name" json:"name"`

	// Username is the platform login name, usually a phone number or
	// an email address.
	Username string `yaml:"username" json:"username"`

	// Password is a plaintext password. Accepted for compatibility
	// with the desktop client's config file; prefer SealedPassword.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// PasswordFile is a file whose first line is the password.
	PasswordFile string `yaml:"password_file,omitempty" json:"password_file,omitempty"`

	// SealedPassword is base64 age ciphertext of the password.
	SealedPassword string `yaml:"sealed_password,omitempty" json:"sealed_password,omitempty"`
}

// CredentialSource describes where an account's password comes from,
// for display. It never includes the password.
func (account *Account) CredentialSource() string {
	switch {
	case account.SealedPassword != "":
		return "sealed"
	case account.PasswordFile != "":
		return "file"
	case account.Password != "":
		return "plaintext"
	default:
		return "prompt"
	}
}

// Password resolves the account's password. Sources are tried in the
// order sealed, file, plaintext. Returns ErrNoPassword when the
// account has none of them.
func (c *Config) Password(account *Account) ([]byte, error) {
	switch {
	case account.SealedPassword != "":
		if c.IdentityFile == "" {
			return nil, fmt.Errorf("account %q: sealed_password requires identity_file", account.Name)
		}
		identities, err := sealed.LoadIdentities(c.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", account.Name, err)
		}
		password, err := sealed.Decrypt(account.SealedPassword, identities)
		if err != nil {
			return nil, fmt.Errorf("account %q: opening sealed password: %w", account.Name, err)
		}
		return password, nil

	case account.PasswordFile != "":
		data, err := os.ReadFile(account.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("account %q: reading password file: %w", account.Name, err)
		}
		line, _, _ := strings.Cut(string(data), "\n")
		line = strings.TrimRight(line, "\r")
		if line == "" {
			return nil, fmt.Errorf("account %q: password file %s is empty", account.Name, account.PasswordFile)
		}
		return []byte(line), nil

	case account.Password != "":
		return []byte(account.Password), nil
	}

	return nil, fmt.Errorf("account %q: %w", account.Name, ErrNoPassword)
}
