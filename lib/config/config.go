// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path from.
const EnvironmentVariable = "FLOWMOVE_CONFIG"

// Config is the complete flowmove configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Platform configures the remote endpoints and wire details.
	Platform PlatformConfig `yaml:"platform" json:"platform"`

	// Local configures the on-disk app cache.
	Local LocalConfig `yaml:"local" json:"local"`

	// JournalPath is where migration results are appended. Empty
	// disables the journal.
	JournalPath string `yaml:"journal_path" json:"journal_path"`

	// IdentityFile is the age identity used to open sealed_password
	// values. Required only when an account uses sealed_password.
	IdentityFile string `yaml:"identity_file" json:"identity_file"`

	// Accounts are the named platform accounts.
	Accounts []Account `yaml:"accounts" json:"accounts"`
}

// PlatformConfig configures the remote automation platform.
type PlatformConfig struct {
	// AuthURL is the OAuth token endpoint.
	AuthURL string `yaml:"auth_url" json:"auth_url"`

	// APIURL is the base URL of the client API.
	APIURL string `yaml:"api_url" json:"api_url"`

	// ClientAuthorization is the base64 client credential sent as
	// "Authorization: basic ..." on login. This identifies the client
	// application, not a user.
	ClientAuthorization string `yaml:"client_authorization" json:"client_authorization"`

	// PublicKey is the PEM-encoded RSA key the login password is
	// encrypted with.
	PublicKey string `yaml:"public_key" json:"public_key"`

	// InsecureSkipVerify disables TLS certificate verification, which
	// the legacy desktop client also does. Default: true.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`

	// Timeout bounds each HTTP request, as a Go duration string.
	// Default: 120s.
	Timeout string `yaml:"timeout" json:"timeout"`

	// PageSize is the catalog listing page size. Default: 30.
	PageSize int `yaml:"page_size" json:"page_size"`

	// DownloadURLField names the app detail field holding the
	// artifact's read URL. Default: botReadUrl.
	DownloadURLField string `yaml:"download_url_field" json:"download_url_field"`
}

// LocalConfig configures the local app cache.
type LocalConfig struct {
	// Root is the per-user cache root, containing
	// <user>/apps/<app>/xbot_robot/package.json.
	Root string `yaml:"root" json:"root"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Platform: PlatformConfig{
			AuthURL:             "https://api.yingdao.com/oauth/token",
			APIURL:              "https://api.winrobot360.com",
			ClientAuthorization: DesktopClientAuthorization,
			PublicKey:           DefaultPublicKey,
			InsecureSkipVerify:  true,
			Timeout:             "120s",
			PageSize:            30,
			DownloadURLField:    "botReadUrl",
		},
		Local: LocalConfig{
			Root: "${LOCALAPPDATA}/ShadowBot/users",
		},
		JournalPath: "${HOME}/.flowmove/journal.cbor",
	}
}

// DesktopClientAuthorization is the OAuth client credential that the
// platform's desktop client ships in every installer, base64 of
// "<client id>:<client secret>". It is public and identifies the
// application, not a user. Deployments registered with their own client
// set platform.client_authorization instead.
const DesktopClientAuthorization = "c25zOlQ3c3ZGY0lMNGZvUGoxajk="

// DefaultPublicKey is the platform's published login encryption key.
const DefaultPublicKey = `-----BEGIN PUBLIC KEY-----
MIGfMA0GCSqGSIb3DQEBAQUAA4GNADCBiQKBgQCte0XfPY9GUpQ3ZasH1kVbDhRw
yRAqWSeyxj290OqFHtyiZ+5SQjrEr79mk0hcZqV03fb5oYf385E3gopSERIKxVQy
GoloNeDgyLu7rHHWMPo8KPDpUBlpRpHlGMgBNzJZ2BI6p7LvGAhCoA7XRuetyTlA
W6EbSXBpSu1sNGBhkQIDAQAB
-----END PUBLIC KEY-----
`

// Load loads configuration from the FLOWMOVE_CONFIG environment
// variable, or returns Default() when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables("")
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, layered over
// Default(). Relative paths inside the file resolve against the file's
// directory.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.expandVariables(filepath.Dir(path))
	return cfg, nil
}

// RequestTimeout parses Platform.Timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Platform.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.Platform.Timeout)
	if err != nil {
		return 0, fmt.Errorf("platform.timeout: %w", err)
	}
	return timeout, nil
}

// Account returns the account with the given name.
func (c *Config) Account(name string) (*Account, error) {
	for index := range c.Accounts {
		if c.Accounts[index].Name == name {
			return &c.Accounts[index], nil
		}
	}
	names := make([]string, 0, len(c.Accounts))
	for _, account := range c.Accounts {
		names = append(names, account.Name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("account %q not found: no accounts configured", name)
	}
	return nil, fmt.Errorf("account %q not found (configured: %s)", name, strings.Join(names, ", "))
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level: %q", c.LogLevel))
	}

	if !strings.HasPrefix(c.Platform.AuthURL, "https://") {
		errs = append(errs, fmt.Errorf("platform.auth_url must use https (got %q)", c.Platform.AuthURL))
	}
	if !strings.HasPrefix(c.Platform.APIURL, "https://") {
		errs = append(errs, fmt.Errorf("platform.api_url must use https (got %q)", c.Platform.APIURL))
	}
	if c.Platform.ClientAuthorization == "" {
		errs = append(errs, fmt.Errorf("platform.client_authorization is required"))
	} else if err := checkClientAuthorization(c.Platform.ClientAuthorization); err != nil {
		errs = append(errs, fmt.Errorf("platform.client_authorization: %w", err))
	}
	if block, _ := pem.Decode([]byte(c.Platform.PublicKey)); block == nil {
		errs = append(errs, fmt.Errorf("platform.public_key is not PEM"))
	}
	if _, err := c.RequestTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Platform.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("platform.page_size must be positive (got %d)", c.Platform.PageSize))
	}
	if c.Platform.DownloadURLField == "" {
		errs = append(errs, fmt.Errorf("platform.download_url_field is required"))
	}

	seen := make(map[string]bool, len(c.Accounts))
	for index, account := range c.Accounts {
		if account.Name == "" {
			errs = append(errs, fmt.Errorf("accounts[%d]: name is required", index))
			continue
		}
		if seen[account.Name] {
			errs = append(errs, fmt.Errorf("accounts[%d]: duplicate name %q", index, account.Name))
		}
		seen[account.Name] = true
		if account.SealedPassword != "" && c.IdentityFile == "" {
			errs = append(errs, fmt.Errorf("accounts[%d] (%s): sealed_password requires identity_file", index, account.Name))
		}
	}

	return errors.Join(errs...)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths
// and the client credential, and resolves relative file references
// against baseDir.
func (c *Config) expandVariables(baseDir string) {
	vars := map[string]string{}
	if home, err := os.UserHomeDir(); err == nil {
		vars["HOME"] = home
	}

	c.Platform.ClientAuthorization = expandVars(c.Platform.ClientAuthorization, vars)
	c.Local.Root = expandVars(c.Local.Root, vars)
	c.JournalPath = expandVars(c.JournalPath, vars)
	c.IdentityFile = resolvePath(expandVars(c.IdentityFile, vars), baseDir)
	for index := range c.Accounts {
		account := &c.Accounts[index]
		account.PasswordFile = resolvePath(expandVars(account.PasswordFile, vars), baseDir)
	}
}

func resolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Environment first so that HOME can be overridden in tests and
		// on hosts where UserHomeDir disagrees with the shell.
		if value := os.Getenv(name); value != "" {
			return value
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		return defaultValue
	})
}

// checkClientAuthorization requires the base64 "<id>:<secret>" form the
// token endpoint expects in its Basic header.
func checkClientAuthorization(value string) error {
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("not base64: %w", err)
	}
	id, _, found := strings.Cut(string(decoded), ":")
	if !found || id == "" {
		return errors.New(`does not decode to "<client id>:<client secret>"`)
	}
	return nil
}
