// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/artifact"
	"github.com/flowmove/flowmove/lib/config"
	"github.com/flowmove/flowmove/lib/localflow"
	"github.com/flowmove/flowmove/lib/platform"
	"github.com/flowmove/flowmove/lib/render"
	"github.com/flowmove/flowmove/lib/secret"
)

// Runtime is the process environment commands run in. Tests replace
// the streams and the update-check endpoint.
type Runtime struct {
	Out      io.Writer
	Err      io.Writer
	Prompter *cli.Prompter

	// Logger builds the command logger. Defaults to cli.NewCommandLogger.
	Logger func(level slog.Level) *slog.Logger

	// GitHubBaseURL and GitHubHTTPClient override the release endpoint.
	GitHubBaseURL    string
	GitHubHTTPClient *http.Client
}

// DefaultRuntime uses the process's standard streams.
func DefaultRuntime() *Runtime {
	return &Runtime{
		Out:      os.Stdout,
		Err:      os.Stderr,
		Prompter: cli.NewPrompter(),
		Logger:   cli.NewCommandLogger,
	}
}

// GlobalParams are the flags every command accepts.
type GlobalParams struct {
	ConfigPath string `json:"-" flag:"config" desc:"config file (default: $FLOWMOVE_CONFIG, then built-in defaults)"`
	LogLevel   string `json:"-" flag:"log-level" desc:"override log_level (debug, info, warn, error)"`
	NoColor    bool   `json:"-" flag:"no-color" desc:"disable colored table output"`
	Trace      bool   `json:"-" flag:"trace" desc:"log a span for every migration step"`
}

// environment is a command's resolved configuration and services.
type environment struct {
	runtime  *Runtime
	config   *config.Config
	logger   *slog.Logger
	renderer *render.Renderer
	shutdown func(context.Context) error
}

// open loads configuration and builds the logger and renderer for the
// named command. The caller must call close.
func (runtime *Runtime) open(global *GlobalParams, command string) (*environment, error) {
	var cfg *config.Config
	var err error
	if global.ConfigPath != "" {
		cfg, err = config.LoadFile(global.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cli.NotFound("config: %w", err)
		}
		return nil, cli.Validation("config: %w", err)
	}
	if global.LogLevel != "" {
		cfg.LogLevel = global.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid config:\n%w", err)
	}

	level, err := cli.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	logger := runtime.newLogger(level).With("command", command)

	env := &environment{
		runtime:  runtime,
		config:   cfg,
		logger:   logger,
		renderer: render.New(runtime.Out, render.Options{NoColor: global.NoColor}),
		shutdown: func(context.Context) error { return nil },
	}
	if global.Trace {
		env.shutdown = installTracing(logger)
	}
	return env, nil
}

func (runtime *Runtime) newLogger(level slog.Level) *slog.Logger {
	if runtime.Logger == nil {
		return cli.NewCommandLogger(level)
	}
	return runtime.Logger(level)
}

func (env *environment) close() {
	if err := env.shutdown(context.WithoutCancel(context.Background())); err != nil {
		env.logger.Warn("trace shutdown failed", "error", err)
	}
}

func (env *environment) printf(format string, args ...any) {
	fmt.Fprintf(env.runtime.Out, format, args...)
}

// notef writes progress and warnings meant for the operator, not for
// scripts parsing stdout.
func (env *environment) notef(format string, args ...any) {
	fmt.Fprintf(env.runtime.Err, format, args...)
}

// platformClient builds a platform client from the configuration.
func (env *environment) platformClient() (*platform.Client, error) {
	timeout, err := env.config.RequestTimeout()
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	settings := env.config.Platform
	client, err := platform.NewClient(platform.Config{
		AuthURL:             settings.AuthURL,
		APIURL:              settings.APIURL,
		ClientAuthorization: settings.ClientAuthorization,
		PublicKey:           settings.PublicKey,
		InsecureSkipVerify:  settings.InsecureSkipVerify,
		Timeout:             timeout,
		PageSize:            settings.PageSize,
		DownloadURLField:    settings.DownloadURLField,
		Logger:              env.logger,
	})
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	return client, nil
}

// login opens a session for the named account. Accounts without a
// configured password are prompted for one.
func (env *environment) login(ctx context.Context, client *platform.Client, accountName string) (*platform.Session, error) {
	if accountName == "" {
		return nil, cli.Validation("an account name is required")
	}
	account, err := env.config.Account(accountName)
	if err != nil {
		return nil, cli.NotFound("%w", err)
	}

	password, err := env.config.Password(account)
	if errors.Is(err, config.ErrNoPassword) {
		password, err = env.runtime.Prompter.Password(fmt.Sprintf("Password for %s (%s): ", account.Name, account.Username))
	}
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	if len(password) == 0 {
		return nil, cli.Validation("account %q: empty password", account.Name)
	}
	protected, err := secret.NewFromBytes(password)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	defer protected.Close()
	if !protected.Locked() {
		env.logger.Debug("password memory is not locked against swap", "account", account.Name)
	}

	session := client.NewSession()
	if err := session.Login(ctx, account.Username, protected.Bytes()); err != nil {
		return nil, classify(fmt.Sprintf("log in as %s", account.Name), err)
	}
	env.logger.Info("logged in", "account", account.Name, "username", account.Username)
	return session, nil
}

// scan reads the local cache root, honoring a per-command override.
func (env *environment) scan(root string) ([]localflow.Record, error) {
	if root == "" {
		root = env.config.Local.Root
	}
	records, err := localflow.Scan(root, env.logger)
	if err != nil {
		return nil, classify("scan "+root, err)
	}
	return records, nil
}

// classify wraps err in the cli.ToolError category that matches it.
func classify(operation string, err error) error {
	var toolError *cli.ToolError
	switch {
	case errors.As(err, &toolError):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return cli.Transient("%s: interrupted: %w", operation, err)
	case platform.IsAuthFailure(err),
		errors.Is(err, platform.ErrTokenExpired),
		errors.Is(err, platform.ErrNotLoggedIn):
		return cli.Forbidden("%s: %w", operation, err)
	case platform.IsNotFound(err),
		errors.Is(err, localflow.ErrRootNotFound),
		errors.Is(err, os.ErrNotExist):
		return cli.NotFound("%s: %w", operation, err)
	case platform.IsTransport(err), errors.Is(err, platform.ErrNoAssignment):
		return cli.Transient("%s: %w", operation, err)
	case artifact.IsMalformed(err):
		return cli.Internal("%s: malformed artifact: %w", operation, err)
	}
	return cli.Internal("%s: %w", operation, err)
}
