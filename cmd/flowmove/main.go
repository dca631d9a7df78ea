// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/cmd/flowmove/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own results (like a partially failed
		// migration) return an ExitError. Don't repeat them as "error:".
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.ExitCodeFor(err))
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
