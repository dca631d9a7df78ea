// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the flowmove binary.
//
// A [Command] tree dispatches on the first positional argument. Flags
// are declared as tagged struct fields and bound with [FlagsFromParams]
// on top of spf13/pflag. Unknown commands and flags get edit-distance
// suggestions.
//
// Errors returned from commands are classified with [ToolError]
// (Validation, NotFound, Forbidden, Transient, Internal) so that
// [ExitCodeFor] maps them to distinct exit codes. [ExitError] carries a
// handled non-zero exit, such as a migration batch in which some apps
// failed after the results table was printed.
//
// [Prompter] handles the interactive parts: password entry without
// echo (golang.org/x/term), "yes" confirmations, and 1-based list
// selections parsed by [ParseSelection].
package cli
