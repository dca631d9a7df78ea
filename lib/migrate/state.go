// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"fmt"
	"time"
)

// State is a position in the move-one-app pipeline. States advance in
// declaration order; Aborted can follow any of them.
type State int

const (
	Idle State = iota
	IdentityMinted
	BotUploaded
	ManifestUploaded
	Registered
	Aborted
)

var stateNames = [...]string{
	Idle:             "idle",
	IdentityMinted:   "identity-minted",
	BotUploaded:      "bot-uploaded",
	ManifestUploaded: "manifest-uploaded",
	Registered:       "registered",
	Aborted:          "aborted",
}

func (state State) String() string {
	if state >= 0 && int(state) < len(stateNames) {
		return stateNames[state]
	}
	return fmt.Sprintf("state(%d)", int(state))
}

// MarshalText encodes the state by name.
func (state State) MarshalText() ([]byte, error) {
	return []byte(state.String()), nil
}

// SourceKind says where a migration reads its artifact from.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceRemote SourceKind = "remote"
)

// Source identifies the app being migrated.
type Source struct {
	Kind SourceKind `json:"kind"`

	// ID is the local app folder or the remote app identity.
	ID string `json:"id"`

	// Name is the original display name.
	Name string `json:"name"`

	// Account is the source account for remote migrations, or the local
	// user id for local ones.
	Account string `json:"account,omitempty"`
}

func (source Source) String() string {
	if source.Account != "" {
		return fmt.Sprintf("%s:%s/%s", source.Kind, source.Account, source.ID)
	}
	return fmt.Sprintf("%s:%s", source.Kind, source.ID)
}

// Event reports a state transition or a step inside one.
type Event struct {
	Time     time.Time `json:"time"`
	Source   Source    `json:"source"`
	State    State     `json:"state"`
	Identity string    `json:"identity,omitempty"`

	// Step names what the pipeline is doing ("download", "assign
	// archive upload") or, on a transition, what just completed.
	Step string `json:"step"`

	// Err is set on the transition to Aborted.
	Err error `json:"-"`
}

// Result is the outcome of one app's migration.
type Result struct {
	Source Source `json:"source"`

	// Identity is the new app identity, empty if minting never happened.
	Identity string `json:"identity,omitempty"`

	// Name is the rewritten display name.
	Name string `json:"name,omitempty"`

	// Reached is the last state completed. For a successful migration it
	// is Registered.
	Reached State `json:"reached"`

	// Err is why the migration aborted.
	Err error `json:"-"`

	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the app was registered.
func (result Result) Succeeded() bool {
	return result.Err == nil && result.Reached == Registered
}

// State returns Registered or Aborted.
func (result Result) State() State {
	if result.Succeeded() {
		return Registered
	}
	return Aborted
}

// Orphaned reports whether the migration failed after the archive was
// uploaded. The platform then holds an object under Identity that no
// catalog entry references, and it is never cleaned up automatically.
func (result Result) Orphaned() bool {
	return !result.Succeeded() && result.Reached >= BotUploaded
}

// Summary aggregates a batch.
type Summary struct {
	Results []Result `json:"results"`
}

// Total returns the number of apps requested.
func (summary Summary) Total() int { return len(summary.Results) }

// Succeeded returns the number of apps registered.
func (summary Summary) Succeeded() int {
	count := 0
	for _, result := range summary.Results {
		if result.Succeeded() {
			count++
		}
	}
	return count
}

// Failed returns the results that did not register.
func (summary Summary) Failed() []Result {
	var failed []Result
	for _, result := range summary.Results {
		if !result.Succeeded() {
			failed = append(failed, result)
		}
	}
	return failed
}

// Orphans returns the failed results that left uploads behind.
func (summary Summary) Orphans() []Result {
	var orphans []Result
	for _, result := range summary.Results {
		if result.Orphaned() {
			orphans = append(orphans, result)
		}
	}
	return orphans
}

func (summary Summary) String() string {
	return fmt.Sprintf("succeeded %d/%d", summary.Succeeded(), summary.Total())
}
