// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"errors"
	"fmt"
)

// ErrManifestNotFound is returned when an archive has no package.json
// entry at its top level.
var ErrManifestNotFound = errors.New("artifact: manifest " + ManifestPath + " not found")

// MalformedArtifactError reports an archive that cannot be opened or a
// manifest that is not a JSON object.
type MalformedArtifactError struct {
	// Reason is a short description of what was wrong.
	Reason string

	// Err is the underlying decoder error, if any.
	Err error
}

func (err *MalformedArtifactError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("artifact: malformed: %s", err.Reason)
	}
	return fmt.Sprintf("artifact: malformed: %s: %v", err.Reason, err.Err)
}

func (err *MalformedArtifactError) Unwrap() error { return err.Err }

// IsMalformed reports whether err is a *MalformedArtifactError.
func IsMalformed(err error) bool {
	var malformed *MalformedArtifactError
	return errors.As(err, &malformed)
}

func malformed(reason string, err error) error {
	return &MalformedArtifactError{Reason: reason, Err: err}
}
