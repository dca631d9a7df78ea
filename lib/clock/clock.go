// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the current time for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
