// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocate maps anonymous memory outside the Go heap. mlock failing
// (usually RLIMIT_MEMLOCK) leaves the region unlocked rather than
// failing: a login must not depend on a resource limit.
func allocate(size int) ([]byte, bool, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, false, fmt.Errorf("secret: mmap failed: %w", err)
	}
	locked := unix.Mlock(data) == nil
	// MADV_DONTDUMP is unsupported on some kernels; the region is still
	// usable without it.
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)
	return data, locked, nil
}

func release(data []byte, locked bool) error {
	if locked {
		if err := unix.Munlock(data); err != nil {
			unix.Munmap(data)
			return fmt.Errorf("secret: munlock failed: %w", err)
		}
	}
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("secret: munmap failed: %w", err)
	}
	return nil
}
