// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"
	"sync"
)

// Buffer holds sensitive bytes until Close. Any access after Close
// panics. A Buffer must not be copied.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
	closed bool
}

// New allocates a zero-filled buffer of size bytes.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}
	data, locked, err := allocate(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: data, locked: locked}, nil
}

// NewFromBytes copies source into a new buffer and zeroes source.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}
	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.data, source)
	Zero(source)
	return buffer, nil
}

// Bytes returns the secret. The slice aliases the buffer and is only
// valid until Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.data
}

// String returns a heap copy of the secret, for APIs that only take
// strings.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("secret: read from closed buffer")
	}
	return string(b.data)
}

// Len returns the size of the secret.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Locked reports whether the memory is pinned against swap.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Close zeroes and releases the memory. Close is idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	Zero(b.data)
	err := release(b.data, b.locked)
	b.data = nil
	return err
}

// Zero overwrites data with zeroes.
func Zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}
