// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"testing"
)

func TestNew(t *testing.T) {
	buffer, err := New(64)
	if err != nil {
		t.Fatalf("New(64): %v", err)
	}
	defer buffer.Close()

	if buffer.Len() != 64 || len(buffer.Bytes()) != 64 {
		t.Errorf("Len = %d, len(Bytes) = %d, want 64", buffer.Len(), len(buffer.Bytes()))
	}
	for index, value := range buffer.Bytes() {
		if value != 0 {
			t.Fatalf("byte %d = %d, want zero-filled", index, value)
		}
	}

	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) succeeded", size)
		}
	}
}

func TestNewFromBytes(t *testing.T) {
	source := []byte("密码-hunter2")
	want := string(source)

	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source byte %d not zeroed", index)
		}
	}

	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) succeeded")
	}
}

func TestBuffer_Close(t *testing.T) {
	buffer, err := NewFromBytes([]byte("transient"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buffer.data != nil {
		t.Error("data retained after Close")
	}
	if err := buffer.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	for name, access := range map[string]func(){
		"Bytes":  func() { buffer.Bytes() },
		"String": func() { _ = buffer.String() },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s after Close did not panic", name)
				}
			}()
			access()
		})
	}
}

func TestZero(t *testing.T) {
	data := []byte{1, 2, 3}
	Zero(data)
	if data[0]|data[1]|data[2] != 0 {
		t.Errorf("Zero left %v", data)
	}
}
