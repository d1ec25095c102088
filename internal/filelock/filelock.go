// Copyright 2025 Masiedu Fosu-Ankrah
// SPDX-License-Identifier: Apache-2.0

// Package filelock provides an advisory exclusive lock on a single
// file, used to serialize mutating engine operations against a tracked
// directory's state file. It is not a distributed lock: it only
// protects against concurrent processes on the same host sharing the
// same filesystem.
package filelock

import (
	"fmt"
	"os"
	"syscall"
)

// Lock holds an open, exclusively-flocked file handle.
type Lock struct {
	f *os.File
}

// Acquire opens (creating if necessary) the file at path and takes an
// exclusive advisory lock on it, blocking until it is available.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filelock: open %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("filelock: lock %s: %w", path, err)
	}

	return &Lock{f: f}, nil
}

// Release unlocks and closes the underlying file handle.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	return l.f.Close()
}
