// Package flock provides advisory, per-path, cross-process mutual exclusion
// backed by a lock file. It is the concrete implementation of the
// filesystem-lock capability the allocator depends on: a named lock,
// try-lock (non-blocking), release-on-drop.
//
// Locks are keyed by an arbitrary name (the bundle-id, as a decimal string)
// within a caller-chosen lock directory, mirroring the one-lock-file-per-id
// layout of the original bundle store.
package flock

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrBusy indicates the lock is held by another process or goroutine.
var ErrBusy = errors.New("flock: busy")

// Lock is a held advisory lock on a single file. The zero value is not
// usable; construct one with [TryAcquire].
type Lock struct {
	file *os.File
}

// TryAcquire opens (creating if absent) the lock file at path and attempts
// a non-blocking exclusive lock. On contention it returns [ErrBusy] without
// blocking; callers are expected to pick a different lock candidate and
// retry, matching the allocator's polling loop.
func TryAcquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("flock: open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()

		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, ErrBusy
		}

		return nil, fmt.Errorf("flock: %w", err)
	}

	return &Lock{file: file}, nil
}

// Release drops the lock and closes the underlying file handle. Release is
// idempotent and safe to call on a nil *Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}

	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
