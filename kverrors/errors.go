// Package kverrors defines the typed error kinds shared by every layer of
// chainkv: the store adapter, the write session, the undo stack, and the
// view iterator all return errors that wrap one of these sentinels so a
// caller can distinguish "fatal, discard the session" from "precondition
// violation, try again" with errors.Is.
package kverrors

import (
	"errors"
	"fmt"
)

var (
	// ErrStore marks a failure reported by the underlying KV engine. It is
	// fatal to the operation in progress; the caller must treat the owning
	// session (and any view/iterator derived from it) as poisoned.
	ErrStore = errors.New("chainkv: store error")

	// ErrInvalidState marks a precondition violation on the undo stack,
	// such as squash with fewer than two frames or a decreasing revision.
	// No persistent change occurs when this is returned.
	ErrInvalidState = errors.New("chainkv: invalid state")

	// ErrProgramming marks misuse: an iterator used while stale after an
	// erase of its current key, or a view/undo prefix that is empty or
	// starts with a sentinel byte. An iterator's LowerBound clamps keys
	// below its prefix instead of failing.
	ErrProgramming = errors.New("chainkv: programming error")

	// ErrSerialization marks a malformed persisted undo record or an
	// object too large to length-prefix.
	ErrSerialization = errors.New("chainkv: serialization error")
)

// Store wraps err as a StoreError, annotated with op.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStore, err)
}

// InvalidState reports a precondition violation on the undo stack.
func InvalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Programming reports iterator misuse.
func Programming(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProgramming, fmt.Sprintf(format, args...))
}

// Serialization reports a malformed persisted record.
func Serialization(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSerialization, fmt.Sprintf(format, args...))
}
