package adapter

import (
	"context"
	"errors"
)

var (
	// ErrDeviceNotFound is returned by Open when no matching printer is attached
	ErrDeviceNotFound = errors.New("cannot find printer")

	// ErrNotOpen is returned by Write on an adapter that is not open
	ErrNotOpen = errors.New("device not open")

	// ErrAlreadyOpen is returned by Open on an adapter that is already open
	ErrAlreadyOpen = errors.New("device already open")

	// ErrNotSupported is returned when a transport is unavailable on this platform
	ErrNotSupported = errors.New("operation not supported on this platform")
)

// Adapter defines the interface for printer communication adapters.
// An adapter is single-use: Open, Write zero or more times, Close.
type Adapter interface {
	// Open opens the connection to the printer
	Open(ctx context.Context) error

	// Write sends data to the printer
	Write(ctx context.Context, data []byte) (int, error)

	// Close closes the connection to the printer. It releases anything a
	// failed Open acquired and is safe to call more than once. Close takes no
	// context: it must still run after the session deadline has passed.
	Close() error

	// IsOpen returns whether the connection is open
	IsOpen() bool
}
