package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrCorruptSnapshot is returned when a stored document cannot be decoded.
	ErrCorruptSnapshot = errors.New("persistence: corrupt snapshot")
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("persistence: store closed")
)
