package service

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrStopped is returned by intents sent after the state loop has exited.
	ErrStopped = errors.New("state service stopped")
)

// errUnchanged aborts an update without saving or reporting an error.
var errUnchanged = errors.New("unchanged")
