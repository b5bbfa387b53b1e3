package sdspi

import "errors"

// Protocol operation outcomes. A nil error means the operation succeeded.
// Retry policy lives in the caller; these carry no attempt state.
var (
	// ErrNotDetected means no card answered the idle handshake. The card
	// might be missing or unpowered.
	ErrNotDetected = errors.New("sdspi: no card detected")

	// ErrTimeout means a bounded busy-wait expired without the card
	// finishing the operation.
	ErrTimeout = errors.New("sdspi: operation timed out")

	// ErrReadWriteFail means a data token never appeared or a command
	// response indicated rejection.
	ErrReadWriteFail = errors.New("sdspi: read/write command failed")
)
