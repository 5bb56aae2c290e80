package models

import "errors"

// Stage-level error kinds. All are per-item: one failing instrument/date
// must never abort the rest of a batch.
var (
	// ErrInsufficientHistory means the bar window is shorter than the
	// minimum an indicator needs; the caller skips that (symbol, date).
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrDeferredNotReady means the maturation window has not elapsed or
	// forward price data is missing; the signal stays unlabeled and is
	// retried on a later pass.
	ErrDeferredNotReady = errors.New("maturation window not ready")

	// ErrNoValidData means no input row survived validation.
	ErrNoValidData = errors.New("no valid data")

	// ErrStoreUnavailable wraps store read/write failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)
