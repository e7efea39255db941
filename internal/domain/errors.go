package domain

import "errors"

var (
	// ErrInvalidSelection means a hovered label matches neither station table.
	ErrInvalidSelection = errors.New("invalid station selection")

	// ErrFetchFailure wraps network, status and decode failures of the remote series service.
	ErrFetchFailure = errors.New("remote series fetch failed")

	// ErrEmptySeries means the remote service answered but returned no values.
	ErrEmptySeries = errors.New("empty discharge series")

	// ErrMalformedSchema means a startup table is missing columns or violates
	// a table invariant. It is fatal.
	ErrMalformedSchema = errors.New("malformed table schema")
)
