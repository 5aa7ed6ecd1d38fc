package model

import "errors"

// Error kinds shared by the pipeline. Callers wrap them with fmt.Errorf and
// the web layer maps them to status codes with errors.Is.
var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrProvider marks any failure talking to the events provider. It is
	// recovered by falling back to synthesized events.
	ErrProvider = errors.New("provider error")
	// ErrNotFound marks empty results and unknown or expired sessions.
	ErrNotFound = errors.New("not found")
	// ErrInternal marks unexpected failures while building a calendar.
	ErrInternal = errors.New("internal error")
)
