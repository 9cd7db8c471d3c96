package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrRendererMissing   = errors.New("html renderer is not configured")
	ErrPrinterMissing    = errors.New("pdf printer is not configured")
	ErrUnknownAssignment = errors.New("date task is not part of the schedule")
)
