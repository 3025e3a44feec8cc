package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrBadInput      = errors.New("bad input")
	ErrRowMismatch   = errors.New("row count mismatch")
	ErrPipeline      = errors.New("pipeline failure")
)
