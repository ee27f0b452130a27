package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrUnknownAction     = errors.New("unknown action")
	ErrDaemonUnavailable = errors.New("daemon unavailable")
	ErrNotInitialized    = errors.New("engine not initialized")
)
