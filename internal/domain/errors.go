package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrAlreadyFinished       = errors.New("task already finished")
	ErrInvalidTask           = errors.New("invalid task")
	ErrProviderFailure       = errors.New("provider failure")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrCapabilityMissing     = errors.New("provider capability missing")
	ErrStaleTransition       = errors.New("stale task transition")
)
