package model

import "errors"

// Sentinel errors shared across services and handlers.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFACodeRejected    = errors.New("mfa code rejected")
	ErrMFAStateNotFound   = errors.New("invalid or expired handle")
	ErrUpstream           = errors.New("upstream error")
)
