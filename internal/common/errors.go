// Package common defines shared constants, sentinel errors and small helpers
// used across the server and the CLI client. Callers should match the errors
// with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("email in use")
	ErrorRateLimited  = errors.New("too many requests")
	ErrorInvalidImage = errors.New("unsupported image")

	// Collaborator failures.
	ErrDeliveryFailed = errors.New("delivery failed")
	ErrUploadFailed   = errors.New("upload failed")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
