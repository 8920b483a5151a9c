package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidSession indicates the presented session token matches no
	// live session.
	ErrInvalidSession = errors.New("invalid session token")

	// ErrExpiredSession indicates the session exists but has passed its
	// absolute expiry or idle window.
	ErrExpiredSession = errors.New("session has expired")

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidShareToken indicates the share-link token format is invalid
	// or the signature doesn't match.
	ErrInvalidShareToken = errors.New("invalid share token")

	// ErrExpiredShareToken indicates the share-link token has expired.
	ErrExpiredShareToken = errors.New("share token has expired")
)
