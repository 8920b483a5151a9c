package service

import "errors"

// Common service-level errors
var (
	// ErrInvalidCredentials is returned when authentication fails, whether
	// the email is unknown or the password is wrong. The two cases are
	// deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPassword is returned by password changes when the supplied
	// current password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrInvalidFeed is returned when a staged catalog feed is not valid JSON.
	ErrInvalidFeed = errors.New("catalog feed is not valid JSON")
)
