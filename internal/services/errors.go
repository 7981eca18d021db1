// Package services defines the business logic for accounts, chat replies, and
// conversation history. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrEmailTaken is returned when registering with an email address that
	// already belongs to an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned when a login attempt names an unknown
	// email or supplies the wrong password. Both cases collapse into this one
	// error so callers cannot distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingFields is returned when a register or login request omits a
	// required field.
	ErrMissingFields = errors.New("missing required fields")
)

// Chat-related errors.
var (
	// ErrEmptyMessage is returned when a chat request contains an empty or
	// whitespace-only message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a chat message exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("message too long")
)

// History-related errors.
var (
	// ErrEntryNotFound indicates that the requested history entry does not
	// exist or is not accessible to the current user.
	ErrEntryNotFound = errors.New("history entry not found")
)
