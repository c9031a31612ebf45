package service

import "errors"

var (
	// ErrForbidden signals that the entity exists but the requester may not
	// see or modify it. Handlers map it to 403, distinct from not-found.
	ErrForbidden = errors.New("forbidden")

	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrRegistrationDisabled = errors.New("registration is disabled")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrInvalidInvitation    = errors.New("invitation code is invalid or expired")
	ErrInvalidParent        = errors.New("category cannot be its own ancestor or descendant")
)
