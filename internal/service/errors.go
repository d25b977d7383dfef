package service

import "errors"

// Domain errors surfaced to the handler layer, which maps them onto HTTP
// status codes. Anything else bubbling out of the service is an internal
// failure and becomes a 500.
var (
	// ErrAccountNotFound: no account with the given id exists at all.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccessDenied: the account exists but belongs to another user.
	// Checked after existence, so a 403 does reveal that the id is taken;
	// that ordering is part of the API contract.
	ErrAccessDenied = errors.New("access denied")

	// ErrDuplicateName: the name collides with another of the caller's
	// active accounts. Inactive accounts never collide.
	ErrDuplicateName = errors.New("account name already exists")
)
