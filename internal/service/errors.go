package service

import "errors"

// Error taxonomy shared by the services. Handlers map these onto HTTP
// statuses; anything else surfaces as a generic operation failure.
var (
	// ErrInvalidCredential covers malformed, unsigned or expired tokens and
	// bad login credentials.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnknownPrincipal means the token's subject no longer exists.
	ErrUnknownPrincipal = errors.New("unknown principal")
	// ErrAccountSuspended means the resolved principal is suspended.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrForbidden is an authorization denial; the action had no effect.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation marks caller-correctable input problems.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition marks moderation state machine misuse, such as
	// re-deciding an already decided document.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotFound means a referenced record is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned after bounded retries on a contended write.
	ErrConflict = errors.New("concurrent update conflict")
)
