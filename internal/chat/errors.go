package chat

import "errors"

// Failure classes for chat operations. All of them are recoverable and are
// reported only to the actor who triggered them; state is never mutated
// before the checks pass.
var (
	ErrNotAuthorized = errors.New("not authorized for this action")
	ErrNotAllowed    = errors.New("action not allowed in current chat state")
	ErrQuotaExceeded = errors.New("pending chat message quota exceeded")
	ErrBlocked       = errors.New("blocked between these users")
	ErrValidation    = errors.New("invalid message content")
)
