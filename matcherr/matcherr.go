// Package matcherr is the error taxonomy for the match service: a small
// set of typed errors, each carrying a stable Code string that is safe to
// hand to a client as-is.
package matcherr

import "fmt"

// ValidationError is a malformed request: unknown mode, missing fields.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func NewValidation(code, message string) error {
	return &ValidationError{Code: code, Message: message}
}

// ConflictError is a request that is well-formed but cannot apply given the
// current state: already in an active match, match full, joining one's own
// match. A match in a terminal phase is NotJoinableError instead.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func NewConflict(code, message string) error {
	return &ConflictError{Code: code, Message: message}
}

// NotFoundError is an unknown match id.
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func NewNotFound(code, message string) error {
	return &NotFoundError{Code: code, Message: message}
}

// AuthError is a request or connection with no resolvable identity. REST
// calls answer it with 401; a WebSocket connection is closed right after
// its handshake.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func NewAuth(code, message string) error {
	return &AuthError{Code: code, Message: message}
}

// NotJoinableError is a match that exists but has reached a terminal phase
// (Finished or Cancelled) — the join table's distinct 410 case, separate
// from the 409 ConflictError group, which covers a full match still in play.
type NotJoinableError struct {
	Code    string
	Message string
}

func (e *NotJoinableError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func NewNotJoinable(code, message string) error {
	return &NotJoinableError{Code: code, Message: message}
}

// CodeOf extracts the stable code carried by any error in this taxonomy;
// anything else maps to CodeInternal.
func CodeOf(err error) string {
	switch e := err.(type) {
	case *ValidationError:
		return e.Code
	case *ConflictError:
		return e.Code
	case *NotFoundError:
		return e.Code
	case *AuthError:
		return e.Code
	case *NotJoinableError:
		return e.Code
	default:
		return CodeInternal
	}
}

// Stable codes used across the request surface and the wire protocol's
// error frames.
const (
	CodeMissingMode          = "missing_mode"
	CodeUnknownMode          = "unknown_mode"
	CodeAlreadyInMatch       = "already_in_match"
	CodeMatchFull            = "match_full"
	CodeOwnMatch             = "own_match"
	CodeNotJoinable          = "not_joinable"
	CodeMatchNotFound        = "match_not_found"
	CodeNoIdentity           = "no_identity"
	CodeBadFrame             = "bad_frame"
	CodeUnknownEvent         = "unknown_event"
	CodeInternal             = "internal_error"
)
