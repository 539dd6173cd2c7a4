package domain

import "errors"

// Kind groups error codes by how callers should react to them.
type Kind string

const (
	KindBadRequest  Kind = "bad_request"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindForbidden   Kind = "forbidden"
	KindParse       Kind = "parse_error"
	KindServerError Kind = "server_error"
)

// Error is a domain failure carrying a stable machine-readable code.
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string { return e.Code }

func newError(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

var (
	// ErrBadRequest is returned when a required field is missing or malformed.
	ErrBadRequest = newError(KindBadRequest, "bad_request")
	// ErrBadUserIDFormat rejects user ids outside ^[a-zA-Z0-9_-]{3,20}$.
	ErrBadUserIDFormat = newError(KindBadRequest, "bad_userId_format")
	// ErrNotInRoom is returned for room-scoped events sent before create/join.
	ErrNotInRoom = newError(KindBadRequest, "not_in_room")
	// ErrEmptyFile is returned when an import carries no content.
	ErrEmptyFile = newError(KindBadRequest, "empty_file")

	ErrRoomNotFound = newError(KindNotFound, "room_not_found")
	ErrBankNotFound = newError(KindNotFound, "not_found")
	ErrUserNotFound = newError(KindNotFound, "user_not_found")
	// ErrEmptyBank means the bank resolved to zero questions.
	ErrEmptyBank = newError(KindNotFound, "empty_bank")

	ErrRoomExists = newError(KindConflict, "room_exists")
	ErrUserExists = newError(KindConflict, "user_exists")

	ErrNotHost       = newError(KindForbidden, "not_host")
	ErrNoPermission  = newError(KindForbidden, "no_permission")
	ErrWrongPassword = newError(KindForbidden, "wrong_password")

	// ErrParse indicates import content produced no usable questions.
	ErrParse = newError(KindParse, "parse_error")
)

// CodeOf returns the stable code for err, or "server_error" for anything
// that is not a domain error.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return string(KindServerError)
}

// KindOf returns the kind of err, defaulting to KindServerError.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindServerError
}
