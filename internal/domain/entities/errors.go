package entities

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the boundary layer can map it to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindAuthentication
	KindNotFound
	KindInvariant
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindInvariant:
		return "invariant"
	case KindPersistence:
		return "persistence"
	}
	return "internal"
}

// Error is the single error type returned by services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindAuthorization, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func Invariant(format string, args ...interface{}) *Error {
	return newError(KindInvariant, format, args...)
}

// Persistence wraps an unexpected store outcome.
func Persistence(err error, format string, args ...interface{}) *Error {
	e := newError(KindPersistence, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Common errors
var (
	ErrBoardNotFound      = NotFound("Board not exists")
	ErrListNotFound       = NotFound("List not exists")
	ErrCardNotFound       = NotFound("Card not exists")
	ErrMemberNotFound     = NotFound("Member not exists")
	ErrAccountNotFound    = NotFound("Account not exists")
	ErrDestinationMissing = NotFound("Destination position not exists")

	ErrBoardReadOnly     = Forbidden("This board is read-only")
	ErrNotBoardAdmin     = Forbidden("Only board admins can do this")
	ErrViewerReadOnly    = Forbidden("Viewers can only read board content")
	ErrCrossBoardMove    = Validation("Destination belongs to another board")
	ErrAccountArchived   = Forbidden("Account is archived")
	ErrEmailNotVerified  = Forbidden("Email is not verified")
	ErrLastAdmin         = Invariant("Board must keep at least one admin")
	ErrAlreadyMember     = Invariant("Account is already a member of this board")
	ErrNoChange          = Invariant("No change happened")
	ErrEmailTaken        = Invariant("Email is already registered")
	ErrAlreadyVerified   = Invariant("Email is already verified")

	ErrBadCredentials = &Error{Kind: KindAuthentication, Message: "Bad credentials"}
	ErrTokenExpired   = &Error{Kind: KindAuthentication, Message: "Token expired"}
	ErrTokenInvalid   = &Error{Kind: KindAuthentication, Message: "Token invalid"}
)
