package ledger

import (
	"errors"
	"fmt"
)

// ErrorCode is the numeric failure code carried in the {err: code} envelope.
type ErrorCode int

const (
	// CodeNotFound: the referenced identifier is not in the ledger.
	CodeNotFound ErrorCode = 1
	// CodeUnauthorized: the actor is not the record's owner.
	CodeUnauthorized ErrorCode = 2
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNotFound:
		return "not_found"
	case CodeUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// Error is returned by SetStatus. Both kinds are deterministic for a given
// state, caller and argument set, so retrying never helps.
type Error struct {
	Code  ErrorCode
	ID    ID
	Actor Actor
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeNotFound:
		return fmt.Sprintf("record %d not found", e.ID)
	case CodeUnauthorized:
		return fmt.Sprintf("actor %q is not the owner of record %d", e.Actor, e.ID)
	default:
		return fmt.Sprintf("ledger error %d on record %d", int(e.Code), e.ID)
	}
}

// Is matches on Code so callers can use errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound     = &Error{Code: CodeNotFound}
	ErrUnauthorized = &Error{Code: CodeUnauthorized}
)

// CodeOf extracts the ledger code from anywhere in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le.Code, true
	}
	return 0, false
}
