// Package sentinel holds infrastructure facts that stores return, optionally
// wrapped, so callers can branch on them with errors.Is. Validation failures
// belong in pkg/domain-errors instead.
package sentinel

import "errors"

var (
	// ErrInvalidState marks a request a store cannot honor as given, such as
	// a revocation with a non-positive lifetime.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable marks a backing service that is temporarily refusing work.
	ErrUnavailable = errors.New("unavailable")
)
