package testutil

import (
	"net/http"

	"reliefledger/internal/ledger"
	"reliefledger/pkg/requestcontext"
)

// WithActor places actor in the request context, as the auth middleware does
// for a valid bearer token.
func WithActor(req *http.Request, actor ledger.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
