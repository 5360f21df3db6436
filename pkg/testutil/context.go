package testutil

import (
	"context"
	"net/http"
	"time"

	"syncvault/pkg/domain"
	"syncvault/pkg/requestcontext"
)

// WithCaller sets the authenticated identity on the request context.
// This simulates what the auth middleware does for authenticated requests.
// Invalid identities are not added.
func WithCaller(req *http.Request, caller string) *http.Request {
	id, err := domain.ParseIdentity(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), id))
}

// WithRequestTime pins the request clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
