package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	dErrors "reliefledger/pkg/domain-errors"
	"reliefledger/pkg/platform/httputil"
	"reliefledger/pkg/requestcontext"
)

// Middleware limits requests per authenticated actor, falling back to the
// client address. Store failures let the request through.
func Middleware(limiter *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := clientKey(r)

			result, err := limiter.Check(ctx, key)
			if err != nil {
				logger.ErrorContext(ctx, "failed to check rate limit", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retry := result.RetryAfter(requestcontext.Now(ctx))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.WarnContext(ctx, "rate limit exceeded", "key", key, "retry_after_s", retry)
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if actor := requestcontext.Actor(r.Context()); actor != "" {
		return "actor:" + string(actor)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
