package identity

import (
	"log/slog"
	"net/http"

	"github.com/dmehra2102/commerce-core/internal/platform/httpx"
)

// Middleware rejects requests without a valid bearer token and stores the
// verified Identity on the request context.
func Middleware(log *slog.Logger, v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.FromRequest(r)
			if err != nil {
				httpx.WriteError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireCapability rejects callers whose role does not grant c.
func RequireCapability(log *slog.Logger, c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := FromContext(r.Context())
			if err == nil {
				err = id.Require(c)
			}
			if err != nil {
				httpx.WriteError(w, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
