package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/httputil"
	"tracelink/pkg/requestcontext"
)

const adminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards operator endpoints (token minting) behind a shared
// secret. An empty configured token disables the endpoints entirely.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			presented := r.Header.Get(adminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.WarnContext(ctx, "admin endpoint rejected",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
