package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "tracelink/pkg/domain"
	dErrors "tracelink/pkg/domain-errors"
	"tracelink/pkg/platform/httputil"
	"tracelink/pkg/requestcontext"
)

// TokenValidator validates a bearer token and yields the participant it was
// minted for.
type TokenValidator interface {
	ValidateToken(tokenString string) (id.ParticipantID, error)
}

// Authenticate resolves the bearer token, when one is presented, into the
// request's actor. Requests without a token pass through anonymously; reads
// are open, and mutating handlers enforce the actor themselves. A presented
// but invalid token is always rejected.
func Authenticate(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed Authorization header"))
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(ctx, actor)))
		})
	}
}
