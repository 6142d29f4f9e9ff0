package chi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/auth"
	"github.com/kailas-cloud/kbase/internal/domain"
	"github.com/kailas-cloud/kbase/internal/logger"
)

// TokenVerifier validates a bearer token and returns its user.
type TokenVerifier interface {
	Verify(token string) (domain.User, error)
}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// JWTAuthMiddleware rejects requests without a valid bearer token and puts
// the authenticated user into the request context.
func JWTAuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
				return
			}

			user, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
				return
			}

			ctx := domain.ContextWithUser(r.Context(), user)
			ctx = logger.With(ctx, zap.String("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
