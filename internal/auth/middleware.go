package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tasknest/tasknest/internal/platform/httpx"
	"github.com/tasknest/tasknest/internal/shared"
)

// FailureRecorder counts token verification failures by kind.
type FailureRecorder interface {
	TokenFailure(kind string)
}

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// RequireBearer rejects requests without a valid bearer token and stores the
// verified user id in the request context.
func RequireBearer(verifier TokenVerifier, logger *slog.Logger, recorder FailureRecorder) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			var (
				userID int64
				err    error
			)
			if !ok {
				err = shared.ErrUnauthenticated
			} else {
				userID, err = verifier.Verify(token)
			}
			if err != nil {
				kind := TokenFailureKind(err)
				logger.Warn("bearer token rejected",
					slog.String("kind", kind),
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				if recorder != nil {
					recorder.TokenFailure(kind)
				}
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
