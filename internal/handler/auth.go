package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/auth"
	"github.com/blessingcarter623/amatymasocialapp/pkg/httpmiddleware"
)

// APIKeyHeader carries a service API key.
const APIKeyHeader = "X-API-Key"

func credentials(r *http.Request) auth.Credentials {
	var creds auth.Credentials
	if v := r.Header.Get("Authorization"); v != "" {
		if scheme, token, ok := strings.Cut(v, " "); ok && strings.EqualFold(scheme, "Bearer") {
			creds.Bearer = strings.TrimSpace(token)
		}
	}
	creds.APIKey = strings.TrimSpace(r.Header.Get(APIKeyHeader))
	return creds
}

// Authenticate resolves the caller identity. Requests without credentials
// continue anonymously; invalid credentials are rejected.
func Authenticate(a auth.Authenticator) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			id, err := a.Authenticate(ctx, credentials(r))
			switch {
			case errors.Is(err, auth.ErrNoCredentials):
				next.ServeHTTP(w, r)
				return
			case err != nil:
				zctx.From(ctx).Debug("Authentication failed", zap.Error(err))
				writeError(ctx, w, auth.ErrUnauthenticated)
				return
			}
			ctx = auth.WithIdentity(ctx, id)
			ctx = zctx.Base(ctx, zctx.From(ctx).With(zap.String("user_id", id.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireUser rejects anonymous requests.
func requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || id.UserID == "" {
			writeError(r.Context(), w, auth.ErrNoCredentials)
			return
		}
		next(w, r)
	})
}

// requireScope rejects anonymous requests and identities lacking scope.
func requireScope(scope string, next http.HandlerFunc) http.Handler {
	return requireUser(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		if !id.HasScope(scope) {
			writeError(r.Context(), w, errors.Wrap(auth.ErrMissingScope, scope))
			return
		}
		next(w, r)
	})
}
