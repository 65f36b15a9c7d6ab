package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/josh-kwaku/eventledger/internal/auth"
	"github.com/josh-kwaku/eventledger/internal/handler"
	"github.com/josh-kwaku/eventledger/internal/logging"
)

// RequireAdmin admits requests bearing an operator token with the admin
// role and tags the request logger with the operator.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.RequireRole(token, secret, auth.RoleAdmin)
			if errors.Is(err, auth.ErrForbidden) {
				handler.RespondAppError(w, handler.ErrForbidden, nil)
				return
			}
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithOperator(r.Context(), claims.Operator)
			ctx, _ = logging.With(ctx, "operator", claims.Operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
