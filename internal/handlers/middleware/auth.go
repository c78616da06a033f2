package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/elbishomes/internal/handlers/render"
	"github.com/nkiryanov/elbishomes/internal/handlers/userctx"
	"github.com/nkiryanov/elbishomes/internal/models"
)

const bearerPrefix = "Bearer "

type authService interface {
	Verify(ctx context.Context, token string) (models.User, error)
}

// Read bearer token from Authorization header
// Empty string if the header is missing or has other scheme
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				render.Fail(w, http.StatusUnauthorized, "Authentication credentials were not provided")
				return
			}

			user, err := as.Verify(r.Context(), token)
			if err != nil {
				render.Fail(w, http.StatusUnauthorized, "Given token not valid")
				return
			}

			ctx := userctx.New(r.Context(), user, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
