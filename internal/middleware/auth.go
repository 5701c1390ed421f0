package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/pkg/utils"
)

type principalContextKey struct{}

// Auth verifies the Bearer token and stashes the caller's Principal in the
// request context. Handlers downstream assume it is present.
func Auth(jwtManager *utils.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.Error(w, apperrors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				utils.Error(w, apperrors.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := jwtManager.ParseToken(parts[1])
			if err != nil {
				utils.Error(w, apperrors.Unauthorized("invalid token"))
				return
			}

			principal := models.Principal{
				UserID:    claims.UserID,
				Role:      claims.Role,
				Suspended: claims.Suspended,
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the authenticated Principal, if any.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(models.Principal)
	return p, ok
}
