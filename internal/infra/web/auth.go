package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"learning-entitlement/internal/infra/logging"
)

// The identity collaborator mints HS256 tokens; this engine only parses
// them into {userId, role} and trusts the result. No minting, no refresh,
// no revocation here.

type IdentityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type identityCtxKey string

const (
	ctxIdentityUserID identityCtxKey = "identity_user_id"
	ctxIdentityRole   identityCtxKey = "identity_role"
)

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxIdentityUserID).(string)
	return v, ok && v != ""
}

func RoleFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxIdentityRole).(string)
	return v
}

// Authenticate extracts the bearer token, verifies the HMAC signature, and
// places {userId, role} into the request context.
func Authenticate(secret []byte) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, "Unauthorized: malformed token", http.StatusUnauthorized)
				return
			}

			var claims IdentityClaims
			_, err := jwt.ParseWithClaims(parts[1], &claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || claims.Subject == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxIdentityUserID, claims.Subject)
			ctx = context.WithValue(ctx, ctxIdentityRole, claims.Role)
			ctx = logging.WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
