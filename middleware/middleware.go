package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskflow/backend/logging"
	"taskflow/backend/utils"
)

type contextKey string

const claimsKey contextKey = "authClaims"

// JWTAuthMiddleware validates the bearer token and places the resolved
// identity in the request context.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, `{"success":false,"message":"Authorization header missing"}`, http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			logging.Logger.Warnf("Event ID: JWT_AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
		}

		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, `{"success":false,"message":"Invalid token"}`, http.StatusUnauthorized)
			return
		}

		if !claims.IsActive {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INACTIVE_USER, Description: Token for deactivated user %s rejected", claims.UserID)
			http.Error(w, `{"success":false,"message":"Account is deactivated"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFrom returns the identity placed in the context by
// JWTAuthMiddleware, or nil on unauthenticated requests.
func ClaimsFrom(r *http.Request) *utils.Claims {
	claims, _ := r.Context().Value(claimsKey).(*utils.Claims)
	return claims
}
