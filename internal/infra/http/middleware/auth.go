package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xavierca1/beauty-leads/internal/infra/auth"
)

// LandingRoute is where unauthenticated operators are sent.
const LandingRoute = "/"

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and points the
// client back to the landing route.
func RequireAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				Unauthorized(w, "missing bearer token")
				return
			}
			claims, err := v.ValidateToken(token)
			if err != nil {
				Unauthorized(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func Unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":    "UNAUTHORIZED",
		"message":  msg,
		"redirect": LandingRoute,
	})
}
