package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/infra/auth"
	"github.com/xavierca1/beauty-leads/internal/infra/http/middleware"
)

// TokenRevoker ends a session before its token expires.
type TokenRevoker interface {
	Revoke(c *auth.Claims)
}

type AuthHandler struct {
	Tokens TokenRevoker
	Log    *zap.Logger
}

func NewAuthHandler(tokens TokenRevoker, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Tokens: tokens, Log: log}
}

// Me (GET /api/me) returns the signed-in operator.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w, "no session")
		return
	}
	writeJSON(w, http.StatusOK, claims.User())
}

// Logout (POST /api/logout) revokes the current token and sends the client
// back to the landing route.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w, "no session")
		return
	}
	h.Tokens.Revoke(claims)
	h.Log.Info("operator signed out", zap.String("user", claims.Subject))
	writeJSON(w, http.StatusOK, map[string]string{"redirect": middleware.LandingRoute})
}
