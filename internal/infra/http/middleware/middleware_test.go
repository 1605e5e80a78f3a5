package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/beauty-leads/internal/infra/auth"
)

func protected(svc *auth.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(RequireAuth(svc))
	r.Get("/api/me", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(claims.Subject))
	})
	return r
}

func TestRequireAuth_ValidToken(t *testing.T) {
	svc := auth.New("test-secret-123", time.Hour)
	token, err := svc.GenerateToken(auth.User{Username: "maya"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protected(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "maya", w.Body.String())
}

func TestRequireAuth_RedirectsToLanding(t *testing.T) {
	svc := auth.New("secret", time.Hour)
	revoked, err := svc.GenerateToken(auth.User{Username: "maya"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(revoked)
	require.NoError(t, err)
	svc.Revoke(claims)

	for name, header := range map[string]string{
		"no token":      "",
		"garbage":       "Bearer invalid-jwt-here",
		"wrong scheme":  "Basic abc",
		"revoked token": "Bearer " + revoked,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			protected(svc).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "UNAUTHORIZED", body["error"])
			assert.Equal(t, LandingRoute, body["redirect"])
		})
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/leads/{id}", "404"))
	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/leads/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/leads/{id}", "404"))
	assert.Equal(t, 3.0, after-before)
}

func TestRecordLeadWrite(t *testing.T) {
	before := testutil.ToFloat64(leadWrites.WithLabelValues("create", "error"))
	RecordLeadWrite("create", assert.AnError)
	assert.Equal(t, 1.0, testutil.ToFloat64(leadWrites.WithLabelValues("create", "error"))-before)
}
