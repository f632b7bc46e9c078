package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(svc jwt.Service) *chi.Mux {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(svc.JWTAuth()))
		r.Use(AuthRequired(svc.JWTAuth()))
		r.Get("/any", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(SubjectFromContext(r)))
		})
		r.With(AdminOnly).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", "1h")
	router := newProtectedRouter(svc)

	kiosk, _, err := svc.GenerateAccessToken("kiosk-1", auth.RoleKiosk)
	require.NoError(t, err)
	stream, _, err := svc.GenerateStreamToken("ops")
	require.NoError(t, err)

	rec := doRequest(t, router, "/any", kiosk)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kiosk-1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, router, "/any", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, router, "/any", stream).Code)
}

func TestAdminOnly(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", "1h")
	router := newProtectedRouter(svc)

	kiosk, _, err := svc.GenerateAccessToken("kiosk-1", auth.RoleKiosk)
	require.NoError(t, err)
	admin, _, err := svc.GenerateAccessToken("ops", auth.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doRequest(t, router, "/admin", kiosk).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, "/admin", admin).Code)
}
