package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-for-unit-tests"

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetUserID(r.Context()); id != 0 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
}

func TestProtectRejectsMissingHeader(t *testing.T) {
	m := NewMiddleware(testSecret, "safecase")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	w := httptest.NewRecorder()

	m.Protect(protectedEcho(t)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectRejectsMalformedHeader(t *testing.T) {
	m := NewMiddleware(testSecret, "safecase")

	for _, header := range []string{"Bearer", "Basic abc123", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		m.Protect(protectedEcho(t)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestProtectAcceptsValidToken(t *testing.T) {
	m := NewMiddleware(testSecret, "safecase")

	token, err := m.GenerateToken(42, "Sam Okafor", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	m.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, int64(42), GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectRejectsExpiredToken(t *testing.T) {
	m := NewMiddleware(testSecret, "safecase")

	token, err := m.GenerateToken(42, "Sam Okafor", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	m.Protect(protectedEcho(t)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectRejectsWrongSecret(t *testing.T) {
	issuing := NewMiddleware("other-secret", "safecase")
	verifying := NewMiddleware(testSecret, "safecase")

	token, err := issuing.GenerateToken(42, "Sam Okafor", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	verifying.Protect(protectedEcho(t)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	issuing := NewMiddleware(testSecret, "someone-else")
	verifying := NewMiddleware(testSecret, "safecase")

	token, err := issuing.GenerateToken(42, "Sam Okafor", time.Hour)
	require.NoError(t, err)

	_, err = verifying.ValidateToken(token)
	assert.Error(t, err)
}

func TestGetUserIDUnauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, int64(0), GetUserID(req.Context()))
}
