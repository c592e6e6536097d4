package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const signingKey = "test-signing-key"

func signedToken(t *testing.T, key, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestHMACValidator(t *testing.T) {
	validator := NewHMACValidator(signingKey)

	t.Run("valid token yields claims", func(t *testing.T) {
		claims, err := validator.ValidateToken(signedToken(t, signingKey, "subject-1", "auditor"))
		require.NoError(t, err)
		assert.Equal(t, "subject-1", claims.SubjectID)
		assert.Equal(t, "auditor", claims.Role)
	})

	t.Run("wrong signing key is rejected", func(t *testing.T) {
		_, err := validator.ValidateToken(signedToken(t, "other-key", "subject-1", "auditor"))
		require.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "subject-1",
			"role": "auditor",
			"exp":  time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(signingKey))
		require.NoError(t, err)
		_, err = validator.ValidateToken(signed)
		require.Error(t, err)
	})

	t.Run("missing sub claim is rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": "auditor",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(signingKey))
		require.NoError(t, err)
		_, err = validator.ValidateToken(signed)
		require.Error(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	validator := NewHMACValidator(signingKey)
	var gotSubject, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubjectID(r.Context())
		gotRole = GetRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAuth(validator, discardLogger())(next)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer not-a-jwt")
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token populates context", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signedToken(t, signingKey, "subject-9", "producer"))
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "subject-9", gotSubject)
		assert.Equal(t, "producer", gotRole)
	})
}
