package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueToken(t *testing.T, userID int, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
	require.NoError(t, err)
	return token
}

func TestRequireAuth_SetsUserIDInContext(t *testing.T) {
	var gotUserID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromRequest(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 42, time.Hour))
	rec := httptest.NewRecorder()

	RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42, gotUserID)
}

func TestRequireAuth_RejectsMissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	})

	req := httptest.NewRequest(http.MethodGet, "/reminders", nil)
	rec := httptest.NewRecorder()

	RequireAuth(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RejectsExpiredToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 42, -time.Minute))
	rec := httptest.NewRecorder()

	RequireAuth(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RejectsGarbageToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a malformed token")
	})

	req := httptest.NewRequest(http.MethodGet, "/reminders", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	RequireAuth(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserIDFromRequest_ZeroWhenUnset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, 0, UserIDFromRequest(req))
}
