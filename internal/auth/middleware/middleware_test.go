package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-lessons/internal/rbac"
)

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	tok, err := a.IssueJWT("u1", "learner")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/views/1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotSub)
	assert.Equal(t, "learner", gotRole)

	for name, header := range map[string]string{
		"missing":      "",
		"garbage":      "Bearer nope",
		"wrong secret": "Bearer " + mustIssue(t, NewAuthService("other"), "u1", "admin"),
		"none alg":     "Bearer " + unsigned(t),
	} {
		req := httptest.NewRequest(http.MethodGet, "/views/1", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("test-secret")
	h := LoginHandler(a)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"ada","password":"ada","role":"learner"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"ada","password":"ada","role":"admin"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func mustIssue(t *testing.T, a *AuthService, sub, role string) string {
	t.Helper()
	tok, err := a.IssueJWT(sub, role)
	require.NoError(t, err)
	return tok
}

func unsigned(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Sub: "u1", Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return s
}
