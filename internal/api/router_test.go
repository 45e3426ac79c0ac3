package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/jcastel/authbase/internal/auth"
	"github.com/jcastel/authbase/internal/database"
	"github.com/jcastel/authbase/internal/database/testutil"
)

func newTestRouter(t *testing.T) (*gin.Engine, *iauth.CredentialService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)

	tokens, err := iauth.NewTokenService(iauth.TokenConfig{Secret: "router-test-secret", Issuer: "authbase-test"})
	require.NoError(t, err)

	credentials, err := iauth.NewCredentialService(db, tokens, nil, iauth.CredentialConfig{ReturnResetToken: true})
	require.NoError(t, err)

	router, err := NewRouter(db, credentials)
	require.NoError(t, err)

	return router, credentials
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCredentialFlowEndToEnd(t *testing.T) {
	router, credentials := newTestRouter(t)

	// Signup
	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", gin.H{
		"email":    "walter@example.com",
		"password": "initial-password",
		"name":     "Walter",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate signup conflicts
	w = doJSON(t, router, http.MethodPost, "/api/auth/signup", gin.H{
		"email":    "walter@example.com",
		"password": "other-password",
		"name":     "Walter Again",
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// Signin is blocked until verification
	w = doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "walter@example.com",
		"password": "initial-password",
	}, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Verify via the emailed link shape
	verifyToken, err := credentials.Tokens().IssueVerification("walter@example.com")
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodGet, "/api/auth/verify?token="+verifyToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Re-using the verification token fails
	w = doJSON(t, router, http.MethodGet, "/api/auth/verify?token="+verifyToken, nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong password
	w = doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "walter@example.com",
		"password": "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Successful signin returns token plus the safe projection
	w = doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "walter@example.com",
		"password": "initial-password",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	sessionToken := data["token"].(string)
	require.NotEmpty(t, sessionToken)

	user := data["user"].(map[string]any)
	require.Equal(t, "walter@example.com", user["email"])
	require.Equal(t, "Walter", user["name"])
	require.NotContains(t, user, "password")

	// The gate rejects missing and malformed credentials
	w = doJSON(t, router, http.MethodGet, "/api/auth/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Token missing")

	w = doJSON(t, router, http.MethodGet, "/api/auth/me", nil, map[string]string{
		"Authorization": "Bearer bogus",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid or expired token")

	// The gate passes a fresh session token and exposes claims downstream
	w = doJSON(t, router, http.MethodGet, "/api/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + sessionToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)["data"].(map[string]any)
	require.Equal(t, "walter@example.com", me["email"])

	// Signout acknowledges without revoking
	w = doJSON(t, router, http.MethodPost, "/api/auth/signout", nil, map[string]string{
		"Authorization": "Bearer " + sessionToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + sessionToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	router, credentials := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", gin.H{
		"email":    "rosa@example.com",
		"password": "first-password",
		"name":     "Rosa",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	verifyToken, err := credentials.Tokens().IssueVerification("rosa@example.com")
	require.NoError(t, err)
	w = doJSON(t, router, http.MethodGet, "/api/auth/verify?token="+verifyToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown account
	w = doJSON(t, router, http.MethodPost, "/api/auth/forgot-password", gin.H{
		"email": "stranger@example.com",
	}, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// The configured variant returns the raw token
	w = doJSON(t, router, http.MethodPost, "/api/auth/forgot-password", gin.H{
		"email": "rosa@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	resetToken := data["token"].(string)
	require.NotEmpty(t, resetToken)

	w = doJSON(t, router, http.MethodPost, "/api/auth/reset-password", gin.H{
		"token":        resetToken,
		"new_password": "second-password",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Old password is dead, new one works
	w = doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "rosa@example.com",
		"password": "first-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "rosa@example.com",
		"password": "second-password",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSignupValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	// Missing fields
	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", gin.H{
		"email": "only@example.com",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed email
	w = doJSON(t, router, http.MethodPost, "/api/auth/signup", gin.H{
		"email":    "not-an-email",
		"password": "long-enough-pw",
		"name":     "Nope",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}

func TestRouterRequiresDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, err := NewRouter(nil, nil)
	require.Error(t, err)

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)
	_, err = NewRouter(db, nil)
	require.Error(t, err)
}
