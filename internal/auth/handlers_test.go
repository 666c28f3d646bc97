package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(mode string, required bool) *config.Config {
	return &config.Config{
		AuthMode:      mode,
		AuthEnabled:   mode != "none",
		AuthRequired:  required,
		DefaultUserID: "owner",
		JWTSecret:     "test-secret-key-for-testing-only",
		JWTIssuer:     "lifeos-test",
		JWTTTLMinutes: 60,
	}
}

// echo отдаёт user_id из контекста или "-"
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		userID = "-"
	}
	_, _ = w.Write([]byte(userID))
})

func call(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleDevAuth(t *testing.T) {
	svc := NewService(testConfig("dev", false))
	h := NewHandlers(svc)

	t.Run("default subject", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleDevAuth(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp DevAuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "owner", resp.UserID)
		assert.Equal(t, int64(3600), resp.ExpiresIn)

		sub, err := svc.VerifyJWT(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "owner", sub)
	})

	t.Run("explicit subject", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"user_id":"alice"}`)
		h.HandleDevAuth(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", body))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp DevAuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "alice", resp.UserID)
	})

	t.Run("bad json", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleDevAuth(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("disabled outside dev mode", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHandlers(NewService(testConfig("none", false))).HandleDevAuth(rr, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleMe(t *testing.T) {
	h := NewHandlers(NewService(testConfig("none", false)))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	h.HandleMe(rr, req.WithContext(userctx.WithUserID(req.Context(), "owner")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user_id":"owner","auth_mode":"none"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.HandleMe(rr, httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDefaultIdentity(t *testing.T) {
	cfg := testConfig("none", false)
	svc := NewService(cfg)
	mw := NewMiddleware(cfg, svc, logger.NewNop())
	h := mw.Handler(echo)

	rr := call(h, http.MethodGet, "/v1/home", "")
	assert.Equal(t, "owner", rr.Body.String())

	// в режиме none токены игнорируются
	rr = call(h, http.MethodGet, "/v1/home", "garbage")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "owner", rr.Body.String())
}

func TestRequireAuth(t *testing.T) {
	cfg := testConfig("dev", true)
	svc := NewService(cfg)
	h := NewMiddleware(cfg, svc, logger.NewNop()).Handler(echo)

	token, err := svc.IssueToken("alice", time.Hour)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		rr := call(h, http.MethodGet, "/v1/home", token)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", rr.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rr := call(h, http.MethodGet, "/v1/home", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"code":"unauthorized"`)
	})

	t.Run("invalid token", func(t *testing.T) {
		rr := call(h, http.MethodGet, "/v1/home", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("public paths", func(t *testing.T) {
		rr := call(h, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "-", rr.Body.String())

		rr = call(h, http.MethodGet, "/v1/auth/me", token)
		assert.Equal(t, "alice", rr.Body.String())
	})
}

func TestOptionalAuth(t *testing.T) {
	cfg := testConfig("dev", false)
	svc := NewService(cfg)
	h := NewMiddleware(cfg, svc, logger.NewNop()).Handler(echo)

	token, err := svc.IssueToken("bob", time.Hour)
	require.NoError(t, err)

	rr := call(h, http.MethodGet, "/v1/home", "")
	assert.Equal(t, "owner", rr.Body.String())

	rr = call(h, http.MethodGet, "/v1/home", token)
	assert.Equal(t, "bob", rr.Body.String())

	rr = call(h, http.MethodGet, "/v1/home", "broken")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = call(h, http.MethodPost, "/v1/auth/dev", "broken")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "owner", rr.Body.String())
}

func TestVerifyJWT(t *testing.T) {
	cfg := testConfig("dev", false)
	svc := NewService(cfg)

	t.Run("expired", func(t *testing.T) {
		token, err := svc.IssueToken("alice", -time.Minute)
		require.NoError(t, err)
		_, err = svc.VerifyJWT(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testConfig("dev", false)
		other.JWTSecret = "another-secret"
		token, err := NewService(other).IssueToken("alice", time.Hour)
		require.NoError(t, err)
		_, err = svc.VerifyJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testConfig("dev", false)
		other.JWTIssuer = "someone-else"
		token, err := NewService(other).IssueToken("alice", time.Hour)
		require.NoError(t, err)
		_, err = svc.VerifyJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty subject", func(t *testing.T) {
		token, err := svc.IssueToken("", time.Hour)
		require.NoError(t, err)
		_, err = svc.VerifyJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
