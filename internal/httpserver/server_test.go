package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/lifeos/internal/ai"
	"github.com/fdg312/lifeos/internal/ailog"
	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                   8080,
		AuthMode:               "none",
		DefaultUserID:          "owner",
		JWTSecret:              "test-secret",
		JWTIssuer:              "lifeos-test",
		JWTTTLMinutes:          60,
		AITimeoutSeconds:       5,
		UploadMaxMB:            1,
		UploadAllowedMime:      "image/jpeg,image/png",
		AILogSessionTTLMinutes: 60,
		AppTimeZone:            "UTC",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (http.Handler, *memory.MemoryStorage) {
	t.Helper()

	mem := memory.NewSeeded(cfg.DefaultUserID)
	srv, err := New(context.Background(), cfg, logger.NewNop(),
		WithStorage(mem, mem.GetReportsStorage()),
		WithProposer(ai.NewMockProposer()),
		WithSessionStore(ailog.NewSessionStore(time.Hour, 0)),
		WithBlobStore(nil),
	)
	require.NoError(t, err)
	return srv.Handler(), mem
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	rr := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	rr := doJSON(t, h, http.MethodPost, "/healthz", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"method_not_allowed"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	rr := doJSON(t, h, http.MethodGet, "/healthz", nil, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestDefaultIdentityWhenAuthDisabled(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	rr := doJSON(t, h, http.MethodGet, "/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user_id":"owner","auth_mode":"none"}`, rr.Body.String())
}

func TestRequiredAuthFlow(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = "dev"
	cfg.AuthEnabled = true
	cfg.AuthRequired = true
	h, _ := newTestServer(t, cfg)

	rr := doJSON(t, h, http.MethodGet, "/v1/baseline/home", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/v1/auth/dev", map[string]string{"user_id": "owner"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tok))

	rr = doJSON(t, h, http.MethodGet, "/v1/baseline/home", nil, "Authorization", "Bearer "+tok.AccessToken)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMealLogRoutes(t *testing.T) {
	h, mem := newTestServer(t, testConfig())
	before := len(mem.GetMealsStorage().ListMealLogs("owner"))

	rr := doJSON(t, h, http.MethodPost, "/v1/ailog/send", map[string]string{"text": "2 tacos", "meal_type": "lunch"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, "/v1/ailog/confirm", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, "/v1/ailog/confirm", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/v1/meals/manual", map[string]any{
		"description": "Apple",
		"meal_type":   "snack",
		"calories":    "95",
		"protein_g":   "0.5",
		"carbs_g":     "25",
		"fat_g":       "0.3",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/v1/saved-meals", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list struct {
		SavedMeals []struct {
			ID string `json:"id"`
		} `json:"saved_meals"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.NotEmpty(t, list.SavedMeals)

	rr = doJSON(t, h, http.MethodPost, "/v1/saved-meals/"+list.SavedMeals[0].ID+"/log", map[string]string{
		"meal_type": "dinner",
		"servings":  "2",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Len(t, mem.GetMealsStorage().ListMealLogs("owner"), before+3)
}

func TestDashboardRoutes(t *testing.T) {
	h, _ := newTestServer(t, testConfig())

	for _, path := range []string{
		"/v1/baseline/home",
		"/v1/baseline/signals?scope=all",
		"/v1/relationships",
		"/v1/reports",
		"/v1/ailog/session",
	} {
		rr := doJSON(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr := doJSON(t, h, http.MethodPost, "/v1/reports", map[string]string{"format": "csv"})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestCORSOnFullChain(t *testing.T) {
	cfg := testConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	h, _ := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/v1/ailog/draft", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
