package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "ENV", "PORT", "LOG_FILE", "AUTH_MODE", "AUTH_REQUIRED", "DEFAULT_USER_ID",
		"AI_MODE", "GEMINI_MODEL", "AILOG_SESSION_TTL_MINUTES", "APP_TIME_ZONE",
		"UPLOAD_MAX_MB", "UPLOAD_ALLOWED_MIME", "BLOB_MODE", "REPORTS_MODE", "JWT_SECRET",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "logs/lifeos.log", cfg.LogFile)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.False(t, cfg.AuthRequired)
	assert.Equal(t, "owner", cfg.DefaultUserID)
	assert.Equal(t, "mock", cfg.AIMode)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 60, cfg.AILogSessionTTLMinutes)
	assert.Equal(t, "UTC", cfg.AppTimeZone)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes())
	assert.Contains(t, cfg.AllowedMimeTypes(), "image/png")
	assert.Equal(t, BlobModeLocal, cfg.Blob.EffectiveReportsMode())
	assert.Empty(t, cfg.Warnings)
	require.NoError(t, cfg.Validate())
}

func TestLoadCollectsWarnings(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("PORT", "")
	t.Setenv("REPORTS_MODE", "")
	t.Setenv("AUTH_MODE", "siwa")
	t.Setenv("AI_MODE", "claude")
	t.Setenv("BLOB_MODE", "ftp")

	cfg := Load()
	assert.Equal(t, "none", cfg.AuthMode)
	assert.Equal(t, "mock", cfg.AIMode)
	assert.Equal(t, BlobModeLocal, cfg.Blob.Mode)
	assert.Len(t, cfg.Warnings, 3)
}

func TestLoadAuthRequiredOnlyWithAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("AUTH_REQUIRED", "1")
	assert.False(t, Load().AuthRequired)

	t.Setenv("AUTH_MODE", "dev")
	assert.True(t, Load().AuthRequired)
}

func TestLogFileDash(t *testing.T) {
	t.Setenv("LOG_FILE", "-")
	assert.Empty(t, Load().LogFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"openai without key", Config{AIMode: "openai", AppTimeZone: "UTC"}, "OPENAI_API_KEY"},
		{"gemini without key", Config{AIMode: "gemini", AppTimeZone: "UTC"}, "GEMINI_API_KEY"},
		{"function without url", Config{AIMode: "function", AppTimeZone: "UTC"}, "FUNCTIONS_BASE_URL"},
		{"bad time zone", Config{AIMode: "mock", AppTimeZone: "Mars/Olympus"}, "APP_TIME_ZONE"},
		{"ok", Config{AIMode: "gemini", GeminiAPIKey: "k", AppTimeZone: "Europe/Moscow"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
