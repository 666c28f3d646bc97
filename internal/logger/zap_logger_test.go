package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, parseLevel("INFO"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel(""))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("nonsense"))
}

func TestZapLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewZapLogger(Options{FilePath: path, Level: "debug", JSON: true})

	l.Info("ailog", "proposal received", map[string]any{"user_id": "u1"})
	l.Error("ailog", "confirm failed", map[string]any{"error": errors.New("boom")})
	l.Debug("ailog", "below file level", nil)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `"message":"proposal received"`)
	assert.Contains(t, body, `"module":"ailog"`)
	assert.Contains(t, body, `"error":"boom"`)
	assert.NotContains(t, body, "below file level")
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Warn("x", "y", nil)
	l.Printf("value=%d", 1)
	assert.NoError(t, l.Sync())
}
