package blob

import (
	"context"
	"sync"
	"testing"

	appcfg "github.com/fdg312/lifeos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level   string
	message string
	details map[string]any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, message string, details map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: message, details: details})
}

func (l *captureLogger) Debug(_, message string, details map[string]any) { l.add("debug", message, details) }
func (l *captureLogger) Info(_, message string, details map[string]any)  { l.add("info", message, details) }
func (l *captureLogger) Warn(_, message string, details map[string]any)  { l.add("warn", message, details) }
func (l *captureLogger) Error(_, message string, details map[string]any) { l.add("error", message, details) }
func (l *captureLogger) Sync() error                                     { return nil }

func (l *captureLogger) find(message string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.message == message {
			return e, true
		}
	}
	return logEntry{}, false
}

func fullS3() appcfg.S3Config {
	return appcfg.S3Config{
		Endpoint:          "https://storage.yandexcloud.net",
		Region:            "ru-central1",
		Bucket:            "lifeos-reports",
		AccessKeyID:       "key",
		SecretAccessKey:   "secret",
		PublicBaseURL:     "https://storage.yandexcloud.net/lifeos-reports",
		PresignTTLSeconds: 900,
	}
}

func TestNewBlobStoreLocalForced(t *testing.T) {
	log := &captureLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, log)
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeLocal, mode)
	assert.Nil(t, store)

	_, ok := log.find("mode=local (forced)")
	assert.True(t, ok)
}

func TestNewBlobStoreAutoEmptyS3FallsBackToLocal(t *testing.T) {
	log := &captureLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto}, log)
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeLocal, mode)
	assert.Nil(t, store)

	entry, ok := log.find("mode=local (auto, S3 not configured)")
	require.True(t, ok)
	assert.Equal(t, "s3_not_configured", entry.details["code"])
}

func TestNewBlobStoreReportsModeOverridesBlobMode(t *testing.T) {
	log := &captureLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode:           appcfg.BlobModeS3,
		ReportsMode:    appcfg.BlobModeLocal,
		ReportsModeSet: true,
	}, log)
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeLocal, mode)
	assert.Nil(t, store)
}

func TestNewBlobStoreAutoConfiguredUsesS3(t *testing.T) {
	log := &captureLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto, S3: fullS3()}, log)
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeS3, mode)
	assert.IsType(t, &S3Store{}, store)
}

func TestNewBlobStoreS3MissingRequiredReturnsError(t *testing.T) {
	log := &captureLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "https://storage.yandexcloud.net"},
	}, log)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Empty(t, mode)
	assert.Contains(t, err.Error(), "missing required config")

	entry, ok := log.find("code=s3_config_incomplete")
	require.True(t, ok)
	assert.Equal(t, "error", entry.level)
}

func TestNewBlobStoreUnknownMode(t *testing.T) {
	_, _, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: "ftp"}, &captureLogger{})
	assert.EqualError(t, err, "unsupported blob mode: ftp")
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/b/reports/x.pdf", PublicURL("https://cdn.example.com/b/", "/reports/x.pdf"))
	assert.Equal(t, "https://cdn.example.com/b/reports/x.pdf", PublicURL("https://cdn.example.com/b", "reports/x.pdf"))
}
