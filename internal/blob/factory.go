package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/logger"
)

const logModule = "blob"

// NewBlobStore выбирает хранилище по режиму local|s3|auto.
// В local режиме Store == nil: байты отчётов лежат в самой записи.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, log logger.Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.EffectiveReportsMode()))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		log.Info(logModule, "mode=local (forced)", nil)
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			log.Info(logModule, "mode=local (auto, S3 not configured)", map[string]any{
				"diagnostic_level": level,
				"code":             code,
				"detail":           msg,
				"summary":          cfg.S3.DiagnosticsSummary(),
			})
			return nil, appcfg.BlobModeLocal, nil
		}

		store, err := newS3FromConfig(ctx, cfg.S3)
		if err != nil {
			log.Warn(logModule, "s3 init failed, fallback to local", map[string]any{"error": err.Error()})
			return nil, appcfg.BlobModeLocal, nil
		}

		log.Info(logModule, "mode=s3 (auto, configured)", map[string]any{"summary": cfg.S3.DiagnosticsSummary()})
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			log.Error(logModule, "code=s3_config_incomplete", map[string]any{
				"missing": missing,
				"summary": cfg.S3.DiagnosticsSummary(),
			})
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := newS3FromConfig(ctx, cfg.S3)
		if err != nil {
			log.Error(logModule, "s3 init failed", map[string]any{"error": err.Error()})
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		log.Info(logModule, "mode=s3 (forced)", map[string]any{"summary": cfg.S3.DiagnosticsSummary()})
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func newS3FromConfig(ctx context.Context, c appcfg.S3Config) (*S3Store, error) {
	return NewS3Store(ctx, c.Endpoint, c.Region, c.Bucket, c.AccessKeyID, c.SecretAccessKey)
}
