package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/dbmigrate"
	"github.com/fdg312/lifeos/internal/httpserver"
	"github.com/fdg312/lifeos/internal/logger"
)

const logModule = "main"

func main() {
	cfg := config.Load()

	log := logger.NewZapLogger(logger.Options{
		FilePath: cfg.LogFile,
		Level:    cfg.LogLevel,
		JSON:     cfg.Env != "local",
	})
	defer func() { _ = log.Sync() }()

	printStartupBanner(log, cfg)

	for _, w := range cfg.Warnings {
		log.Warn("config", w, nil)
	}

	if err := cfg.Validate(); err != nil {
		fatal(log, "config", "invalid configuration", err)
	}
	validateProductionConfig(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		target, err := dbmigrate.SelectTarget(cfg, true)
		if err != nil {
			fatal(log, "migrate", "startup migrations", err)
		}

		log.Info("migrate", "startup migrations", map[string]any{"command": "up", "using": target.Source})
		if err := dbmigrate.Run(ctx, "up", target.URL, dbmigrate.DefaultMigrationsDir, log); err != nil {
			fatal(log, "migrate", "startup migrations failed", err)
		}
		log.Info("migrate", "startup migrations completed", nil)
	}

	server, err := httpserver.New(ctx, cfg, log)
	if err != nil {
		fatal(log, logModule, "server init failed", err)
	}
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			fatal(log, logModule, "server stopped", err)
		}
	case <-ctx.Done():
		log.Info(logModule, "shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error(logModule, "graceful shutdown failed", map[string]any{"error": err.Error()})
		}
		<-errCh
	}
}

func fatal(log logger.Logger, module, message string, err error) {
	log.Error(module, message, map[string]any{"error": err.Error()})
	_ = log.Sync()
	os.Exit(1)
}

// printStartupBanner: сводка конфигурации без секретов ("set" / "not set")
func printStartupBanner(log logger.Logger, cfg *config.Config) {
	log.Info("startup", "LifeOS API", map[string]any{
		"env":       cfg.Env,
		"port":      cfg.Port,
		"log_level": cfg.LogLevel,
		"log_file":  nonEmptyOrDash(cfg.LogFile),
		"time_zone": cfg.AppTimeZone,
	})

	log.Info("startup", "database", map[string]any{
		"runtime_url":           describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled),
		"pooled":                setOrNot(cfg.DatabaseURLPooled),
		"direct":                setOrNot(cfg.DatabaseURLDirect),
		"migrations_on_startup": cfg.RunMigrationsOnStartup,
	})

	log.Info("startup", "auth", map[string]any{
		"auth_mode":       cfg.AuthMode,
		"auth_required":   cfg.AuthRequired,
		"default_user_id": cfg.DefaultUserID,
		"jwt_secret":      secretStatus(cfg.JWTSecret, "change_me"),
		"jwt_ttl_minutes": cfg.JWTTTLMinutes,
	})

	blobDetails := map[string]any{
		"blob_mode":    cfg.Blob.Mode,
		"reports_mode": displayReportsMode(cfg),
		"effective":    cfg.Blob.EffectiveReportsMode(),
	}
	if cfg.Blob.EffectiveReportsMode() != config.BlobModeLocal {
		blobDetails["s3"] = cfg.Blob.S3.DiagnosticsSummary()
	}
	log.Info("startup", "blob", blobDetails)

	aiDetails := map[string]any{
		"ai_mode":           cfg.AIMode,
		"timeout_seconds":   cfg.AITimeoutSeconds,
		"session_ttl_min":   cfg.AILogSessionTTLMinutes,
		"upload_max_mb":     cfg.UploadMaxMB,
		"upload_mime_types": cfg.AllowedMimeTypes(),
	}
	switch cfg.AIMode {
	case "openai":
		aiDetails["openai_model"] = cfg.OpenAIModel
		aiDetails["openai_api_key"] = setOrNot(cfg.OpenAIAPIKey)
	case "gemini":
		aiDetails["gemini_model"] = cfg.GeminiModel
		aiDetails["gemini_api_key"] = setOrNot(cfg.GeminiAPIKey)
	case "function":
		aiDetails["functions_base_url"] = nonEmptyOrDash(cfg.FunctionsBaseURL)
		aiDetails["functions_api_key"] = setOrNot(cfg.FunctionsAPIKey)
	}
	log.Info("startup", "ai", aiDetails)
}

// validateProductionConfig: проверки, важные только вне local
func validateProductionConfig(log logger.Logger, cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "prod" || cfg.Env == "staging"

	if cfg.Blob.EffectiveReportsMode() == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			fatal(log, "blob", "REPORTS_MODE resolves to s3 but S3 config is incomplete",
				fmt.Errorf("missing: %s", strings.Join(missing, ", ")))
		}
	}

	if isProd && cfg.AuthMode == "none" {
		log.Warn("auth", "AUTH_MODE=none outside local: every request is served as DEFAULT_USER_ID", map[string]any{"env": cfg.Env})
	}

	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		fatal(log, "auth", "JWT_SECRET must not be 'change_me' with AUTH_REQUIRED=1", fmt.Errorf("env=%s", cfg.Env))
	}

	if isProd && cfg.DatabaseURL == "" {
		fatal(log, "db", "no DATABASE_URL configured", fmt.Errorf("env=%s", cfg.Env))
	}
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}

func displayReportsMode(cfg *config.Config) string {
	if cfg.Blob.ReportsModeSet {
		return cfg.Blob.ReportsMode
	}
	return fmt.Sprintf("(inherits BLOB_MODE=%s)", cfg.Blob.Mode)
}
