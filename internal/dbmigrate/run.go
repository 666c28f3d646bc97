package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fdg312/lifeos/internal/logger"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const logModule = "migrate"

var ErrUnsupportedCommand = fmt.Errorf("unsupported command (allowed: up, status, down)")

// ValidateCommand: только up|status|down
func ValidateCommand(command string) error {
	switch command {
	case "up", "status", "down":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCommand, command)
	}
}

// Run применяет goose-команду к migrationsDir
func Run(ctx context.Context, command, dbURL, migrationsDir string, log logger.Logger) error {
	if err := ValidateCommand(command); err != nil {
		return err
	}
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if migrationsDir == "" {
		migrationsDir = DefaultMigrationsDir
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, migrationsDir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

// gooseLogger переводит printf-логи goose в структурный логгер
type gooseLogger struct {
	log logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(logModule, strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}

// Fatalf не завершает процесс: ошибка всё равно вернётся из goose
func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(logModule, strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}
