package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/dbmigrate"
	"github.com/fdg312/lifeos/internal/logger"
)

const logModule = "migrate"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/migrate [up|status|down]")
		os.Exit(2)
	}

	command := os.Args[1]
	if err := dbmigrate.ValidateCommand(command); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.NewZapLogger(logger.Options{FilePath: cfg.LogFile, Level: cfg.LogLevel, JSON: cfg.Env != "local"})
	defer func() { _ = log.Sync() }()

	target, err := dbmigrate.SelectTarget(cfg, false)
	if err != nil {
		log.Error(logModule, "no database configured", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	if target.Warning != "" {
		log.Warn(logModule, target.Warning, map[string]any{"source": target.Source})
	}
	log.Info(logModule, "running", map[string]any{"command": command, "using": target.Source})

	if err := dbmigrate.Run(context.Background(), command, target.URL, dbmigrate.DefaultMigrationsDir, log); err != nil {
		log.Error(logModule, "migration failed", map[string]any{"command": command, "error": err.Error()})
		_ = log.Sync()
		os.Exit(1)
	}

	log.Info(logModule, "completed", map[string]any{"command": command})
}
