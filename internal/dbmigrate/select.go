package dbmigrate

import (
	"errors"
	"strings"

	"github.com/fdg312/lifeos/internal/config"
)

const DefaultMigrationsDir = "migrations"

var (
	ErrNoDatabaseURL     = errors.New("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
	ErrDirectURLRequired = errors.New("DATABASE_URL_DIRECT is required for DDL/migrations")
	pooledDDLWarning     = "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT"
)

// Target: откуда берём подключение для goose
type Target struct {
	URL     string
	Source  string // имя переменной окружения
	Warning string
}

// SelectTarget: DIRECT > DATABASE_URL > POOLED (с предупреждением).
// requireDirect принимает только DATABASE_URL_DIRECT.
func SelectTarget(cfg *config.Config, requireDirect bool) (Target, error) {
	candidates := []Target{
		{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"},
		{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"},
		{URL: cfg.DatabaseURLPooled, Source: "DATABASE_URL_POOLED", Warning: pooledDDLWarning},
	}
	if requireDirect {
		candidates = candidates[:1]
	}

	for _, c := range candidates {
		c.URL = strings.TrimSpace(c.URL)
		if c.URL != "" {
			return c, nil
		}
	}

	if requireDirect {
		return Target{}, ErrDirectURLRequired
	}
	return Target{}, ErrNoDatabaseURL
}
