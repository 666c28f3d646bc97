package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = storage.ErrNotFound
)

// PostgresStorage: Postgres реализация storage.Storage.
// Процедуры вызываются через SELECT fn(...), представления читаются как есть.
type PostgresStorage struct {
	pool    *pgxpool.Pool
	reports *PostgresReportsStorage
}

// New создаёт пул. timeZone (IANA) выставляется сессии, чтобы CURRENT_DATE
// во вьюхах совпадал с днём пользователя; пустая строка: оставить серверный.
func New(ctx context.Context, databaseURL string, timeZone string) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	if timeZone != "" {
		if _, err := time.LoadLocation(timeZone); err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
		}
		cfg.ConnConfig.RuntimeParams["timezone"] = timeZone
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:    pool,
		reports: NewPostgresReportsStorage(pool),
	}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStorage) GetReportsStorage() *PostgresReportsStorage {
	return p.reports
}

// noDataFound: RAISE ... USING ERRCODE = 'no_data_found'
func noDataFound(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "P0002"
}

// rpcError оставляет только текст исключения процедуры
func rpcError(fn string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %s", fn, pgErr.Message)
	}
	return fmt.Errorf("%s: %w", fn, err)
}
