// Package repository implements the Repository component (C9): a
// PostgreSQL-backed relational store for curves, recession segments,
// calculations, recharge events, and yearly summaries.
package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/caeser-uofm/gwrecharge/gwerrors"
	"github.com/caeser-uofm/gwrecharge/obslog"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is the C9 repository: each exported method acquires a connection,
// does its work, and releases it (§5 "no long-lived transactions across
// operations").
type Store struct {
	db  *sqlx.DB
	log *obslog.Logger
}

// Open connects to Postgres, configures the connection pool, and executes
// every embedded migration file in name order (applied migrations are not
// tracked; the files rely on IF NOT EXISTS) (grounded on kubilitics-backend's NewPostgresRepository).
func Open(ctx context.Context, dsn string, log *obslog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, gwerrors.New(gwerrors.RepositoryError, "failed to connect to postgres").Wrap(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return gwerrors.New(gwerrors.RepositoryError, "failed to read embedded migrations").Wrap(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFS.ReadFile(fmt.Sprintf("migrations/%s", name))
		if err != nil {
			return gwerrors.New(gwerrors.RepositoryError, "failed to read migration "+name).Wrap(err)
		}
		if _, err := s.db.ExecContext(ctx, string(body)); err != nil {
			return gwerrors.New(gwerrors.RepositoryError, "failed to apply migration "+name).Wrap(err)
		}
	}
	if s.log != nil {
		s.log.Infow("repository migrations applied", "count", len(names))
	}
	return nil
}
