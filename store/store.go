// Package store persists corpora, extracted features and chunk pairs in a
// relational database (SQLite or PostgreSQL).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/andreas-weise/individual-variation/resilience"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options tune a Store. Zero values use a discarding logger and the default
// retry policy.
type Options struct {
	Log   logrus.FieldLogger
	Retry *resilience.RetryConfig
}

// Store is a handle on the corpus database.
type Store struct {
	db     *sql.DB
	driver string
	log    logrus.FieldLogger
	retry  *resilience.RetryConfig
}

// Open connects to the database and checks that it is reachable.
func Open(ctx context.Context, driver, dsn string, opts Options) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer; concurrent extraction workers queue on the pool
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, log: opts.Log, retry: opts.Retry}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	if s.retry == nil {
		s.retry = resilience.DefaultRetryConfig()
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() string { return s.driver }

// Tx is the subset of *sql.Tx used by store operations.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// withRetry runs fn in a transaction, retrying while the database reports
// it is busy, e.g. when several extraction processes write at once.
func (s *Store) withRetry(ctx context.Context, fn func(Tx) error) error {
	return resilience.Retry(ctx, func(ctx context.Context) error {
		err := s.WithTx(ctx, fn)
		if isBusy(err) {
			s.log.WithError(err).Debug("database busy, retrying")
			return resilience.NewRetryableError(err)
		}
		return err
	}, s.retry, resilience.IsRetryable)
}

// isBusy reports lock contention: SQLite's busy/locked errors and
// PostgreSQL serialization failures and deadlocks.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

// Migrate creates the tables and the big_table view.
func (s *Store) Migrate(ctx context.Context) error {
	script, err := LoadSchema(SchemaName)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	return s.WithTx(ctx, func(tx Tx) error {
		for _, stmt := range statements(script) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
