package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

type sqldb interface {
	querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Close()
}

// querier is satisfied by both the database and a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLDB struct {
	*sql.DB
}

func NewSQLDB(ctx context.Context, dsn string) (SQLDB, error) {
	const op = "SQLDB"
	log := slog.With("op", op)

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return SQLDB{}, fmt.Errorf("%s: invalid dsn: %w", op, err)
	}
	connStr := stdlib.RegisterConnConfig(connConfig)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return SQLDB{}, fmt.Errorf("%s: %w", op, err)
	}

	s := SQLDB{db}
	if err := s.PingContext(ctx); err != nil {
		_ = db.Close()
		return SQLDB{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	log.Info("database is available")
	return s, nil
}

func (s SQLDB) Close() {
	const op = "SQLDB.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")

	if err := s.DB.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}
