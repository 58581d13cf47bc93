// Package storage is the PostgreSQL local store.
//
// Writes to a table are serialized by a per-table mutex. Each write runs in a
// transaction that re-reads the table before commit; the read set is
// published to observers after the commit, so emissions follow commit order.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/live"
)

var _ port.LocalStore = (*Storage)(nil)

// SchemaMigrator destroys and recreates the store schema.
type SchemaMigrator interface {
	Reset(context.Context) error
}

type Storage struct {
	sqldb    sqldb
	migrator SchemaMigrator

	productsMu   sync.Mutex
	productsFeed *live.Feed[[]domain.Product]

	cartMu   sync.Mutex
	cartFeed *live.Feed[[]domain.CartLine]
}

func New(sqldb sqldb, migrator SchemaMigrator) *Storage {
	if sqldb == nil || migrator == nil {
		panic("storage.New: nil sqldb or migrator") // develop mistake
	}
	return &Storage{
		sqldb:        sqldb,
		migrator:     migrator,
		productsFeed: live.NewFeed[[]domain.Product](),
		cartFeed:     live.NewFeed[[]domain.CartLine](),
	}
}

func (s *Storage) Close() {
	const op = "Storage.Close"
	log := slog.With("op", op)

	log.Info("closing storage...")
	s.productsFeed.Close()
	s.cartFeed.Close()
	s.sqldb.Close()
	log.Info("storage is closed")
}

// DropAndRecreate holds both tables while the schema is reset. Cart
// observers get the empty cart; product observers get the next replace.
func (s *Storage) DropAndRecreate(ctx context.Context) error {
	const op = "Storage.DropAndRecreate"

	s.productsMu.Lock()
	defer s.productsMu.Unlock()
	s.cartMu.Lock()
	defer s.cartMu.Unlock()

	if err := s.migrator.Reset(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cartFeed.Publish([]domain.CartLine{})
	return nil
}

// inTx runs fn in a transaction; it commits when fn succeeds.
func (s *Storage) inTx(
	ctx context.Context, op string, fn func(*sql.Tx) error,
) (txErr error) {
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if txErr == nil {
			if err := tx.Commit(); err != nil {
				txErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}

		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	if err := fn(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
