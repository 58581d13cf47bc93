package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/live"
)

const selectProducts = `
	SELECT id, title, description, price, image_url, shape, size, stock
	FROM products`

func (s *Storage) ObserveProducts(
	ctx context.Context,
) (live.Stream[[]domain.Product], error) {
	const op = "Storage.ObserveProducts"

	s.productsMu.Lock()
	defer s.productsMu.Unlock()

	ps, err := queryProducts(ctx, s.sqldb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.productsFeed.Subscribe(ps), nil
}

func (s *Storage) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Storage.ListProducts"

	ps, err := queryProducts(ctx, s.sqldb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s *Storage) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	const op = "Storage.GetProduct"

	row := s.sqldb.QueryRowContext(ctx, selectProducts+` WHERE id = $1;`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Storage) CountProducts(ctx context.Context) (int, error) {
	const op = "Storage.CountProducts"

	var n int
	err := s.sqldb.QueryRowContext(ctx, `SELECT COUNT(*) FROM products;`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ReplaceAllProducts deletes every product and inserts ps in one
// transaction.
func (s *Storage) ReplaceAllProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Storage.ReplaceAllProducts"

	s.productsMu.Lock()
	defer s.productsMu.Unlock()

	var stored []domain.Product
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products;`); err != nil {
			return fmt.Errorf("failed to delete: %w", err)
		}
		if err := insertProducts(ctx, tx, ps); err != nil {
			return err
		}
		var err error
		stored, err = queryProducts(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}

	s.productsFeed.Publish(stored)
	return nil
}

func insertProducts(ctx context.Context, tx *sql.Tx, ps []domain.Product) error {
	const op = "insertProducts"
	log := slog.With("op", op)

	query := `
		INSERT INTO products (
			id, title, description, price, image_url, shape, size, stock
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare stmt: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, p := range ps {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Title, p.Description, p.Price, p.ImageURL,
			nullString(p.Shape), nullString(p.Size), p.Stock,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product %d: %w", p.ID, err)
		}
	}
	return nil
}

func queryProducts(ctx context.Context, q querier) ([]domain.Product, error) {
	rows, err := q.QueryContext(ctx, selectProducts+` ORDER BY id ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (domain.Product, error) {
	var (
		p           domain.Product
		shape, size sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.ImageURL,
		&shape, &size, &p.Stock,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Shape = shape.String
	p.Size = size.String
	return p, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
