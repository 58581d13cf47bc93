package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/live"
)

const selectCartLines = `
	SELECT product_id, quantity, unit_price, title, image_url
	FROM cart_items`

func (s *Storage) ObserveCartLines(
	ctx context.Context,
) (live.Stream[[]domain.CartLine], error) {
	const op = "Storage.ObserveCartLines"

	s.cartMu.Lock()
	defer s.cartMu.Unlock()

	lines, err := queryCartLines(ctx, s.sqldb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.cartFeed.Subscribe(lines), nil
}

func (s *Storage) ListCartLines(ctx context.Context) ([]domain.CartLine, error) {
	const op = "Storage.ListCartLines"

	lines, err := queryCartLines(ctx, s.sqldb)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lines, nil
}

func (s *Storage) GetCartLineByProduct(
	ctx context.Context, productID int,
) (domain.CartLine, error) {
	const op = "Storage.GetCartLineByProduct"

	row := s.sqldb.QueryRowContext(
		ctx, selectCartLines+` WHERE product_id = $1;`, productID,
	)
	l, err := scanCartLine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartLine{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.CartLine{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// InsertCartLine inserts l or adds its quantity to the line of the same
// product.
func (s *Storage) InsertCartLine(ctx context.Context, l domain.CartLine) error {
	const op = "Storage.InsertCartLine"

	query := `
		INSERT INTO cart_items (product_id, quantity, unit_price, title, image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity;
	`
	return s.writeCart(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			l.ProductID, l.Quantity, l.UnitPrice, l.Title, l.ImageURL,
		)
		return err
	})
}

func (s *Storage) UpdateCartLineQuantity(
	ctx context.Context, productID, quantity int,
) error {
	const op = "Storage.UpdateCartLineQuantity"

	query := `UPDATE cart_items SET quantity = $2 WHERE product_id = $1;`
	return s.writeCart(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, productID, quantity)
		return err
	})
}

// DeleteCartLine deletes the line equal to l in every field.
func (s *Storage) DeleteCartLine(ctx context.Context, l domain.CartLine) error {
	const op = "Storage.DeleteCartLine"

	query := `
		DELETE FROM cart_items
		WHERE product_id = $1 AND quantity = $2 AND unit_price = $3
			AND title = $4 AND image_url = $5;
	`
	return s.writeCart(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			l.ProductID, l.Quantity, l.UnitPrice, l.Title, l.ImageURL,
		)
		return err
	})
}

func (s *Storage) ClearCartLines(ctx context.Context) error {
	const op = "Storage.ClearCartLines"

	return s.writeCart(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM cart_items;`)
		return err
	})
}

// writeCart runs write and publishes the cart it committed.
func (s *Storage) writeCart(
	ctx context.Context, op string, write func(*sql.Tx) error,
) error {
	s.cartMu.Lock()
	defer s.cartMu.Unlock()

	var lines []domain.CartLine
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		if err := write(tx); err != nil {
			return err
		}
		var err error
		lines, err = queryCartLines(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}

	s.cartFeed.Publish(lines)
	return nil
}

func queryCartLines(ctx context.Context, q querier) ([]domain.CartLine, error) {
	rows, err := q.QueryContext(ctx, selectCartLines+` ORDER BY id ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func scanCartLine(row scanner) (l domain.CartLine, err error) {
	err = row.Scan(&l.ProductID, &l.Quantity, &l.UnitPrice, &l.Title, &l.ImageURL)
	return
}
