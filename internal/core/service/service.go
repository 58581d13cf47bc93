// Package service holds the storefront engines: product cache
// synchronization, cart aggregation and the view state built on their live
// streams.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductsInitializer = (*ProductSync)(nil)
var _ port.CatalogReader = (*Catalog)(nil)
var _ port.CatalogLoader = (*Catalog)(nil)
var _ port.CartManager = (*CartModel)(nil)

// dbErr tags err as a database failure unless it is a cancellation.
func dbErr(op string, err error) error {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrDatabase, err)
}
