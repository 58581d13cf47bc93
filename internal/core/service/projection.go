package service

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/live"
)

// ObserveProducts streams the cached catalog, re-read on every committed
// write.
func ObserveProducts(
	ctx context.Context, store port.ProductStore,
) (live.Stream[[]domain.Product], error) {
	const op = "service.ObserveProducts"

	s, err := store.ObserveProducts(ctx)
	if err != nil {
		return nil, dbErr(op, err)
	}
	return s, nil
}

// ObserveCart streams the cart with its total recomputed from every fresh
// line set.
func ObserveCart(
	ctx context.Context, store port.CartStore,
) (live.Stream[domain.Cart], error) {
	const op = "service.ObserveCart"

	s, err := store.ObserveCartLines(ctx)
	if err != nil {
		return nil, dbErr(op, err)
	}
	return live.Map(s, domain.NewCart), nil
}
