package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/live"
)

// CartService aggregates cart lines by product identity.
//
// Mutations of the same product are serialized; mutations of different
// products run concurrently. ClearCart and Checkout hold the whole cart.
type CartService struct {
	store    port.CartStore
	producer port.CheckoutProducer
	now      func() time.Time

	cartMu sync.RWMutex
	lines  *locker.Locker
}

// NewCartService returns the engine. producer may be nil, then checkouts are
// not published.
func NewCartService(
	store port.CartStore, producer port.CheckoutProducer,
) *CartService {
	if store == nil {
		panic("service.NewCartService: store is nil") // develop mistake
	}
	return &CartService{
		store:    store,
		producer: producer,
		now:      time.Now,
		lines:    locker.New(),
	}
}

// AddToCart merges l into the existing line of the same product or inserts
// it as a new line.
func (s *CartService) AddToCart(ctx context.Context, l domain.CartLine) error {
	const op = "CartService.AddToCart"

	if l.Quantity <= 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidQuantity)
	}

	s.cartMu.RLock()
	defer s.cartMu.RUnlock()
	unlock := s.lockProduct(l.ProductID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.store.GetCartLineByProduct(ctx, l.ProductID)
	switch {
	case err == nil:
		err = s.store.UpdateCartLineQuantity(
			ctx, l.ProductID, existing.Quantity+l.Quantity,
		)
	case errors.Is(err, domain.ErrNotFound):
		err = s.store.InsertCartLine(ctx, l)
	}
	if err != nil {
		return dbErr(op, err)
	}
	return nil
}

// UpdateQuantity sets the quantity of the product's line. A missing line is
// left alone.
func (s *CartService) UpdateQuantity(
	ctx context.Context, productID, quantity int,
) error {
	const op = "CartService.UpdateQuantity"

	if quantity <= 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidQuantity)
	}

	s.cartMu.RLock()
	defer s.cartMu.RUnlock()
	unlock := s.lockProduct(productID)
	defer unlock()

	if err := s.store.UpdateCartLineQuantity(ctx, productID, quantity); err != nil {
		return dbErr(op, err)
	}
	return nil
}

// RemoveFromCart deletes the line equal to l. No match is not an error.
func (s *CartService) RemoveFromCart(ctx context.Context, l domain.CartLine) error {
	const op = "CartService.RemoveFromCart"

	s.cartMu.RLock()
	defer s.cartMu.RUnlock()
	unlock := s.lockProduct(l.ProductID)
	defer unlock()

	if err := s.store.DeleteCartLine(ctx, l); err != nil {
		return dbErr(op, err)
	}
	return nil
}

// RemoveProduct deletes the line of productID as it is stored now. A missing
// line is not an error.
func (s *CartService) RemoveProduct(ctx context.Context, productID int) error {
	const op = "CartService.RemoveProduct"

	s.cartMu.RLock()
	defer s.cartMu.RUnlock()
	unlock := s.lockProduct(productID)
	defer unlock()

	l, err := s.store.GetCartLineByProduct(ctx, productID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// matches nothing, observers still get the emission
		l = domain.CartLine{ProductID: productID}
	case err != nil:
		return dbErr(op, err)
	}

	if err := s.store.DeleteCartLine(ctx, l); err != nil {
		return dbErr(op, err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context) error {
	const op = "CartService.ClearCart"

	s.cartMu.Lock()
	defer s.cartMu.Unlock()

	if err := s.store.ClearCartLines(ctx); err != nil {
		return dbErr(op, err)
	}
	return nil
}

func (s *CartService) ObserveCart(ctx context.Context) (live.Stream[domain.Cart], error) {
	return ObserveCart(ctx, s.store)
}

// Checkout snapshots the cart, publishes it and clears the cart. When
// publishing fails the cart is kept.
func (s *CartService) Checkout(ctx context.Context) (domain.Checkout, error) {
	const op = "CartService.Checkout"
	log := slog.With("op", op)

	s.cartMu.Lock()
	defer s.cartMu.Unlock()

	lines, err := s.store.ListCartLines(ctx)
	if err != nil {
		return domain.Checkout{}, dbErr(op, err)
	}
	if len(lines) == 0 {
		return domain.Checkout{}, fmt.Errorf("%s: %w", op, domain.ErrEmptyCart)
	}

	co := domain.Checkout{
		ID:        uuid.NewString(),
		Lines:     lines,
		Total:     domain.NewCart(lines).Total,
		CreatedAt: s.now().UTC(),
	}

	if s.producer != nil {
		if err := s.producer.ProduceCheckout(ctx, co); err != nil {
			return domain.Checkout{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.store.ClearCartLines(context.WithoutCancel(ctx)); err != nil {
		return domain.Checkout{}, dbErr(op, err)
	}

	log.Info("checkout completed",
		"checkoutID", co.ID,
		"lines", len(co.Lines),
		"total", domain.FormatPrice(co.Total),
	)
	return co, nil
}

func (s *CartService) lockProduct(productID int) (unlock func()) {
	key := strconv.Itoa(productID)
	s.lines.Lock(key)
	return func() { _ = s.lines.Unlock(key) }
}
