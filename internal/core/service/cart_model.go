package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/live"
)

// CartModel follows the live cart and reports failed mutations without
// dropping the last good cart.
type CartModel struct {
	cart *CartService

	mu     sync.RWMutex
	state  domain.CartState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCartModel(cart *CartService) *CartModel {
	return &CartModel{
		cart:  cart,
		state: domain.CartState{Status: domain.StatusLoading},
	}
}

// Start subscribes to the cart. The subscription lives until ctx is done or
// Close is called.
func (m *CartModel) Start(ctx context.Context) error {
	const op = "CartModel.Start"

	stream, err := m.cart.ObserveCart(ctx)
	if err != nil {
		m.setState(domain.CartState{
			Status: domain.StatusFailed,
			ErrMsg: "failed to load the cart",
		})
		return fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.follow(ctx, stream)
	return nil
}

func (m *CartModel) follow(ctx context.Context, stream live.Stream[domain.Cart]) {
	const op = "CartModel.follow"
	log := slog.With("op", op)

	defer m.wg.Done()
	defer stream.Close()

	for {
		c, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, live.ErrClosed) {
				return
			}
			log.Error("cart stream failed", "err", err)
			m.mu.Lock()
			m.state.Status = domain.StatusFailed
			m.state.ErrMsg = "failed to load the cart"
			m.mu.Unlock()
			return
		}
		m.setState(domain.CartState{Status: domain.StatusReady, Cart: c})
	}
}

func (m *CartModel) State() domain.CartState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *CartModel) AddToCart(ctx context.Context, l domain.CartLine) error {
	return m.report("failed to add item to cart", m.cart.AddToCart(ctx, l))
}

func (m *CartModel) UpdateQuantity(ctx context.Context, productID, quantity int) error {
	return m.report(
		"failed to update quantity",
		m.cart.UpdateQuantity(ctx, productID, quantity),
	)
}

func (m *CartModel) RemoveFromCart(ctx context.Context, l domain.CartLine) error {
	return m.report("failed to remove item from cart", m.cart.RemoveFromCart(ctx, l))
}

func (m *CartModel) RemoveProduct(ctx context.Context, productID int) error {
	return m.report(
		"failed to remove item from cart",
		m.cart.RemoveProduct(ctx, productID),
	)
}

func (m *CartModel) ClearCart(ctx context.Context) error {
	return m.report("failed to clear cart", m.cart.ClearCart(ctx))
}

func (m *CartModel) Checkout(ctx context.Context) (domain.Checkout, error) {
	co, err := m.cart.Checkout(ctx)
	return co, m.report("failed to check out", err)
}

func (m *CartModel) Close() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// report keeps the cart and sets a transient message when err is not nil.
func (m *CartModel) report(msg string, err error) error {
	if err == nil {
		return nil
	}
	slog.Warn(msg, "op", "CartModel.report", "err", err)

	m.mu.Lock()
	m.state.ErrMsg = msg
	m.mu.Unlock()
	return err
}

func (m *CartModel) setState(s domain.CartState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}
