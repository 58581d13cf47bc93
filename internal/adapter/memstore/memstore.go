// Package memstore is an in-process local store. It keeps the semantics of
// the SQL storage: replace-all is atomic for every reader and each committed
// write is published to observers in commit order.
package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/live"
)

var _ port.LocalStore = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	products map[int]domain.Product
	lines    []domain.CartLine

	productsFeed *live.Feed[[]domain.Product]
	cartFeed     *live.Feed[[]domain.CartLine]
}

func New() *Store {
	return &Store{
		products:     make(map[int]domain.Product),
		productsFeed: live.NewFeed[[]domain.Product](),
		cartFeed:     live.NewFeed[[]domain.CartLine](),
	}
}

func (s *Store) Close() {
	const op = "memstore.Close"
	log := slog.With("op", op)

	log.Info("closing memory store...")
	s.productsFeed.Close()
	s.cartFeed.Close()
	log.Info("memory store is closed")
}

func (s *Store) ObserveProducts(
	ctx context.Context,
) (live.Stream[[]domain.Product], error) {
	if err := ctx.Err(); err != nil {
		return nil, opErr(err, "ObserveProducts")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productsFeed.Subscribe(s.productList()), nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, opErr(err, "ListProducts")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productList(), nil
}

func (s *Store) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, opErr(err, "GetProduct")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, opErr(domain.ErrNotFound, "GetProduct")
	}
	return p, nil
}

func (s *Store) ReplaceAllProducts(ctx context.Context, ps []domain.Product) error {
	if err := ctx.Err(); err != nil {
		return opErr(err, "ReplaceAllProducts")
	}

	next := make(map[int]domain.Product, len(ps))
	for _, p := range ps {
		next[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = next
	s.productsFeed.Publish(s.productList())
	return nil
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, opErr(err, "CountProducts")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

// DropAndRecreate empties both tables. Cart observers get the empty cart,
// product observers wait for the next replace.
func (s *Store) DropAndRecreate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return opErr(err, "DropAndRecreate")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[int]domain.Product)
	s.lines = nil
	s.cartFeed.Publish(s.lineList())
	return nil
}

func (s *Store) ObserveCartLines(
	ctx context.Context,
) (live.Stream[[]domain.CartLine], error) {
	if err := ctx.Err(); err != nil {
		return nil, opErr(err, "ObserveCartLines")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartFeed.Subscribe(s.lineList()), nil
}

func (s *Store) ListCartLines(ctx context.Context) ([]domain.CartLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, opErr(err, "ListCartLines")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lineList(), nil
}

func (s *Store) GetCartLineByProduct(
	ctx context.Context, productID int,
) (domain.CartLine, error) {
	if err := ctx.Err(); err != nil {
		return domain.CartLine{}, opErr(err, "GetCartLineByProduct")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.lineIndex(productID); i >= 0 {
		return s.lines[i], nil
	}
	return domain.CartLine{}, opErr(domain.ErrNotFound, "GetCartLineByProduct")
}

// InsertCartLine adds l. An existing line of the same product gets the
// quantity added, there is never a second line per product.
func (s *Store) InsertCartLine(ctx context.Context, l domain.CartLine) error {
	if err := ctx.Err(); err != nil {
		return opErr(err, "InsertCartLine")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.lineIndex(l.ProductID); i >= 0 {
		s.lines[i].Quantity += l.Quantity
	} else {
		s.lines = append(s.lines, l)
	}
	s.cartFeed.Publish(s.lineList())
	return nil
}

func (s *Store) UpdateCartLineQuantity(
	ctx context.Context, productID, quantity int,
) error {
	if err := ctx.Err(); err != nil {
		return opErr(err, "UpdateCartLineQuantity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.lineIndex(productID); i >= 0 {
		s.lines[i].Quantity = quantity
	}
	s.cartFeed.Publish(s.lineList())
	return nil
}

func (s *Store) DeleteCartLine(ctx context.Context, l domain.CartLine) error {
	if err := ctx.Err(); err != nil {
		return opErr(err, "DeleteCartLine")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = slices.DeleteFunc(s.lines, func(v domain.CartLine) bool {
		return v == l
	})
	s.cartFeed.Publish(s.lineList())
	return nil
}

func (s *Store) ClearCartLines(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return opErr(err, "ClearCartLines")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.cartFeed.Publish(s.lineList())
	return nil
}

func (s *Store) productList() []domain.Product {
	ps := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		ps = append(ps, p)
	}
	slices.SortFunc(ps, func(a, b domain.Product) int {
		return a.ID - b.ID
	})
	return ps
}

func (s *Store) lineList() []domain.CartLine {
	return append(make([]domain.CartLine, 0, len(s.lines)), s.lines...)
}

func (s *Store) lineIndex(productID int) int {
	return slices.IndexFunc(s.lines, func(l domain.CartLine) bool {
		return l.ProductID == productID
	})
}

func opErr(err error, op string) error {
	return fmt.Errorf("memstore.%s: %w", op, err)
}
