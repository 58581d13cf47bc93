package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// ProductSync decides when and from where the local product cache is
// populated.
//
// The seed asset is tried first. The remote source is used only when the
// deployment carries no asset; an unreadable asset is an error, not a reason
// to go to the network.
type ProductSync struct {
	store  port.ProductStore
	asset  port.SeedAsset
	remote port.RemoteSource
	mu     sync.Mutex
}

// NewProductSync returns the engine. asset and remote may be nil.
func NewProductSync(
	store port.ProductStore, asset port.SeedAsset, remote port.RemoteSource,
) *ProductSync {
	if store == nil {
		panic("service.NewProductSync: store is nil") // develop mistake
	}
	return &ProductSync{store: store, asset: asset, remote: remote}
}

// InitializeIfNeeded populates the product cache when it is cold or force is
// set.
//
// A warm cache costs one count query. With force the store is dropped and
// recreated, but only once a valid payload is in hand, so a bad payload
// leaves the cache as it was. Cancellation is honoured up to the first
// destructive step; from there the call runs to completion.
func (s *ProductSync) InitializeIfNeeded(ctx context.Context, force bool) error {
	const op = "ProductSync.InitializeIfNeeded"
	log := slog.With("op", op, "force", force)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !force {
		n, err := s.store.CountProducts(ctx)
		if err != nil {
			return dbErr(op, err)
		}
		if n != 0 {
			log.Debug("product cache is warm", "products", n)
			return nil
		}
	}

	ps, err := s.obtain(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ctx = context.WithoutCancel(ctx)

	if force {
		if err := s.store.DropAndRecreate(ctx); err != nil {
			return dbErr(op+": recreate store", err)
		}
		log.Info("local store recreated")
	}

	if err := s.store.ReplaceAllProducts(ctx, ps); err != nil {
		return dbErr(op+": replace products", err)
	}

	log.Info("product cache populated", "products", len(ps))
	return nil
}

func (s *ProductSync) obtain(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductSync.obtain"
	log := slog.With("op", op)

	data, err := s.loadAsset(ctx)
	switch {
	case err == nil:
		ps, err := domain.ParseProducts(data)
		if err != nil {
			return nil, fmt.Errorf("%s: seed asset: %w", op, err)
		}
		return ps, nil

	case errors.Is(err, domain.ErrAssetNotFound):
		if s.remote == nil {
			return nil, fmt.Errorf("%s: no remote source: %w", op, err)
		}
		log.Info("seed asset is absent, fetching remote catalog")
		ps, err := s.remote.FetchProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: remote source: %w", op, err)
		}
		return ps, nil

	case errors.Is(err, domain.ErrAssetLoad),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%s: %w", op, err)

	default:
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrAssetLoad, err)
	}
}

func (s *ProductSync) loadAsset(ctx context.Context) ([]byte, error) {
	if s.asset == nil {
		return nil, domain.ErrAssetNotFound
	}
	return s.asset.Load(ctx)
}
