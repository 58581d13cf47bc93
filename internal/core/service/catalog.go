package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/live"
)

// Catalog holds the product list state: loading, failed by kind, or the
// live products.
type Catalog struct {
	ctx    context.Context
	init   port.ProductsInitializer
	store  port.ProductStore
	loadMu sync.Mutex

	mu    sync.RWMutex
	state domain.CatalogState
	gen   int
	stop  context.CancelFunc
	wg    sync.WaitGroup
}

// NewCatalog returns a catalog in the loading state. Watchers started by
// Load live until ctx is done or Close is called.
func NewCatalog(
	ctx context.Context, init port.ProductsInitializer, store port.ProductStore,
) *Catalog {
	return &Catalog{
		ctx:   ctx,
		init:  init,
		store: store,
		state: domain.CatalogState{Status: domain.StatusLoading},
	}
}

func (c *Catalog) State() domain.CatalogState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Load initializes the product cache and follows the live product list. On
// success the state is already Ready with the cached products. A newer Load
// supersedes the watcher of the previous one.
func (c *Catalog) Load(ctx context.Context, force bool) error {
	const op = "Catalog.Load"
	log := slog.With("op", op)

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	gen := c.reset()

	if err := c.init.InitializeIfNeeded(ctx, force); err != nil {
		c.fail(gen, err)
		log.Error("failed to initialize products", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	stream, err := ObserveProducts(c.ctx, c.store)
	if err != nil {
		c.fail(gen, err)
		log.Error("failed to observe products", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	// the first value is the snapshot, Load returns with it in place
	ps, err := stream.Next(ctx)
	if err != nil {
		stream.Close()
		c.fail(gen, err)
		log.Error("failed to read products", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	c.update(gen, domain.CatalogState{Status: domain.StatusReady, Products: ps})

	c.watch(gen, stream)
	return nil
}

// Product returns the cached product id.
func (c *Catalog) Product(ctx context.Context, id int) (domain.Product, error) {
	const op = "Catalog.Product"

	p, err := c.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		return domain.Product{}, dbErr(op, err)
	}
	return p, nil
}

// Close stops the watcher and waits for it.
func (c *Catalog) Close() {
	c.mu.Lock()
	if c.stop != nil {
		c.stop()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// reset stops the current watcher and enters the loading state.
func (c *Catalog) reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.gen++
	c.state = domain.CatalogState{Status: domain.StatusLoading}
	return c.gen
}

func (c *Catalog) watch(gen int, stream live.Stream[[]domain.Product]) {
	const op = "Catalog.watch"
	log := slog.With("op", op)

	ctx, cancel := context.WithCancel(c.ctx)

	c.mu.Lock()
	c.stop = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer stream.Close()

		for {
			ps, err := stream.Next(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, live.ErrClosed) {
					return
				}
				log.Error("product stream failed", "err", err)
				c.fail(gen, err)
				return
			}
			c.update(gen, domain.CatalogState{
				Status:   domain.StatusReady,
				Products: ps,
			})
		}
	}()
}

func (c *Catalog) fail(gen int, err error) {
	kind := domain.KindOf(err)
	c.update(gen, domain.CatalogState{
		Status:  domain.StatusFailed,
		ErrKind: kind,
		ErrMsg:  failureMessage(kind, err),
	})
}

func (c *Catalog) update(gen int, s domain.CatalogState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.state = s
}

func failureMessage(kind domain.ErrorKind, err error) string {
	switch kind {
	case domain.KindDatabase:
		return "failed to access the local store"
	case domain.KindAssetLoad:
		return "failed to load the initial catalog"
	case domain.KindJSONParse:
		return "failed to process the catalog data"
	case domain.KindConnectivity:
		return "no network connection"
	default:
		return err.Error()
	}
}
