package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/niksmo/storefront/internal/adapter/memstore"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func line(productID, quantity int, price float64) domain.CartLine {
	return domain.CartLine{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: price,
		Title:     "product",
		ImageURL:  "product.png",
	}
}

func cartOf(t *testing.T, cart *service.CartService) domain.Cart {
	t.Helper()
	stream, err := cart.ObserveCart(t.Context())
	require.NoError(t, err)
	defer stream.Close()
	c, err := nextWithin(t.Context(), stream)
	require.NoError(t, err)
	return c
}

func TestCartService(t *testing.T) {
	t.Run("MergeAdd", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)

		require.NoError(t, cart.AddToCart(t.Context(), line(1, 2, 1)))
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 3, 1)))

		c := cartOf(t, cart)
		require.Len(t, c.Lines, 1)
		assert.Equal(t, 1, c.Lines[0].ProductID)
		assert.Equal(t, 5, c.Lines[0].Quantity)
	})

	t.Run("DistinctIdentity", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)

		require.NoError(t, cart.AddToCart(t.Context(), line(1, 1, 1)))
		require.NoError(t, cart.AddToCart(t.Context(), line(2, 1, 1)))

		assert.Len(t, cartOf(t, cart).Lines, 2)
	})

	t.Run("Total", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)

		require.NoError(t, cart.AddToCart(t.Context(), line(1, 3, 2.50)))
		require.NoError(t, cart.AddToCart(t.Context(), line(2, 1, 10.00)))

		c := cartOf(t, cart)
		assert.InDelta(t, 17.50, c.Total, 1e-9)
		assert.Equal(t, "17.50", domain.FormatPrice(c.Total))
	})

	t.Run("UpdateQuantity", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)

		require.NoError(t, cart.AddToCart(t.Context(), line(1, 1, 2)))
		require.NoError(t, cart.UpdateQuantity(t.Context(), 1, 4))
		require.NoError(t, cart.UpdateQuantity(t.Context(), 99, 4))

		c := cartOf(t, cart)
		require.Len(t, c.Lines, 1)
		assert.Equal(t, 4, c.Lines[0].Quantity)
		assert.InDelta(t, 8.0, c.Total, 1e-9)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)

		err := cart.AddToCart(t.Context(), line(1, 0, 1))
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		err = cart.UpdateQuantity(t.Context(), 1, -1)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

		assert.True(t, cartOf(t, cart).IsEmpty())
	})

	t.Run("RemovalNoOp", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 2, 3)))
		before := cartOf(t, cart)

		require.NoError(t, cart.RemoveFromCart(t.Context(), line(2, 1, 3)))

		assert.Equal(t, before, cartOf(t, cart))
	})

	t.Run("Remove", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 2, 3)))
		require.NoError(t, cart.AddToCart(t.Context(), line(2, 1, 1)))

		l, ok := cartOf(t, cart).Line(1)
		require.True(t, ok)
		require.NoError(t, cart.RemoveFromCart(t.Context(), l))

		c := cartOf(t, cart)
		require.Len(t, c.Lines, 1)
		assert.Equal(t, 2, c.Lines[0].ProductID)
	})

	t.Run("RemoveProduct", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 2, 3)))
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 4, 3)))
		require.NoError(t, cart.AddToCart(t.Context(), line(2, 1, 1)))

		require.NoError(t, cart.RemoveProduct(t.Context(), 1))

		c := cartOf(t, cart)
		require.Len(t, c.Lines, 1)
		assert.Equal(t, 2, c.Lines[0].ProductID)
	})

	t.Run("RemoveMissingProductEmits", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 2, 3)))

		stream, err := cart.ObserveCart(t.Context())
		require.NoError(t, err)
		defer stream.Close()
		before, err := nextWithin(t.Context(), stream)
		require.NoError(t, err)

		require.NoError(t, cart.RemoveProduct(t.Context(), 9))

		after, err := nextWithin(t.Context(), stream)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Clear", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 2, 3)))

		stream, err := cart.ObserveCart(t.Context())
		require.NoError(t, err)
		defer stream.Close()
		c, err := nextWithin(t.Context(), stream)
		require.NoError(t, err)
		require.False(t, c.IsEmpty())

		require.NoError(t, cart.ClearCart(t.Context()))

		c, err = nextWithin(t.Context(), stream)
		require.NoError(t, err)
		assert.Empty(t, c.Lines)
		assert.Zero(t, c.Total)
	})

	t.Run("EveryMutationEmits", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)

		stream, err := cart.ObserveCart(t.Context())
		require.NoError(t, err)
		defer stream.Close()
		_, err = nextWithin(t.Context(), stream)
		require.NoError(t, err)

		require.NoError(t, cart.AddToCart(t.Context(), line(1, 1, 1)))
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 1, 1)))
		require.NoError(t, cart.RemoveFromCart(t.Context(), line(5, 1, 1)))

		quantities := make([]int, 0, 3)
		for range 3 {
			c, err := nextWithin(t.Context(), stream)
			require.NoError(t, err)
			require.Len(t, c.Lines, 1)
			quantities = append(quantities, c.Lines[0].Quantity)
		}
		assert.Equal(t, []int{1, 2, 2}, quantities)
	})

	t.Run("ConcurrentAddsAreNotLost", func(t *testing.T) {
		const workers = 50

		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, cart.AddToCart(t.Context(), line(i%2+1, 1, 1)))
			}()
		}
		wg.Wait()

		c := cartOf(t, cart)
		require.Len(t, c.Lines, 2)
		assert.Equal(t, workers, c.Lines[0].Quantity+c.Lines[1].Quantity)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := cart.AddToCart(ctx, line(1, 1, 1))
		require.ErrorIs(t, err, context.Canceled)
		assert.NotEqual(t, domain.KindDatabase, domain.KindOf(err))
	})
}

func TestCheckout(t *testing.T) {
	t.Run("PublishesAndClears", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		producer := new(MockCheckoutProducer)
		producer.On("ProduceCheckout", mock.Anything, mock.Anything).Return(nil)
		cart := service.NewCartService(store, producer)

		require.NoError(t, cart.AddToCart(t.Context(), line(1, 3, 2.50)))
		require.NoError(t, cart.AddToCart(t.Context(), line(2, 1, 10)))

		co, err := cart.Checkout(t.Context())
		require.NoError(t, err)
		assert.NotEmpty(t, co.ID)
		assert.Len(t, co.Lines, 2)
		assert.InDelta(t, 17.50, co.Total, 1e-9)
		assert.False(t, co.CreatedAt.IsZero())

		producer.AssertCalled(t, "ProduceCheckout", mock.Anything, co)
		assert.True(t, cartOf(t, cart).IsEmpty())
	})

	t.Run("ProducerFailureKeepsCart", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		producer := new(MockCheckoutProducer)
		producer.On("ProduceCheckout", mock.Anything, mock.Anything).
			Return(errors.New("broker unavailable"))
		cart := service.NewCartService(store, producer)
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 1, 1)))

		_, err := cart.Checkout(t.Context())
		require.Error(t, err)

		assert.Len(t, cartOf(t, cart).Lines, 1)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		producer := new(MockCheckoutProducer)
		cart := service.NewCartService(store, producer)

		_, err := cart.Checkout(t.Context())
		require.ErrorIs(t, err, domain.ErrEmptyCart)
		producer.AssertNotCalled(t, "ProduceCheckout", mock.Anything, mock.Anything)
	})

	t.Run("WithoutProducer", func(t *testing.T) {
		store := memstore.New()
		defer store.Close()
		cart := service.NewCartService(store, nil)
		require.NoError(t, cart.AddToCart(t.Context(), line(1, 1, 1)))

		_, err := cart.Checkout(t.Context())
		require.NoError(t, err)
		assert.True(t, cartOf(t, cart).IsEmpty())
	})
}

func TestSeedThenShop(t *testing.T) {
	store := memstore.New()
	defer store.Close()
	asset := new(MockSeedAsset)
	asset.On("Load", mock.Anything).Return([]byte(seedJSON), nil)

	engine := service.NewProductSync(store, asset, nil)
	require.NoError(t, engine.InitializeIfNeeded(t.Context(), false))

	n, err := store.CountProducts(t.Context())
	require.NoError(t, err)
	require.Equal(t, 3, n)

	p, err := store.GetProduct(t.Context(), 2)
	require.NoError(t, err)

	cart := service.NewCartService(store, nil)
	add := domain.CartLine{
		ProductID: p.ID,
		Quantity:  1,
		UnitPrice: p.Price,
		Title:     p.Title,
		ImageURL:  p.ImageURL,
	}
	require.NoError(t, cart.AddToCart(t.Context(), add))
	require.NoError(t, cart.AddToCart(t.Context(), add))

	c := cartOf(t, cart)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.InDelta(t, 2*p.Price, c.Total, 1e-9)
}
