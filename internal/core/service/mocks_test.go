package service_test

import (
	"context"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/live"
	"github.com/stretchr/testify/mock"
)

type MockProductStore struct {
	mock.Mock
}

func (s *MockProductStore) ObserveProducts(
	ctx context.Context,
) (live.Stream[[]domain.Product], error) {
	args := s.Called(ctx)
	stream, _ := args.Get(0).(live.Stream[[]domain.Product])
	return stream, args.Error(1)
}

func (s *MockProductStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := s.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (s *MockProductStore) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (s *MockProductStore) ReplaceAllProducts(
	ctx context.Context, ps []domain.Product,
) error {
	args := s.Called(ctx, ps)
	return args.Error(0)
}

func (s *MockProductStore) CountProducts(ctx context.Context) (int, error) {
	args := s.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (s *MockProductStore) DropAndRecreate(ctx context.Context) error {
	args := s.Called(ctx)
	return args.Error(0)
}

type MockSeedAsset struct {
	mock.Mock
}

func (a *MockSeedAsset) Load(ctx context.Context) ([]byte, error) {
	args := a.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockRemoteSource struct {
	mock.Mock
}

func (r *MockRemoteSource) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	args := r.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

type MockCheckoutProducer struct {
	mock.Mock
}

func (p *MockCheckoutProducer) ProduceCheckout(
	ctx context.Context, co domain.Checkout,
) error {
	args := p.Called(ctx, co)
	return args.Error(0)
}

const seedJSON = `[
	{"id": 1, "title": "Sourdough", "description": "Country loaf", "price": 6.50, "imageUrl": "sourdough.png", "shape": "round", "stock": 10},
	{"id": 2, "title": "Croissant", "description": "Butter croissant", "price": 2.75, "imageUrl": "croissant.png", "stock": 30},
	{"id": 3, "title": "Baguette", "description": "French stick", "price": 3.10, "imageUrl": "baguette.png", "size": "long", "stock": 20}
]`

func nextWithin[T any](ctx context.Context, s live.Stream[T]) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.Next(ctx)
}
