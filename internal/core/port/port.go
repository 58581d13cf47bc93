package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/live"
)

type (
	closer interface {
		Close()
	}
)

// ProductStore is the products table of the local store.
type ProductStore interface {
	// ObserveProducts streams the product set ordered by id, starting with
	// the current snapshot.
	ObserveProducts(context.Context) (live.Stream[[]domain.Product], error)
	ListProducts(context.Context) ([]domain.Product, error)
	// GetProduct returns [domain.ErrNotFound] when id is absent.
	GetProduct(ctx context.Context, id int) (domain.Product, error)
	// ReplaceAllProducts deletes every product and inserts ps in one
	// transaction.
	ReplaceAllProducts(ctx context.Context, ps []domain.Product) error
	CountProducts(context.Context) (int, error)
	// DropAndRecreate destroys both tables and recreates the schema.
	DropAndRecreate(context.Context) error
}

// CartStore is the cart_items table of the local store.
type CartStore interface {
	ObserveCartLines(context.Context) (live.Stream[[]domain.CartLine], error)
	ListCartLines(context.Context) ([]domain.CartLine, error)
	// GetCartLineByProduct returns [domain.ErrNotFound] when no line exists.
	GetCartLineByProduct(ctx context.Context, productID int) (domain.CartLine, error)
	InsertCartLine(context.Context, domain.CartLine) error
	UpdateCartLineQuantity(ctx context.Context, productID, quantity int) error
	// DeleteCartLine deletes the line matching every field of l.
	DeleteCartLine(ctx context.Context, l domain.CartLine) error
	ClearCartLines(context.Context) error
}

type LocalStore interface {
	ProductStore
	CartStore
	closer
}

// RemoteSource fetches the catalog over the network.
type RemoteSource interface {
	FetchProducts(context.Context) ([]domain.Product, error)
}

// SeedAsset reads the bundled catalog.
//
// Load returns [domain.ErrAssetNotFound] when the deployment has no asset.
type SeedAsset interface {
	Load(context.Context) ([]byte, error)
}

type CheckoutProducer interface {
	ProduceCheckout(context.Context, domain.Checkout) error
}

type ProductsInitializer interface {
	InitializeIfNeeded(ctx context.Context, force bool) error
}

type CatalogReader interface {
	State() domain.CatalogState
	Product(ctx context.Context, id int) (domain.Product, error)
}

type CatalogLoader interface {
	Load(ctx context.Context, force bool) error
}

type CartManager interface {
	State() domain.CartState
	AddToCart(context.Context, domain.CartLine) error
	UpdateQuantity(ctx context.Context, productID, quantity int) error
	RemoveFromCart(context.Context, domain.CartLine) error
	RemoveProduct(ctx context.Context, productID int) error
	ClearCart(context.Context) error
	Checkout(context.Context) (domain.Checkout, error)
}
