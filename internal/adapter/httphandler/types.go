package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	Product struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		ImageURL    string  `json:"imageUrl"`
		Shape       string  `json:"shape,omitempty"`
		Size        string  `json:"size,omitempty"`
		Stock       int     `json:"stock"`
	}

	Catalog struct {
		Status    string    `json:"status"`
		ErrorKind string    `json:"error_kind,omitempty"`
		Error     string    `json:"error,omitempty"`
		Products  []Product `json:"products"`
	}

	CartLine struct {
		ProductID int     `json:"product_id"`
		Title     string  `json:"title"`
		ImageURL  string  `json:"image_url"`
		UnitPrice float64 `json:"unit_price"`
		Quantity  int     `json:"quantity"`
		Subtotal  float64 `json:"subtotal"`
	}

	Cart struct {
		Status       string     `json:"status"`
		Error        string     `json:"error,omitempty"`
		Lines        []CartLine `json:"lines"`
		Total        float64    `json:"total"`
		TotalDisplay string     `json:"total_display"`
	}

	Checkout struct {
		ID           string     `json:"id"`
		Lines        []CartLine `json:"lines"`
		Total        float64    `json:"total"`
		TotalDisplay string     `json:"total_display"`
		CreatedAt    time.Time  `json:"created_at"`
	}

	AddItem struct {
		ProductID int  `json:"product_id"`
		Quantity  *int `json:"quantity"`
	}

	SetQuantity struct {
		Quantity *int `json:"quantity"`
	}

	Error struct {
		Error string `json:"error"`
		Kind  string `json:"kind,omitempty"`
	}
)

func toProduct(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Shape:       p.Shape,
		Size:        p.Size,
		Stock:       p.Stock,
	}
}

func toCatalog(s domain.CatalogState, ps []domain.Product) Catalog {
	c := Catalog{
		Status:   s.Status.String(),
		Error:    s.ErrMsg,
		Products: make([]Product, len(ps)),
	}
	if s.Status == domain.StatusFailed {
		c.ErrorKind = s.ErrKind.String()
	}
	for i, p := range ps {
		c.Products[i] = toProduct(p)
	}
	return c
}

func toCartLines(ls []domain.CartLine) []CartLine {
	lines := make([]CartLine, len(ls))
	for i, l := range ls {
		lines[i] = CartLine{
			ProductID: l.ProductID,
			Title:     l.Title,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		}
	}
	return lines
}

func toCart(s domain.CartState) Cart {
	return Cart{
		Status:       s.Status.String(),
		Error:        s.ErrMsg,
		Lines:        toCartLines(s.Cart.Lines),
		Total:        s.Cart.Total,
		TotalDisplay: domain.FormatPrice(s.Cart.Total),
	}
}

func toCheckout(co domain.Checkout) Checkout {
	return Checkout{
		ID:           co.ID,
		Lines:        toCartLines(co.Lines),
		Total:        co.Total,
		TotalDisplay: domain.FormatPrice(co.Total),
		CreatedAt:    co.CreatedAt,
	}
}
