package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// A Product is a catalog entry cached in the local store.
//
// Shape and Size are optional, empty means absent.
type Product struct {
	ID          int
	Title       string
	Description string
	Price       float64
	ImageURL    string
	Shape       string
	Size        string
	Stock       int
}

// productJSON is the wire form of the seed asset and the remote payload.
type productJSON struct {
	ID          *int     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Shape       *string  `json:"shape"`
	Size        *string  `json:"size"`
	Stock       *int     `json:"stock"`
}

// ParseProducts decodes a JSON array of products.
//
// Every failure wraps [ErrJSONParse]: malformed JSON, a record without id or
// price, a negative price, a duplicated id or an empty list.
func ParseProducts(data []byte) ([]Product, error) {
	const op = "domain.ParseProducts"

	var raw []productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrJSONParse, err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w: payload holds no products", op, ErrJSONParse)
	}

	seen := make(map[int]struct{}, len(raw))
	ps := make([]Product, 0, len(raw))
	for i, r := range raw {
		p, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w: %w", op, i, ErrJSONParse, err)
		}
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf(
				"%s: %w: duplicated product id %d", op, ErrJSONParse, p.ID,
			)
		}
		seen[p.ID] = struct{}{}
		ps = append(ps, p)
	}
	return ps, nil
}

func (r productJSON) toDomain() (p Product, err error) {
	if r.ID == nil {
		return p, fmt.Errorf("missing id")
	}
	if r.Price == nil {
		return p, fmt.Errorf("missing price")
	}
	if *r.Price < 0 {
		return p, fmt.Errorf("negative price %v", *r.Price)
	}

	p.ID = *r.ID
	p.Title = r.Title
	p.Description = r.Description
	p.Price = *r.Price
	p.ImageURL = r.ImageURL
	if r.Shape != nil {
		p.Shape = *r.Shape
	}
	if r.Size != nil {
		p.Size = *r.Size
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	return p, nil
}

// SearchProducts returns the products whose title or description contains
// query, ignoring case. A blank query returns ps unchanged.
func SearchProducts(ps []Product, query string) []Product {
	query = strings.TrimSpace(query)
	if query == "" {
		return ps
	}

	q := strings.ToLower(query)
	found := make([]Product, 0, len(ps))
	for _, p := range ps {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			found = append(found, p)
		}
	}
	return found
}
