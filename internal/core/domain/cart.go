package domain

import (
	"strconv"
	"time"
)

// A CartLine holds one product in the cart.
//
// UnitPrice, Title and ImageURL are snapshotted when the line is created and
// survive later catalog refreshes.
type CartLine struct {
	ProductID int
	Quantity  int
	UnitPrice float64
	Title     string
	ImageURL  string
}

// Subtotal returns UnitPrice × Quantity.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type Cart struct {
	Lines []CartLine
	Total float64
}

// NewCart builds a cart from a fresh line set, the total is never patched
// incrementally.
func NewCart(lines []CartLine) Cart {
	var total float64
	for _, l := range lines {
		total += l.Subtotal()
	}
	if lines == nil {
		lines = []CartLine{}
	}
	return Cart{Lines: lines, Total: total}
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Line returns the line for productID.
func (c Cart) Line(productID int) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// A Checkout is the cart snapshot taken when the user pays.
type Checkout struct {
	ID        string
	Lines     []CartLine
	Total     float64
	CreatedAt time.Time
}

// FormatPrice renders v with two fixed decimals, 0.1+0.2 renders as "0.30".
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
