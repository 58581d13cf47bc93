package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// GET v1/cart (200 OK)
// POST v1/cart/items JSON {"product_id": int, "quantity": int} (204 No content, 400, 404)
// PUT v1/cart/items/{product_id} JSON {"quantity": int} (204 No content, 400)
// DELETE v1/cart/items/{product_id} (204 No content)
// DELETE v1/cart (204 No content)
// POST v1/checkout (201 Created, 409 Conflict when the cart is empty)

type CartHandler struct {
	cart    port.CartManager
	catalog port.CatalogReader
}

func RegisterCart(
	mux *http.ServeMux, cart port.CartManager, catalog port.CatalogReader,
) {
	h := CartHandler{cart, catalog}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("DELETE /v1/cart", h.ClearCart)
	mux.HandleFunc("POST /v1/cart/items", h.AddItem)
	mux.HandleFunc("PUT /v1/cart/items/{product_id}", h.SetQuantity)
	mux.HandleFunc("DELETE /v1/cart/items/{product_id}", h.RemoveItem)
	mux.HandleFunc("POST /v1/checkout", h.Checkout)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCart(h.cart.State()))
}

// AddItem snapshots title, price and image of the cached product into the
// line.
func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var req AddItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid JSON data"})
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	p, err := h.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.cart.AddToCart(r.Context(), domain.CartLine{
		ProductID: p.ID,
		Quantity:  quantity,
		UnitPrice: p.Price,
		Title:     p.Title,
		ImageURL:  p.ImageURL,
	})
	if err != nil {
		log.Warn("failed to add item", "productID", p.ID, "err", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.SetQuantity"
	log := slog.With("op", op)

	productID, ok := pathInt(r, "product_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid product id"})
		return
	}

	var req SetQuantity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, Error{Error: "quantity is required"})
		return
	}

	if err := h.cart.UpdateQuantity(r.Context(), productID, *req.Quantity); err != nil {
		log.Warn("failed to update quantity", "productID", productID, "err", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveItem"
	log := slog.With("op", op)

	productID, ok := pathInt(r, "product_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid product id"})
		return
	}

	if err := h.cart.RemoveProduct(r.Context(), productID); err != nil {
		log.Warn("failed to remove item", "productID", productID, "err", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ClearCart"

	if err := h.cart.ClearCart(r.Context()); err != nil {
		slog.Warn("failed to clear cart", "op", op, "err", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Checkout"
	log := slog.With("op", op)

	co, err := h.cart.Checkout(r.Context())
	if err != nil {
		if !errors.Is(err, domain.ErrEmptyCart) {
			log.Error("failed to check out", "err", err)
		}
		writeError(w, err)
		return
	}

	log.Info("checked out", "checkoutID", co.ID)
	writeJSON(w, http.StatusCreated, toCheckout(co))
}
