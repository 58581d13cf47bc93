package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// GET v1/products?q=query (200 OK, 503 Service unavailable when failed)
// GET v1/products/{id} (200 OK, 400 Bad request, 404 Not found)
// POST v1/products/sync?force=bool (200 OK, 400, 5xx keyed by error kind)

type ProductsHandler struct {
	catalog port.CatalogReader
	loader  port.CatalogLoader
}

func RegisterProducts(
	mux *http.ServeMux, catalog port.CatalogReader, loader port.CatalogLoader,
) {
	h := ProductsHandler{catalog, loader}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /v1/products/sync", h.SyncProducts)
}

func (h ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	s := h.catalog.State()
	ps := domain.SearchProducts(s.Products, r.URL.Query().Get("q"))

	status := http.StatusOK
	if s.Status == domain.StatusFailed {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, toCatalog(s, ps))
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	id, ok := pathInt(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid product id"})
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		log.Debug("failed to get product", "id", id, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

func (h ProductsHandler) SyncProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.SyncProducts"
	log := slog.With("op", op)

	var force bool
	if v := r.URL.Query().Get("force"); v != "" {
		var err error
		if force, err = strconv.ParseBool(v); err != nil {
			writeJSON(w, http.StatusBadRequest, Error{Error: "invalid force value"})
			return
		}
	}

	if err := h.loader.Load(r.Context(), force); err != nil {
		log.Error("failed to sync products", "force", force, "err", err)
		writeError(w, err)
		return
	}

	s := h.catalog.State()
	writeJSON(w, http.StatusOK, toCatalog(s, s.Products))
}
