package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
)

// writeJSON writes v with status. Encoding failures are only logged, the
// header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "httphandler.writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

// writeError maps err to a status code. Server side failures carry the
// error kind instead of the message.
func writeError(w http.ResponseWriter, err error) {
	for _, e := range clientErrors {
		if errors.Is(err, e.err) {
			writeJSON(w, e.status, Error{Error: e.err.Error()})
			return
		}
	}

	kind := domain.KindOf(err)
	status := statusOfKind(kind)
	writeJSON(w, status, Error{Error: http.StatusText(status), Kind: kind.String()})
}

var clientErrors = []struct {
	err    error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrInvalidQuantity, http.StatusBadRequest},
	{domain.ErrEmptyCart, http.StatusConflict},
}

func statusOfKind(k domain.ErrorKind) int {
	switch k {
	case domain.KindConnectivity:
		return http.StatusServiceUnavailable
	case domain.KindJSONParse, domain.KindAssetLoad:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	return v, err == nil
}
