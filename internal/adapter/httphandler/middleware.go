package httphandler

import (
	"log/slog"
	"mime"
	"net/http"
	"time"
)

// AllowJSON rejects request bodies that are not application/json.
func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// LogRequests logs every request at debug level.
func LogRequests(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request served",
			"op", "httphandler.LogRequests",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	}
	return http.HandlerFunc(hf)
}
