package remote_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/remote"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `[
	{"id": 1, "title": "Sourdough", "price": 6.5},
	{"id": 2, "title": "Croissant", "price": 2.75, "stock": 4}
]`

func newClient(t *testing.T, url string, opts ...remote.Opt) *remote.ProductsClient {
	t.Helper()
	opts = append([]remote.Opt{
		remote.BackoffOpt(retry.LineareBackoff(time.Millisecond)),
		remote.TimeoutOpt(time.Second),
	}, opts...)
	c, err := remote.NewProductsClient(url, opts...)
	require.NoError(t, err)
	return c
}

func TestFetchProducts(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(payload))
			},
		))
		defer srv.Close()

		ps, err := newClient(t, srv.URL).FetchProducts(t.Context())
		require.NoError(t, err)
		require.Len(t, ps, 2)
		assert.Equal(t, 4, ps[1].Stock)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				_, _ = w.Write([]byte(payload))
			},
		))
		defer srv.Close()

		ps, err := newClient(t, srv.URL).FetchProducts(t.Context())
		require.NoError(t, err)
		assert.Len(t, ps, 2)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("ClientErrorIsNotRetried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusNotFound)
			},
		))
		defer srv.Close()

		_, err := newClient(t, srv.URL).FetchProducts(t.Context())
		require.Error(t, err)
		assert.EqualValues(t, 1, calls.Load())
		assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"products": []}`))
			},
		))
		defer srv.Close()

		_, err := newClient(t, srv.URL).FetchProducts(t.Context())
		require.ErrorIs(t, err, domain.ErrJSONParse)
	})

	t.Run("PayloadTooLarge", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = w.Write(bytes.Repeat([]byte(" "), 9<<20))
			},
		))
		defer srv.Close()

		_, err := newClient(t, srv.URL).FetchProducts(t.Context())
		require.ErrorIs(t, err, remote.ErrPayloadTooLarge)
		assert.NotErrorIs(t, err, domain.ErrJSONParse)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("CustomHTTPClient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(payload))
			},
		))
		defer srv.Close()

		cl := &http.Client{}
		ps, err := newClient(t, srv.URL, remote.HTTPClientOpt(cl)).
			FetchProducts(t.Context())
		require.NoError(t, err)
		assert.Len(t, ps, 2)
		assert.Zero(t, cl.Timeout, "caller's client is left as is")
	})

	t.Run("NoNetworkPath", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) { calls.Add(1) },
		))
		defer srv.Close()

		probe := remote.ProberOpt(func(context.Context, string) error {
			return errors.New("network is unreachable")
		})
		_, err := newClient(t, srv.URL, probe).FetchProducts(t.Context())
		require.ErrorIs(t, err, domain.ErrConnectivity)
		assert.Equal(t, domain.KindConnectivity, domain.KindOf(err))
		assert.Zero(t, calls.Load())
	})

	t.Run("ServerGone", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newClient(t, url).FetchProducts(t.Context())
		require.ErrorIs(t, err, domain.ErrConnectivity)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := newClient(t, "http://localhost:1").FetchProducts(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, domain.ErrConnectivity)
	})
}

func TestNewProductsClient(t *testing.T) {
	_, err := remote.NewProductsClient("ftp://example.com/products.json")
	assert.Error(t, err)

	_, err = remote.NewProductsClient("https://example.com/products.json",
		remote.MaxAttemptsOpt(0))
	assert.Error(t, err)
}
