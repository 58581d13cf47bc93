// Package remote fetches the product catalog from the storefront API.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

var _ port.RemoteSource = (*ProductsClient)(nil)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	maxPayloadSize     = 8 << 20
)

var (
	ErrPayloadTooLarge = errors.New("payload too large")

	errServer = errors.New("server error")
)

// A Prober reports whether a network path to addr exists.
type Prober func(ctx context.Context, addr string) error

type Opt func(*ProductsClient) error

// TimeoutOpt sets the timeout of a single request and of the probe.
func TimeoutOpt(d time.Duration) Opt {
	return func(c *ProductsClient) error {
		if d <= 0 {
			return fmt.Errorf("invalid timeout %s", d)
		}
		c.client.Timeout = d
		return nil
	}
}

func MaxAttemptsOpt(n int) Opt {
	return func(c *ProductsClient) error {
		if n <= 0 {
			return fmt.Errorf("invalid max attempts %d", n)
		}
		c.retryCfg.MaxAttempts = n
		return nil
	}
}

func BackoffOpt(b retry.Backoff) Opt {
	return func(c *ProductsClient) error {
		c.retryCfg.Backoff = b
		return nil
	}
}

func ProberOpt(p Prober) Opt {
	return func(c *ProductsClient) error {
		if p == nil {
			return errors.New("prober is nil")
		}
		c.probe = p
		return nil
	}
}

func HTTPClientOpt(cl *http.Client) Opt {
	return func(c *ProductsClient) error {
		if cl == nil {
			return errors.New("http client is nil")
		}
		client := *cl
		client.Timeout = c.client.Timeout
		c.client = &client
		return nil
	}
}

// ProductsClient gets the JSON product list served at a URL.
type ProductsClient struct {
	url      string
	addr     string
	client   *http.Client
	probe    Prober
	retryCfg retry.RetryConfig
}

func NewProductsClient(rawURL string, opts ...Opt) (*ProductsClient, error) {
	const op = "NewProductsClient"

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid url %q", op, rawURL)
	}

	c := &ProductsClient{
		url:    u.String(),
		addr:   hostPort(u),
		client: &http.Client{Timeout: defaultTimeout},
		probe:  dialProbe,
		retryCfg: retry.RetryConfig{
			MaxAttempts: defaultMaxAttempts,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
			ShouldRetry: shouldRetry,
		},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return c, nil
}

// FetchProducts checks the network path first; a missing path is reported
// as [domain.ErrConnectivity] without issuing the request.
func (c *ProductsClient) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductsClient.FetchProducts"
	log := slog.With("op", op, "url", c.url)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.client.Timeout)
	err := c.probe(probeCtx, c.addr)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrConnectivity, err)
	}

	data, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		return c.get(ctx)
	})
	if err != nil {
		if ctx.Err() == nil && isNetErr(err) {
			err = fmt.Errorf("%w: %w", domain.ErrConnectivity, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := domain.ParseProducts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("remote catalog fetched", "products", len(ps))
	return ps, nil
}

func (c *ProductsClient) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %s", errServer, res.Status)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status: %s", res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxPayloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPayloadSize {
		return nil, fmt.Errorf("%w: over %d bytes", ErrPayloadTooLarge, maxPayloadSize)
	}
	return data, nil
}

func shouldRetry(err error) bool {
	return errors.Is(err, errServer) || isNetErr(err)
}

func isNetErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func dialProbe(ctx context.Context, addr string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}
