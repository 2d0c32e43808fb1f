// Package probe checks whether sponsor URLs resolve to a reachable resource.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/artpar/sponsors/internal/core/domain"
	"github.com/hashicorp/go-cleanhttp"
)

// Result is the outcome of a probe that completed.
type Result struct {
	// Reachable is true iff the HEAD response status was exactly 200.
	Reachable bool

	// URL is the normalized URL that was probed.
	URL string
}

// Prober checks URL reachability.
// A non-nil error means the probe could not execute (malformed URL, DNS,
// refused connection, TLS, timeout); it is never reported as Reachable=false.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (Result, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, rawURL string) (Result, error)

// Probe calls f(ctx, rawURL).
func (f ProberFunc) Probe(ctx context.Context, rawURL string) (Result, error) {
	return f(ctx, rawURL)
}

// =============================================================================
// HTTP Prober
// =============================================================================

// Config configures the HTTP prober.
type Config struct {
	// Timeout bounds a single probe, including connection setup.
	// Default: 10 seconds.
	Timeout time.Duration

	// UserAgent is sent with every probe.
	UserAgent string

	// Transport overrides the pooled transport. Used by tests.
	Transport http.RoundTripper
}

// DefaultConfig returns the default probe configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:   10 * time.Second,
		UserAgent: "sponsors-probe/1.0",
	}
}

// HTTPProber issues HEAD requests without following redirects.
type HTTPProber struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPProber creates a prober.
func NewHTTPProber(cfg Config, logger *slog.Logger) *HTTPProber {
	defaults := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = cleanhttp.DefaultPooledTransport()
	}

	return &HTTPProber{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
		logger:    logger.With("component", "probe"),
	}
}

// Probe normalizes rawURL and checks it with a HEAD request.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) (Result, error) {
	url := domain.NormalizeURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Result{URL: url}, fmt.Errorf("create probe request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", "url", url, "error", err)
		return Result{URL: url}, fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()

	p.logger.Debug("probe completed", "url", url, "status", resp.StatusCode)
	return Result{
		Reachable: resp.StatusCode == http.StatusOK,
		URL:       url,
	}, nil
}
