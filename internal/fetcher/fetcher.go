package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/filterdedup/internal/models"
)

// Defaults applied by New for zero config values
const (
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3
	DefaultBackoff   = 2 * time.Second
	DefaultUserAgent = "filterdedup/1.0"
)

// ErrNotRetryable marks responses that are not worth another attempt
var ErrNotRetryable = errors.New("not retryable")

// notRetryableStatus are answered once and given up on
var notRetryableStatus = map[int]bool{
	http.StatusForbidden:          true,
	http.StatusNotFound:           true,
	http.StatusServiceUnavailable: true,
}

// Fetcher downloads filter lists or reads them from disk
type Fetcher struct {
	client    *http.Client
	log       *zap.Logger
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	userAgent string
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// New creates a new fetcher from config
func New(cfg models.HTTPConfig, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		log:       zap.NewNop(),
		timeout:   cfg.Timeout,
		retries:   cfg.Retries,
		backoff:   cfg.Backoff,
		userAgent: cfg.UserAgent,
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.retries <= 0 {
		f.retries = DefaultRetries
	}
	if f.backoff <= 0 {
		f.backoff = DefaultBackoff
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsRemote reports whether identifier is fetched over HTTP
func IsRemote(identifier string) bool {
	return strings.HasPrefix(identifier, "http:") || strings.HasPrefix(identifier, "https:")
}

// Fetch returns the content behind identifier, an http(s) URL or a local
// file path. URLs are retried with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) ([]byte, error) {
	if !IsRemote(identifier) {
		data, err := os.ReadFile(identifier)
		if err != nil {
			return nil, fmt.Errorf("reading local list: %w", err)
		}
		return data, nil
	}

	var lastErr error
	delay := f.backoff

	for i := 0; i < f.retries; i++ {
		if i > 0 {
			f.log.Info("retrying fetch",
				zap.String("url", identifier),
				zap.Int("attempt", i+1),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		data, err := f.doFetch(ctx, identifier)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if errors.Is(err, ErrNotRetryable) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.log.Warn("fetch attempt failed",
			zap.String("url", identifier),
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", f.retries),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", f.retries, lastErr)
}

// FetchContent is Fetch with failures logged and reported as nil content
func (f *Fetcher) FetchContent(ctx context.Context, identifier string) []byte {
	data, err := f.Fetch(ctx, identifier)
	if err != nil {
		f.log.Error("fetch failed", zap.String("source", identifier), zap.Error(err))
		return nil
	}
	return data
}

func (f *Fetcher) doFetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRetryable, err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if notRetryableStatus[resp.StatusCode] {
		return nil, fmt.Errorf("%w: HTTP %d", ErrNotRetryable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
