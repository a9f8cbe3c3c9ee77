// Package remote fetches the transactions document over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"rewards/internal/core"
	"rewards/internal/source"
)

// DefaultMaxBodyBytes caps the fetched document.
const DefaultMaxBodyBytes int64 = 32 << 20

// Config holds retry parameters for one Load.
type Config struct {
	// MaxRetries is the number of extra attempts after the first (default: 0)
	MaxRetries int

	// InitialBackoff doubles after every failed attempt (default: 200ms)
	InitialBackoff time.Duration

	// MaxBodyBytes caps the response body (default: 32 MiB)
	MaxBodyBytes int64
}

// Source GETs a JSON array of transactions from a URL on every Load.
type Source struct {
	client *http.Client
	url    string
	cfg    Config
}

var _ source.TransactionSource = (*Source)(nil)

// New returns a source for url. A nil client uses a client with a 10s timeout.
func New(client *http.Client, url string, cfg Config) *Source {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Source{client: client, url: url, cfg: cfg}
}

func (s *Source) Name() string { return "http:" + s.url }

// Load fetches and decodes the document. Transport failures and 5xx
// responses are retried with exponential backoff; client errors and
// malformed documents are returned at once.
func (s *Source) Load(ctx context.Context) ([]core.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		txs, retry, err := s.fetch(ctx)
		if err == nil {
			return txs, nil
		}
		lastErr = err
		if !retry {
			break
		}

		if attempt < s.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff(s.cfg.InitialBackoff, attempt)):
			}
		}
	}
	return nil, lastErr
}

func (s *Source) fetch(ctx context.Context) ([]core.Transaction, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, true, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("%w: %s returned status %d", source.ErrSourceUnavailable, s.url, resp.StatusCode)
		return nil, resp.StatusCode >= http.StatusInternalServerError, err
	}

	txs, err := source.Decode(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("read %s: %w", s.url, err)
	}
	return txs, false, nil
}

// backoff returns base*2^attempt plus up to half of that as jitter.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << attempt
	if half := int64(d / 2); half > 0 {
		d += time.Duration(rand.Int64N(half))
	}
	return d
}
