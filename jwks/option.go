package jwks

import (
	"net/http"
	"time"
)

// CacheOption configures a SimpleJwksCache.
type CacheOption func(*SimpleJwksCache)

// WithFetcher swaps the Fetcher used for JWKS retrieval.
func WithFetcher(f Fetcher) CacheOption {
	return func(c *SimpleJwksCache) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithPenaltyBox swaps the PenaltyBox gating refreshes.
func WithPenaltyBox(p PenaltyBox) CacheOption {
	return func(c *SimpleJwksCache) {
		if p != nil {
			c.penaltyBox = p
		}
	}
}

// WithLogger attaches a logger to the cache.
func WithLogger(l Logger) CacheOption {
	return func(c *SimpleJwksCache) {
		c.logger = l
	}
}

// WithEvents attaches instrumentation callbacks to the cache.
func WithEvents(e Events) CacheOption {
	return func(c *SimpleJwksCache) {
		c.events = e
	}
}

// FetcherOption configures a SimpleFetcher.
type FetcherOption func(*SimpleFetcher)

// WithHTTPClient swaps the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *SimpleFetcher) {
		if client != nil {
			f.Client = client
		}
	}
}

// WithMaxResponseBytes sets the response body size ceiling.
func WithMaxResponseBytes(n int64) FetcherOption {
	return func(f *SimpleFetcher) {
		if n > 0 {
			f.MaxResponseBytes = n
		}
	}
}

// PenaltyBoxOption configures a SimplePenaltyBox.
type PenaltyBoxOption func(*SimplePenaltyBox)

// WithWaitDuration sets how long a URI stays in the penalty box.
func WithWaitDuration(d time.Duration) PenaltyBoxOption {
	return func(p *SimplePenaltyBox) {
		if d > 0 {
			p.waitDuration = d
		}
	}
}

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) PenaltyBoxOption {
	return func(p *SimplePenaltyBox) {
		if now != nil {
			p.now = now
		}
	}
}
