package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rdapify/rdapify/internal/pool"
	"github.com/rdapify/rdapify/internal/ratelimit"
	"github.com/rdapify/rdapify/internal/rlog"
	"github.com/rdapify/rdapify/internal/ssrf"
	"github.com/rdapify/rdapify/internal/transport"
)

const acceptHeader = "application/rdap+json, application/json;q=0.8"

// Stats reports what Fetch actually did, for the caller's metrics
// collector (§4.14).
type Stats struct {
	Attempts     int
	Origin       string
	EncodedBytes int64
	DecodedBytes int64
	StatusCode   int
}

// Config wires the resource subsystems a Fetcher draws on. All fields
// are shared across many Fetch calls and must be safe for concurrent
// use.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int

	Auth        transport.Auth
	Proxy       *transport.Proxy
	Compression transport.Compression

	RateLimiter *ratelimit.Limiter
	Pool        *pool.Pool
	Guard       *ssrf.Guard

	Retry   RetryPolicy
	Breaker BreakerConfig

	Logger rlog.Logger
}

// DefaultConfig returns sane, conservative defaults for standalone use.
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		MaxRedirects: 3,
		Compression:  transport.DefaultCompression(),
		Retry:        DefaultRetryPolicy(),
		Breaker:      DefaultBreakerConfig(),
		Logger:       rlog.Nop(),
	}
}

// Fetcher performs a single outbound RDAP GET per §4.6, composing the
// SSRF guard, rate limiter, connection pool, auth/proxy/compression,
// retry strategy, and circuit breaker.
type Fetcher struct {
	cfg     Config
	breaker *BreakerRegistry
}

// New builds a Fetcher from cfg. Guard, RateLimiter, and Pool may be
// nil, in which case that concern is skipped (useful for tests that
// exercise only the retry/breaker path).
func New(cfg Config) *Fetcher {
	return &Fetcher{cfg: cfg, breaker: NewBreakerRegistry(cfg.Breaker)}
}

// Fetch performs GET rawURL, returning the decoded response body and
// stats, or a classified *Error describing why it failed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, Stats, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, Stats{}, &Error{Kind: "protocol", Err: err, Retryable: false}
	}
	origin := u.Scheme + "://" + u.Host

	var stats Stats
	stats.Origin = origin

	body, err := f.breaker.Execute(origin, func() ([]byte, error) {
		var attemptErr error
		var result []byte

		retryErr := Do(ctx, f.cfg.Retry, func(n int) error {
			stats.Attempts = n
			b, fetchErr := f.attempt(ctx, u, origin, &stats)
			if fetchErr != nil {
				attemptErr = fetchErr
				return fetchErr
			}
			result = b
			return nil
		})

		if retryErr != nil {
			if attemptErr != nil {
				return nil, attemptErr
			}
			return nil, &Error{Kind: "transport", Err: retryErr, Retryable: true}
		}
		return result, nil
	})

	if err != nil {
		f.cfg.Logger.Warn("fetch failed", err, map[string]string{"origin": origin})
		return nil, stats, err
	}

	return body, stats, nil
}

func (f *Fetcher) attempt(ctx context.Context, u *url.URL, origin string, stats *Stats) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, &Error{Kind: "cancelled", Err: ctx.Err(), Retryable: false}
	}

	if f.cfg.Guard != nil {
		if err := f.cfg.Guard.CheckHost(ctx, u.Hostname()); err != nil {
			return nil, &Error{Kind: "ssrf", Err: err, Retryable: false}
		}
	}

	if f.cfg.RateLimiter != nil {
		if err := f.cfg.RateLimiter.Acquire(origin); err != nil {
			retryAfter := time.Second
			var rlErr *ratelimit.Error
			if errors.As(err, &rlErr) {
				retryAfter = rlErr.RetryAfter
			}
			return nil, &Error{Kind: "rate_limited", RetryAfter: retryAfter, Err: err, Retryable: true}
		}
	}

	var tr http.RoundTripper = http.DefaultTransport
	var release func()
	if f.cfg.Pool != nil {
		var t *http.Transport
		t, release = f.cfg.Pool.Borrow(origin)
		tr = t
		defer release()
	}
	if f.cfg.Proxy != nil {
		tr = &proxyRoundTripper{next: tr, proxy: f.cfg.Proxy}
	}

	redirectLoop := false
	client := &http.Client{
		Transport: tr,
		Timeout:   f.cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.redirectLimit() {
				return fmt.Errorf("rdap: too many redirects")
			}
			for _, v := range via {
				if v.URL.String() == req.URL.String() {
					redirectLoop = true
					return fmt.Errorf("rdap: redirect loop detected")
				}
			}
			if f.cfg.Guard != nil {
				if err := f.cfg.Guard.CheckHost(req.Context(), req.URL.Hostname()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Kind: "protocol", Err: err, Retryable: false}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Encoding", f.cfg.Compression.AcceptEncoding())
	f.cfg.Auth.Apply(req)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: "cancelled", Err: ctx.Err(), Retryable: false}
		}
		if redirectLoop {
			return nil, &Error{Kind: "protocol", Err: err, Retryable: false}
		}
		return nil, &Error{Kind: "transport", Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	stats.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Kind: "not_found", StatusCode: resp.StatusCode, Retryable: false}

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{
			Kind:       "rate_limited",
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Retryable:  true,
		}

	case resp.StatusCode >= 500:
		return nil, &Error{Kind: "transport", StatusCode: resp.StatusCode, Retryable: true}

	case resp.StatusCode >= 400:
		return nil, &Error{Kind: "protocol", StatusCode: resp.StatusCode, Retryable: false}
	}

	decoded, decStats, err := transport.Decode(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, &Error{Kind: "protocol", Err: err, Retryable: false}
	}
	stats.EncodedBytes = decStats.EncodedBytes
	stats.DecodedBytes = decStats.DecodedBytes

	return decoded, nil
}

// proxyRoundTripper routes requests through the configured proxy
// unless the target host matches a bypass pattern (§4.5). SSRF rules
// are enforced upstream in attempt/CheckRedirect against the ultimate
// target regardless of which path this takes.
type proxyRoundTripper struct {
	next  http.RoundTripper
	proxy *transport.Proxy
}

func (p *proxyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if p.proxy == nil || p.proxy.Bypasses(req.URL.Hostname()) {
		return p.next.RoundTrip(req)
	}

	proxyURL, err := p.proxy.URL()
	if err != nil {
		return nil, err
	}

	if t, ok := p.next.(*http.Transport); ok {
		clone := t.Clone()
		clone.Proxy = http.ProxyURL(proxyURL)
		return clone.RoundTrip(req)
	}

	return p.next.RoundTrip(req)
}

func (f *Fetcher) redirectLimit() int {
	if f.cfg.MaxRedirects > 0 {
		return f.cfg.MaxRedirects
	}
	return 3
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
