// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

package rdap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/rdapify/rdapify/bootstrap"
	"github.com/rdapify/rdapify/internal/fetch"
	"github.com/rdapify/rdapify/internal/metrics"
	"github.com/rdapify/rdapify/internal/pool"
	"github.com/rdapify/rdapify/internal/queue"
	"github.com/rdapify/rdapify/internal/ratelimit"
	"github.com/rdapify/rdapify/internal/rcache"
	"github.com/rdapify/rdapify/internal/redact"
	"github.com/rdapify/rdapify/internal/rlog"
	"github.com/rdapify/rdapify/internal/schema"
	"github.com/rdapify/rdapify/internal/ssrf"
)

const defaultResponseCacheFile = "response-cache.json"

// Client composes the L0-L4 pipeline of §4 into the three public
// query operations. Construct one with NewClient; a Client is safe
// for concurrent use by multiple goroutines.
type Client struct {
	cfg clientConfig

	bootstrapClient *bootstrap.Client
	fetcher         *fetch.Fetcher
	connPool        *pool.Pool
	limiter         *ratelimit.Limiter
	guard           *ssrf.Guard

	domainCache *rcache.Cache[*schema.Domain]
	ipCache     *rcache.Cache[*schema.IPNetwork]
	asnCache    *rcache.Cache[*schema.Autnum]

	redactPolicy redact.Policy

	queue   *queue.Queue
	metrics *metrics.Collector
	logger  rlog.Logger

	closeOnce sync.Once
}

// NewClient builds a Client from the given options, applied over
// sane defaults. Construction never makes a network call; bootstrap
// and cache files are fetched lazily on first use.
func NewClient(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := rlog.New(cfg.logging.Level, cfg.logging.Enabled, nil)

	c := &Client{
		cfg:          cfg,
		connPool:     pool.New(cfg.pool.MaxConnectionsPerHost, cfg.pool.IdleTimeout, cfg.pool.KeepAlive),
		guard:        ssrf.NewGuard(cfg.allowPrivateIPs),
		redactPolicy: redact.DefaultPolicy(),
		metrics:      metrics.New(0),
		logger:       logger,
	}

	if cfg.rateLimit.Enabled {
		c.limiter = ratelimit.New(cfg.rateLimit.Max, cfg.rateLimit.Window)
	}

	c.fetcher = fetch.New(fetch.Config{
		Timeout:      cfg.timeout,
		MaxRedirects: 3,
		Auth:         cfg.auth,
		Proxy:        cfg.proxy,
		Compression:  cfg.compression,
		RateLimiter:  c.limiter,
		Pool:         c.connPool,
		Guard:        c.guard,
		Retry: fetch.RetryPolicy{
			Strategy:     cfg.retry.Strategy,
			MaxAttempts:  cfg.retry.MaxAttempts,
			InitialDelay: cfg.retry.InitialDelay,
			MaxDelay:     cfg.retry.MaxDelay,
		},
		Breaker: fetch.BreakerConfig{
			Enabled:   cfg.retry.CircuitBreaker.Enabled,
			Threshold: cfg.retry.CircuitBreaker.Threshold,
			Timeout:   cfg.retry.CircuitBreaker.Timeout,
		},
		Logger: logger,
	})

	bsClient := bootstrap.NewClient()
	if cfg.bootstrap.BaseURL != "" {
		u, err := url.Parse(cfg.bootstrap.BaseURL)
		if err != nil {
			return nil, &InvalidInputError{Kind: "option", Text: fmt.Sprintf("bad bootstrap base URL: %s", err)}
		}
		bsClient.BaseURL = u
	}
	if cfg.bootstrap.TTL > 0 {
		bsClient.Cache.SetTimeout(cfg.bootstrap.TTL)
	}
	c.bootstrapClient = bsClient

	if cfg.cache.Enabled {
		ttls := rcache.TTLConfig{Domain: cfg.cache.TTLDomain, IP: cfg.cache.TTLIP, ASN: cfg.cache.TTLASN}

		path := cfg.cache.Path
		if cfg.cache.Backend == CacheBackendFile && path == "" {
			p, err := defaultResponseCachePath()
			if err != nil {
				return nil, fmt.Errorf("rdap: resolving default cache path: %w", err)
			}
			path = p
		}

		c.domainCache = rcache.New(newCacheBackend[*schema.Domain](cfg.cache, path, logger), ttls)
		c.ipCache = rcache.New(newCacheBackend[*schema.IPNetwork](cfg.cache, path+".ip", logger), ttls)
		c.asnCache = rcache.New(newCacheBackend[*schema.Autnum](cfg.cache, path+".asn", logger), ttls)
	}

	if cfg.priority.Enabled {
		c.queue = queue.New(cfg.priority.Concurrency, cfg.priority.MaxPending)
	}

	return c, nil
}

func newCacheBackend[V any](cfg CacheOptions, path string, logger rlog.Logger) rcache.Backend[V] {
	if cfg.Backend == CacheBackendFile {
		return rcache.NewFileBackend[V](path, cfg.MaxSize, cfg.SnapshotInterval, logger)
	}
	return rcache.NewMemoryBackend[V](cfg.MaxSize)
}

func defaultResponseCachePath() (string, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".rdapify", defaultResponseCacheFile), nil
}

// Domain looks up the RDAP record for a DNS domain name.
func (c *Client) Domain(ctx context.Context, name string) (*Domain, error) {
	return domainQuery(ctx, c, queue.Normal, name)
}

// IP looks up the RDAP record for the IP network containing addr.
func (c *Client) IP(ctx context.Context, addr string) (*IPNetwork, error) {
	return ipQuery(ctx, c, queue.Normal, addr)
}

// ASN looks up the RDAP record for an Autonomous System Number.
func (c *Client) ASN(ctx context.Context, input string) (*Autnum, error) {
	return asnQuery(ctx, c, queue.Normal, input)
}

func domainQuery(ctx context.Context, c *Client, priority queue.Priority, name string) (*Domain, error) {
	if c.queue == nil {
		return c.domain(ctx, name)
	}
	v, err := c.queue.Submit(ctx, priority, func(ctx context.Context) (interface{}, error) {
		return c.domain(ctx, name)
	})
	if err != nil {
		return nil, queueSubmitErr(err, "domain", name)
	}
	return v.(*Domain), nil
}

func ipQuery(ctx context.Context, c *Client, priority queue.Priority, addr string) (*IPNetwork, error) {
	if c.queue == nil {
		return c.ip(ctx, addr)
	}
	v, err := c.queue.Submit(ctx, priority, func(ctx context.Context) (interface{}, error) {
		return c.ip(ctx, addr)
	})
	if err != nil {
		return nil, queueSubmitErr(err, "ip", addr)
	}
	return v.(*IPNetwork), nil
}

func asnQuery(ctx context.Context, c *Client, priority queue.Priority, input string) (*Autnum, error) {
	if c.queue == nil {
		return c.asn(ctx, input)
	}
	v, err := c.queue.Submit(ctx, priority, func(ctx context.Context) (interface{}, error) {
		return c.asn(ctx, input)
	})
	if err != nil {
		return nil, queueSubmitErr(err, "asn", input)
	}
	return v.(*Autnum), nil
}

// queueSubmitErr distinguishes an error raised by Submit itself
// (admission refusal or cancellation while queued) from an error
// returned by the orchestration it ran, which mapErr has already
// translated into a public error kind.
func queueSubmitErr(err error, kind, query string) error {
	var qErr *queue.Error
	if errors.As(err, &qErr) {
		return mapErr(err, kind, query, 0, 0)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return mapErr(err, kind, query, 0, 0)
	}
	return err
}

// Close stops accepting new orchestrations, drains the priority queue
// if enabled, snapshots the persistent cache, closes pooled
// connections, and stops background timers (§5).
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.queue != nil {
			c.queue.Close()
		}
		if c.limiter != nil {
			c.limiter.Close()
		}
		c.connPool.Close()
		if c.domainCache != nil {
			if e := c.domainCache.Close(); e != nil {
				err = e
			}
		}
		if c.ipCache != nil {
			if e := c.ipCache.Close(); e != nil {
				err = e
			}
		}
		if c.asnCache != nil {
			if e := c.asnCache.Close(); e != nil {
				err = e
			}
		}
	})
	return err
}

// Metrics returns the current aggregate query metrics (§4.14).
func (c *Client) Metrics() metrics.Aggregate {
	return c.metrics.Aggregates()
}

// MetricsSince returns aggregate query metrics for records at or after
// since (§4.14).
func (c *Client) MetricsSince(since time.Time) metrics.Aggregate {
	return c.metrics.AggregatesSince(since)
}
