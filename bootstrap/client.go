// OpenRDAP
// Copyright 2017 Tom Harwood
// MIT License, see the LICENSE file.

// Package bootstrap implements the L2 bootstrap registry of §4.8:
// discovering the authoritative RDAP server for a domain, IP address,
// or ASN from IANA's published Service Registry files
// (https://data.iana.org/rdap).
//
// A Client caches each registry file in memory (or on disk, via
// cache.DiskCache) and refreshes it lazily: a lookup against a stale
// cache entry is served immediately from the stale copy while a
// refresh runs in the background; a lookup with no cached copy at all
// blocks on a synchronous download.
//
// This package also implements the experimental Service Provider
// registry (entity-tag bootstrapping), kept internal and reachable
// only through Client.ServiceProvider — spec.md's query model has no
// entity key, so this is support infrastructure, not a fourth public
// query kind.
package bootstrap

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rdapify/rdapify/bootstrap/cache"
)

// A RegistryType represents a bootstrap registry type.
type RegistryType int

const (
	DNS RegistryType = iota
	IPv4
	IPv6
	ASN
	ServiceProvider
)

const (
	// DefaultBaseURL is the default location of the Service Registry files.
	DefaultBaseURL = "https://data.iana.org/rdap/"

	// DefaultCacheTimeout matches spec.md's default bootstrapTtl of 24h.
	DefaultCacheTimeout = time.Hour * 24

	experimentalBaseURL = "https://www.openrdap.org/rdap/"

	// backgroundRefreshTimeout bounds an async refresh triggered by a
	// stale-cache lookup; it runs detached from the caller's context.
	backgroundRefreshTimeout = 30 * time.Second
)

// Error is bootstrap's own classification of a lookup failure. The
// orchestrator maps Reason onto the root errs.BootstrapError; kept
// separate here to avoid an import cycle with the root package.
type Error struct {
	Reason string // "download", "parse", "no-match", "unavailable"
	Text   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bootstrap: %s: %s: %s", e.Reason, e.Text, e.Err)
	}
	return fmt.Sprintf("bootstrap: %s: %s", e.Reason, e.Text)
}

func (e *Error) Unwrap() error { return e.Err }

// Client implements an RDAP bootstrap client.
//
// Create a Client using NewClient().
type Client struct {
	HTTP    *http.Client        // HTTP client.
	BaseURL *url.URL            // Base URL of the Service Registry files. Default is DefaultBaseURL.
	Cache   cache.RegistryCache // Service Registry cache. Default is a MemoryCache.

	mu         sync.Mutex
	registries map[RegistryType]Registry
	refreshing map[RegistryType]bool
}

// A Registry implements bootstrap lookups.
type Registry interface {
	Lookup(input string) (*Result, error)
}

// Result represents the result of bootstrapping a single query.
type Result struct {
	// Query looked up in the registry, after any canonicalisation
	// performed to match the Service Registry's data format (e.g.
	// lowercasing of domain names, removal of "AS" from AS numbers).
	Query string

	// Matching service entry. Empty string if no match.
	Entry string

	// List of RDAP base URLs.
	URLs []*url.URL
}

// NewClient creates a new bootstrap.Client.
func NewClient() *Client {
	c := &Client{
		HTTP:       &http.Client{},
		Cache:      cache.NewMemoryCache(),
		registries: make(map[RegistryType]Registry),
		refreshing: make(map[RegistryType]bool),
	}

	c.BaseURL, _ = url.Parse(DefaultBaseURL)
	c.Cache.SetTimeout(DefaultCacheTimeout)

	return c
}

// Download downloads a single bootstrap registry file and refreshes
// the matching Registry.
func (c *Client) Download(ctx context.Context, registry RegistryType) error {
	json, reg, err := c.fetch(ctx, registry)
	if err != nil {
		return err
	}

	if err := c.Cache.Save(registry.Filename(), json); err != nil {
		return &Error{Reason: "download", Text: "saving to cache", Err: err}
	}

	c.mu.Lock()
	c.registries[registry] = reg
	c.mu.Unlock()

	return nil
}

func (c *Client) fetch(ctx context.Context, registry RegistryType) ([]byte, Registry, error) {
	u, err := url.Parse(registry.Filename())
	if err != nil {
		return nil, nil, &Error{Reason: "download", Text: "building URL", Err: err}
	}

	var fetchURL *url.URL
	if registry == ServiceProvider && c.BaseURL.String() == DefaultBaseURL {
		experimentalURL, _ := url.Parse(experimentalBaseURL)
		fetchURL = experimentalURL.ResolveReference(u)
	} else {
		fetchURL = c.BaseURL.ResolveReference(u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL.String(), nil)
	if err != nil {
		return nil, nil, &Error{Reason: "download", Text: fetchURL.String(), Err: err}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, &Error{Reason: "download", Text: fetchURL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &Error{Reason: "download", Text: fetchURL.String(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return body, nil, &Error{Reason: "download", Text: fmt.Sprintf("%s returned %d", fetchURL, resp.StatusCode)}
	}

	reg, err := newRegistry(registry, body)
	if err != nil {
		return body, nil, &Error{Reason: "parse", Text: registry.Filename(), Err: err}
	}

	return body, reg, nil
}

func (c *Client) reloadFromCache(registry RegistryType) error {
	body, err := c.Cache.Load(registry.Filename())
	if err != nil {
		return &Error{Reason: "download", Text: "loading from cache", Err: err}
	}

	reg, err := newRegistry(registry, body)
	if err != nil {
		return &Error{Reason: "parse", Text: registry.Filename(), Err: err}
	}

	c.mu.Lock()
	c.registries[registry] = reg
	c.mu.Unlock()

	return nil
}

func newRegistry(registry RegistryType, json []byte) (Registry, error) {
	switch registry {
	case ASN:
		return NewASNRegistry(json)
	case DNS:
		return NewDNSRegistry(json)
	case IPv4:
		return NewNetRegistry(json, 4)
	case IPv6:
		return NewNetRegistry(json, 6)
	case ServiceProvider:
		return NewServiceProviderRegistry(json)
	default:
		return nil, fmt.Errorf("bootstrap: unknown registry type %d", registry)
	}
}

// lookup implements the lazy-refresh contract of §4.8: an absent cache
// entry blocks on a synchronous download; a stale entry is served from
// cache (or disk) while a background refresh runs detached.
func (c *Client) lookup(ctx context.Context, registry RegistryType, input string) (*Result, error) {
	state := c.Cache.State(registry.Filename())

	c.mu.Lock()
	have := c.registries[registry] != nil
	c.mu.Unlock()

	switch {
	case state == cache.Absent && !have:
		if err := c.Download(ctx, registry); err != nil {
			return nil, err
		}

	case (state == cache.Expired || state == cache.ShouldReload) && have:
		c.triggerBackgroundRefresh(registry)

	case !have:
		if err := c.reloadFromCache(registry); err != nil {
			if err := c.Download(ctx, registry); err != nil {
				return nil, err
			}
		}
	}

	c.mu.Lock()
	reg := c.registries[registry]
	c.mu.Unlock()

	if reg == nil {
		return nil, &Error{Reason: "unavailable", Text: registry.Filename()}
	}

	return reg.Lookup(input)
}

// triggerBackgroundRefresh starts at most one concurrent refresh per
// registry type, detached from the caller's context.
func (c *Client) triggerBackgroundRefresh(registry RegistryType) {
	c.mu.Lock()
	if c.refreshing[registry] {
		c.mu.Unlock()
		return
	}
	c.refreshing[registry] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.refreshing[registry] = false
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()
		_ = c.Download(ctx, registry)
	}()
}

// DiscoverDomain returns the RDAP base URL for domain d (§4.8).
func (c *Client) DiscoverDomain(ctx context.Context, d string) (string, error) {
	return c.discover(ctx, DNS, d)
}

// DiscoverIPv4 returns the RDAP base URL for an IPv4 address or CIDR.
func (c *Client) DiscoverIPv4(ctx context.Context, addr string) (string, error) {
	return c.discover(ctx, IPv4, addr)
}

// DiscoverIPv6 returns the RDAP base URL for an IPv6 address or CIDR.
func (c *Client) DiscoverIPv6(ctx context.Context, addr string) (string, error) {
	return c.discover(ctx, IPv6, addr)
}

// DiscoverASN returns the RDAP base URL for an AS number.
func (c *Client) DiscoverASN(ctx context.Context, n string) (string, error) {
	return c.discover(ctx, ASN, n)
}

func (c *Client) discover(ctx context.Context, registry RegistryType, input string) (string, error) {
	result, err := c.lookup(ctx, registry, input)
	if err != nil {
		return "", err
	}

	if len(result.URLs) == 0 {
		return "", &Error{Reason: "no-match", Text: input}
	}

	return selectURL(result.URLs, input), nil
}

// selectURL picks one RDAP base URL from a list of equivalents: https
// is preferred over http; among same-scheme candidates, a stable hash
// of key picks the same server on every call so repeated queries for
// the same key benefit from keep-alive and upstream response caching.
func selectURL(urls []*url.URL, key string) string {
	pool := filterScheme(urls, "https")
	if len(pool) == 0 {
		pool = urls
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	idx := int(h.Sum32() % uint32(len(pool)))

	return strings.TrimSuffix(pool[idx].String(), "/")
}

func filterScheme(urls []*url.URL, scheme string) []*url.URL {
	var out []*url.URL
	for _, u := range urls {
		if u.Scheme == scheme {
			out = append(out, u)
		}
	}
	return out
}

// Filename returns the JSON document filename: one of
// {asn,dns,ipv4,ipv6,service_provider}.json.
func (r RegistryType) Filename() string {
	switch r {
	case ASN:
		return "asn.json"
	case DNS:
		return "dns.json"
	case IPv4:
		return "ipv4.json"
	case IPv6:
		return "ipv6.json"
	case ServiceProvider:
		return "service_provider.json"
	default:
		panic("bootstrap: unknown RegistryType")
	}
}

// ASN returns the current ASN Registry (nil if never downloaded).
// Never initiates a network transfer.
func (c *Client) ASN() *ASNRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, _ := c.registries[ASN].(*ASNRegistry)
	return s
}

// DNS returns the current DNS Registry (nil if never downloaded).
func (c *Client) DNS() *DNSRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, _ := c.registries[DNS].(*DNSRegistry)
	return s
}

// IPv4 returns the current IPv4 Registry (nil if never downloaded).
func (c *Client) IPv4() *NetRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, _ := c.registries[IPv4].(*NetRegistry)
	return s
}

// IPv6 returns the current IPv6 Registry (nil if never downloaded).
func (c *Client) IPv6() *NetRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, _ := c.registries[IPv6].(*NetRegistry)
	return s
}

// ServiceProvider returns the current ServiceProvider Registry (nil
// if never downloaded).
func (c *Client) ServiceProvider() *ServiceProviderRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, _ := c.registries[ServiceProvider].(*ServiceProviderRegistry)
	return s
}
