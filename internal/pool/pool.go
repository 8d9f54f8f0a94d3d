// Package pool implements the L1 connection pool (§4.4): reusable
// keep-alive transports grouped by origin, with per-host caps and idle
// eviction. The pool only multiplexes sockets; it has no opinion on
// auth, compression, or retry.
package pool

import (
	"net/http"
	"sync"
	"time"
)

// Stats reports the pool's current shape.
type Stats struct {
	Total  int
	Active int
	Idle   int
	Hosts  int
}

type originEntry struct {
	transport *http.Transport
	active    int
	lastUsed  time.Time
}

// Pool grants reusable *http.Transport values per origin
// (scheme://host:port).
type Pool struct {
	maxConnsPerHost int
	idleTimeout     time.Duration
	keepAlive       bool

	mu      sync.Mutex
	origins map[string]*originEntry

	stopEvictor chan struct{}
	closeOnce   sync.Once
}

// New creates a Pool. maxConnsPerHost <= 0 means unlimited.
func New(maxConnsPerHost int, idleTimeout time.Duration, keepAlive bool) *Pool {
	p := &Pool{
		maxConnsPerHost: maxConnsPerHost,
		idleTimeout:     idleTimeout,
		keepAlive:       keepAlive,
		origins:         make(map[string]*originEntry),
		stopEvictor:     make(chan struct{}),
	}

	if idleTimeout > 0 {
		go p.runEvictor()
	}

	return p
}

// Borrow returns the transport for origin (creating one if needed) and
// a release function the caller must call once the response body has
// been fully consumed.
func (p *Pool) Borrow(origin string) (*http.Transport, func()) {
	p.mu.Lock()
	e, ok := p.origins[origin]
	if !ok {
		e = &originEntry{transport: p.newTransport()}
		p.origins[origin] = e
	}
	e.active++
	e.lastUsed = time.Now()
	p.mu.Unlock()

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		p.mu.Lock()
		e.active--
		e.lastUsed = time.Now()
		p.mu.Unlock()
	}

	return e.transport, release
}

func (p *Pool) newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if p.maxConnsPerHost > 0 {
		t.MaxConnsPerHost = p.maxConnsPerHost
		t.MaxIdleConnsPerHost = p.maxConnsPerHost
	}
	t.DisableKeepAlives = !p.keepAlive
	if p.idleTimeout > 0 {
		t.IdleConnTimeout = p.idleTimeout
	}
	return t
}

// Stats reports the pool's current shape across all origins.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s Stats
	s.Hosts = len(p.origins)
	for _, e := range p.origins {
		s.Active += e.active
		if e.active == 0 {
			s.Idle++
		}
		s.Total++
	}
	return s
}

func (p *Pool) runEvictor() {
	ticker := time.NewTicker(p.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.evictIdle()
		case <-p.stopEvictor:
			return
		}
	}
}

func (p *Pool) evictIdle() {
	cutoff := time.Now().Add(-p.idleTimeout)

	p.mu.Lock()
	defer p.mu.Unlock()

	for origin, e := range p.origins {
		if e.active == 0 && e.lastUsed.Before(cutoff) {
			e.transport.CloseIdleConnections()
			delete(p.origins, origin)
		}
	}
}

// Close stops the idle evictor and closes all pooled connections.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.stopEvictor)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.origins {
		e.transport.CloseIdleConnections()
	}
}
