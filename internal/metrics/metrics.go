// Package metrics implements the L4 metrics collector of §4.14: a
// bounded ring buffer of per-query records, with aggregate and
// windowed views computed on read.
package metrics

import (
	"sync"
	"time"
)

// defaultCapacity matches §4.14's "bounded ring buffer (default 10000
// records)".
const defaultCapacity = 10000

// Record is one completed query's outcome.
type Record struct {
	Kind       string // "domain", "ip", "asn"
	Outcome    string // "success" or an error kind
	DurationMs int64
	CacheHit   bool
	ErrorKind  string // empty on success
	Timestamp  time.Time
}

// Aggregate summarizes a set of Records.
type Aggregate struct {
	Total           int
	Successful      int
	Failed          int
	SuccessRate     float64
	AvgResponseTime float64
	CacheHitRate    float64
	QueriesByType   map[string]int
	ErrorsByType    map[string]int
}

// Collector stores the most recent Records in a fixed-capacity ring
// buffer; once full, each Record overwrites the oldest.
type Collector struct {
	mu       sync.Mutex
	records  []Record
	next     int
	count    int
	capacity int
}

// New creates a Collector. capacity<=0 selects defaultCapacity.
func New(capacity int) *Collector {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Collector{
		records:  make([]Record, capacity),
		capacity: capacity,
	}
}

// Record appends r, evicting the oldest record once the buffer is
// full.
func (c *Collector) Record(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[c.next] = r
	c.next = (c.next + 1) % c.capacity
	if c.count < c.capacity {
		c.count++
	}
}

// Aggregates returns an Aggregate over every record currently held.
func (c *Collector) Aggregates() Aggregate {
	return c.aggregateSince(time.Time{})
}

// AggregatesSince returns an Aggregate over records with Timestamp >=
// since.
func (c *Collector) AggregatesSince(since time.Time) Aggregate {
	return c.aggregateSince(since)
}

func (c *Collector) aggregateSince(since time.Time) Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()

	agg := Aggregate{
		QueriesByType: make(map[string]int),
		ErrorsByType:  make(map[string]int),
	}

	var totalDuration int64
	var cacheHits int

	for i := 0; i < c.count; i++ {
		r := c.records[i]
		if r.Timestamp.Before(since) {
			continue
		}

		agg.Total++
		agg.QueriesByType[r.Kind]++
		totalDuration += r.DurationMs

		if r.CacheHit {
			cacheHits++
		}

		if r.ErrorKind == "" {
			agg.Successful++
		} else {
			agg.Failed++
			agg.ErrorsByType[r.ErrorKind]++
		}
	}

	if agg.Total > 0 {
		agg.SuccessRate = float64(agg.Successful) / float64(agg.Total)
		agg.AvgResponseTime = float64(totalDuration) / float64(agg.Total)
		agg.CacheHitRate = float64(cacheHits) / float64(agg.Total)
	}

	return agg
}

// Reset clears all recorded data.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make([]Record, c.capacity)
	c.next = 0
	c.count = 0
}
