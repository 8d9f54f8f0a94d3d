package metrics

import (
	"testing"
	"time"
)

func TestAggregatesComputesRatesAndAverages(t *testing.T) {
	c := New(10)
	now := time.Now()

	c.Record(Record{Kind: "domain", DurationMs: 100, Timestamp: now})
	c.Record(Record{Kind: "domain", DurationMs: 200, CacheHit: true, Timestamp: now})
	c.Record(Record{Kind: "ip", DurationMs: 300, ErrorKind: "not_found", Timestamp: now})

	agg := c.Aggregates()

	if agg.Total != 3 {
		t.Fatalf("Total = %d", agg.Total)
	}
	if agg.Successful != 2 || agg.Failed != 1 {
		t.Fatalf("Successful=%d Failed=%d", agg.Successful, agg.Failed)
	}
	if agg.QueriesByType["domain"] != 2 || agg.QueriesByType["ip"] != 1 {
		t.Fatalf("QueriesByType = %+v", agg.QueriesByType)
	}
	if agg.ErrorsByType["not_found"] != 1 {
		t.Fatalf("ErrorsByType = %+v", agg.ErrorsByType)
	}
	if agg.AvgResponseTime != 200 {
		t.Fatalf("AvgResponseTime = %v", agg.AvgResponseTime)
	}
	if agg.SuccessRate < 0.666 || agg.SuccessRate > 0.667 {
		t.Fatalf("SuccessRate = %v", agg.SuccessRate)
	}
	if agg.CacheHitRate < 0.333 || agg.CacheHitRate > 0.334 {
		t.Fatalf("CacheHitRate = %v", agg.CacheHitRate)
	}
}

func TestRingBufferEvictsOldest(t *testing.T) {
	c := New(2)

	c.Record(Record{Kind: "domain", Timestamp: time.Now()})
	c.Record(Record{Kind: "ip", Timestamp: time.Now()})
	c.Record(Record{Kind: "asn", Timestamp: time.Now()})

	agg := c.Aggregates()
	if agg.Total != 2 {
		t.Fatalf("expected ring buffer capped at 2, got %d", agg.Total)
	}
	if agg.QueriesByType["domain"] != 0 {
		t.Fatalf("expected oldest (domain) record evicted, got %+v", agg.QueriesByType)
	}
}

func TestAggregatesSinceFiltersOlderRecords(t *testing.T) {
	c := New(10)

	old := time.Now().Add(-time.Hour)
	recent := time.Now()

	c.Record(Record{Kind: "domain", Timestamp: old})
	c.Record(Record{Kind: "ip", Timestamp: recent})

	agg := c.AggregatesSince(recent.Add(-time.Minute))
	if agg.Total != 1 {
		t.Fatalf("expected 1 recent record, got %d", agg.Total)
	}
	if agg.QueriesByType["ip"] != 1 {
		t.Fatalf("got %+v", agg.QueriesByType)
	}
}

func TestAggregatesOnEmptyCollector(t *testing.T) {
	c := New(10)
	agg := c.Aggregates()

	if agg.Total != 0 || agg.SuccessRate != 0 || agg.AvgResponseTime != 0 {
		t.Fatalf("expected zero-valued Aggregate, got %+v", agg)
	}
}

func TestReset(t *testing.T) {
	c := New(10)
	c.Record(Record{Kind: "domain", Timestamp: time.Now()})
	c.Reset()

	if c.Aggregates().Total != 0 {
		t.Fatal("expected Reset to clear all records")
	}
}
