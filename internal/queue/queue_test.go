package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSubmitRunsAndReturnsValue(t *testing.T) {
	q := New(2, 0)
	defer q.Close()

	v, err := q.Submit(context.Background(), Normal, func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if v != "ok" {
		t.Fatalf("got %v", v)
	}
}

func TestHighPriorityRunsBeforeQueuedLow(t *testing.T) {
	q := New(1, 0)
	defer q.Close()

	block := make(chan struct{})
	var order []string
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Occupy the single worker so Low/High both queue up first.
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Submit(context.Background(), Normal, func(ctx context.Context) (interface{}, error) {
			<-block
			return nil, nil
		})
	}()

	time.Sleep(20 * time.Millisecond) // let the blocker claim the worker

	wg.Add(2)
	go func() {
		defer wg.Done()
		q.Submit(context.Background(), Low, func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			order = append(order, "low")
			mu.Unlock()
			return nil, nil
		})
	}()

	time.Sleep(10 * time.Millisecond)

	go func() {
		defer wg.Done()
		q.Submit(context.Background(), High, func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			order = append(order, "high")
			mu.Unlock()
			return nil, nil
		})
	}()

	time.Sleep(10 * time.Millisecond)
	close(block)
	wg.Wait()

	if len(order) != 2 || order[0] != "high" {
		t.Fatalf("expected high before low, got %v", order)
	}
}

func TestSubmitReturnsQueueFullError(t *testing.T) {
	q := New(1, 1)
	defer q.Close()

	block := make(chan struct{})
	defer close(block)

	go q.Submit(context.Background(), Normal, func(ctx context.Context) (interface{}, error) {
		<-block
		return nil, nil
	})
	time.Sleep(20 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := q.Submit(context.Background(), Normal, func(ctx context.Context) (interface{}, error) {
			return nil, nil
		})
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)

	_, err := q.Submit(context.Background(), Normal, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected queue-full error")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestConcurrencyCapIsRespected(t *testing.T) {
	q := New(3, 0)
	defer q.Close()

	var active, maxActive int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Submit(context.Background(), Normal, func(ctx context.Context) (interface{}, error) {
				mu.Lock()
				active++
				if active > int32(maxActive) {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(15 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil, nil
			})
		}()
	}

	wg.Wait()

	if maxActive > 3 {
		t.Fatalf("observed %d concurrent jobs, want <= 3", maxActive)
	}
}

func TestSubmitHonorsCancellation(t *testing.T) {
	q := New(1, 0)
	defer q.Close()

	block := make(chan struct{})
	defer close(block)
	go q.Submit(context.Background(), Normal, func(ctx context.Context) (interface{}, error) {
		<-block
		return nil, nil
	})
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Submit(ctx, Normal, func(ctx context.Context) (interface{}, error) {
		return "should not run", nil
	})
	if err == nil {
		t.Fatal("expected context-cancelled error")
	}
}
