package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsEverySubmittedJob(t *testing.T) {
	pool := NewWorkerPool(4, 0)

	var done int64
	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	if done != 50 {
		t.Errorf("completed %d jobs; want 50", done)
	}
}

func TestWorkerPoolHonorsConcurrencyCap(t *testing.T) {
	const limit = 3
	pool := NewWorkerPool(limit, 0)

	var running, peak int64
	var mu sync.Mutex

	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			now := atomic.AddInt64(&running, 1)
			mu.Lock()
			if now > peak {
				peak = now
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > limit {
		t.Errorf("observed %d concurrent jobs; cap is %d", peak, limit)
	}
}

func TestWorkerPoolSpacesJobStarts(t *testing.T) {
	spacingMs := 50
	pool := NewWorkerPool(2, spacingMs)

	var mu sync.Mutex
	var starts []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(starts) != 3 {
		t.Fatalf("recorded %d starts; want 3", len(starts))
	}

	// Starts are spaced even though two slots are free at once.
	min := time.Duration(spacingMs) * time.Millisecond
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		if gap < min-5*time.Millisecond {
			t.Errorf("gap between start %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolFirstJobStartsImmediately(t *testing.T) {
	pool := NewWorkerPool(1, 500)

	begin := time.Now()
	var started time.Time
	pool.Submit(func() { started = time.Now() })
	pool.Wait()

	if started.Sub(begin) > 100*time.Millisecond {
		t.Errorf("first job delayed %v; spacing must not apply before the first start", started.Sub(begin))
	}
}
