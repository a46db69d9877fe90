package utils

import (
	"sync"
	"time"
)

// WorkerPool is the bounded-admission gate for source fetches: at most
// maxWorkers jobs run at once, and consecutive job starts are spaced by at
// least spacingMs. Admission is FIFO in Submit order; completion order is
// whatever it is. Each orchestration call owns its own pool — there is no
// process-wide admission state.
type WorkerPool struct {
	maxWorkers int
	spacingMs  int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	lastStart  time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency cap and
// start spacing.
func NewWorkerPool(maxWorkers, spacingMs int) *WorkerPool {
	return &WorkerPool{
		maxWorkers: maxWorkers,
		spacingMs:  spacingMs,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job. It blocks the caller until a slot frees up, which
// is what keeps admission FIFO in submission order.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.spaceStart()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// spaceStart delays this job so its start lands at least spacingMs after the
// previous job's start. Starts are staggered, not serialized: a job's run
// time does not push back the next start.
func (wp *WorkerPool) spaceStart() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.spacingMs) * time.Millisecond
	if !wp.lastStart.IsZero() {
		if elapsed := time.Since(wp.lastStart); elapsed < minInterval {
			time.Sleep(minInterval - elapsed)
		}
	}
	wp.lastStart = time.Now()
}
