package scheduler

import (
	"sync"

	"github.com/communeos/bridgenet/pkg/logging"
)

// workerPool runs recompute jobs on a fixed set of goroutines. No locks are
// held while a job runs; jobs operate on immutable snapshots and commit
// through the store's optimistic path.
type workerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // protects taskQueue from concurrent close during send
	closed    bool
	log       logging.Logger
}

func newWorkerPool(workers int, log logging.Logger) *workerPool {
	if workers <= 0 {
		workers = 1
	}
	pool := &workerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		log:       log,
	}
	pool.start()
	return pool
}

func (wp *workerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *workerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// Recover from panics in jobs to keep the worker alive.
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.log.Error("recompute job panic recovered", logging.Any("panic", r))
				}
			}()
			task()
		}()
	}
}

// submit adds a task to the pool. Returns false if the pool is closed.
func (wp *workerPool) submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// close shuts the pool down and waits for in-flight jobs.
func (wp *workerPool) close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
