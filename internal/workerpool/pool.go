// Package workerpool runs short tasks on a fixed set of goroutines.
package workerpool

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/urraka/volumeicon/internal/logging"
)

var log = logging.L("workerpool")

var (
	ErrQueueFull = errors.New("workerpool: queue full")
	ErrStopped   = errors.New("workerpool: stopped")
)

// Task is a unit of work. ctx is cancelled when Shutdown's deadline passes.
type Task func(ctx context.Context)

// Pool is a bounded goroutine pool with a fixed-size task queue.
type Pool struct {
	queue     chan Task
	wg        sync.WaitGroup
	mu        sync.RWMutex
	accepting bool
	active    atomic.Int32
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a pool with workers goroutines and a task queue of queueSize.
func New(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:     make(chan Task, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		accepting: true,
	}

	for i := 0; i < workers; i++ {
		go p.worker()
	}

	log.Debug("worker pool started", "workers", workers, "queueSize", queueSize)
	return p
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.accepting {
		return ErrStopped
	}

	// wg.Add before enqueue so Shutdown cannot miss the task.
	p.wg.Add(1)
	select {
	case p.queue <- task:
		return nil
	default:
		p.wg.Done()
		return ErrQueueFull
	}
}

// Active returns the number of tasks currently running.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Shutdown stops accepting tasks and waits for queued and running tasks.
// When ctx expires first, running tasks see their context cancelled and
// Shutdown returns ctx.Err(). Safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.accepting = false
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("worker pool shutdown timed out", "active", p.Active())
		p.cancel()
		err = ctx.Err()
	}

	p.closeOnce.Do(func() {
		p.cancel()
		close(p.queue)
	})
	return err
}

func (p *Pool) worker() {
	for task := range p.queue {
		p.run(task)
	}
}

// run executes one task with panic recovery. wg.Done matches the wg.Add in
// Submit.
func (p *Pool) run(task Task) {
	defer p.wg.Done()
	p.active.Add(1)
	defer p.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task(p.ctx)
}
