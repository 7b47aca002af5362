package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrBacklogFull is returned when the task backlog has no room left
	ErrBacklogFull = errors.New("executor backlog is full")

	// ErrShutdown is returned when submitting to a stopped pool
	ErrShutdown = errors.New("executor is shut down")
)

// Result carries a finished task's value or error
type Result struct {
	Value interface{}
	Err   error
}

// Future delivers the result of a submitted task
type Future struct {
	ch chan Result
}

// Wait blocks until the task finishes or the context is done
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case res := <-f.ch:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Config holds executor pool configuration
type Config struct {
	Logger  *slog.Logger
	Workers int
	Backlog int
}

type task struct {
	fn     func() (interface{}, error)
	future *Future
}

// Pool runs submitted tasks on a fixed number of worker goroutines with
// a bounded backlog. Tasks beyond the backlog capacity are rejected.
type Pool struct {
	logger   *slog.Logger
	tasks    chan task
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewPool creates and starts an executor pool
func NewPool(cfg *Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = 100
	}

	p := &Pool{
		logger:   cfg.Logger,
		tasks:    make(chan task, backlog),
		stopChan: make(chan struct{}),
	}

	p.logger.Info("Spawning executor pool",
		slog.Int("workers", workers),
		slog.Int("backlog", backlog),
	)

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}

	return p
}

// workerLoop is the main processing loop for each worker goroutine
func (p *Pool) workerLoop(workerNum int) {
	defer p.wg.Done()

	workerName := fmt.Sprintf("ocr-exec-%d", workerNum)
	p.logger.Debug("Executor worker started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-p.stopChan:
			p.logger.Debug("Executor worker stopping",
				slog.String("worker_name", workerName),
			)
			return

		case t, ok := <-p.tasks:
			if !ok {
				return
			}

			value, err := t.fn()
			t.future.ch <- Result{Value: value, Err: err}
		}
	}
}

// Submit hands a task to the pool and returns a future for its result.
// A full backlog rejects the task with ErrBacklogFull.
func (p *Pool) Submit(fn func() (interface{}, error)) (*Future, error) {
	select {
	case <-p.stopChan:
		return nil, ErrShutdown
	default:
	}

	future := &Future{ch: make(chan Result, 1)}

	select {
	case p.tasks <- task{fn: fn, future: future}:
		return future, nil
	default:
		p.logger.Warn("Executor backlog full, rejecting task")
		return nil, ErrBacklogFull
	}
}

// Shutdown stops the workers after the tasks already picked up finish.
// Queued tasks that were never picked up are dropped.
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping executor pool")
		close(p.stopChan)
	})
	p.wg.Wait()
}
