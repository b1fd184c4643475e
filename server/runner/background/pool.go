// Package background runs fire-and-forget work off the request path.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Submit after Drain has been called.
var ErrPoolClosed = errors.New("background pool is closed")

// Defaults.
const (
	DefaultWorkers     = 4
	DefaultTaskTimeout = 30 * time.Second
)

// Task is one unit of background work.
type Task = func(ctx context.Context) error

type job struct {
	name string
	ctx  context.Context
	fn   Task
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
	Pending   int   `json:"pending"`
}

// Pool executes tasks with bounded concurrency. Tasks start in the order
// they were submitted.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration

	mu     sync.Mutex
	queue  []job
	closed bool
	wake   chan struct{}

	// inflight counts queued and running tasks.
	inflight sync.WaitGroup
	stopped  chan struct{}

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithTaskTimeout bounds each task. Non-positive values are ignored.
func WithTaskTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPool starts a pool running at most workers tasks at once.
func NewPool(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: DefaultTaskTimeout,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.dispatch()
	return p
}

// Submit enqueues fn and returns immediately.
func (p *Pool) Submit(name string, fn Task) error {
	return p.SubmitContext(context.Background(), name, fn)
}

// SubmitContext enqueues fn carrying the values of ctx but not its
// cancellation, so the task outlives the request that scheduled it.
func (p *Pool) SubmitContext(ctx context.Context, name string, fn Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.rejected.Add(1)
		slog.Warn("background task rejected, pool closed", "task", name)
		return ErrPoolClosed
	}
	p.inflight.Add(1)
	p.queue = append(p.queue, job{name: name, ctx: context.WithoutCancel(ctx), fn: fn})
	p.mu.Unlock()

	p.submitted.Add(1)
	p.signal()
	return nil
}

func (p *Pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pool) dispatch() {
	defer close(p.stopped)
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			closed := p.closed
			p.mu.Unlock()
			if closed {
				return
			}
			<-p.wake
			continue
		}
		j := p.queue[0]
		p.queue[0] = job{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		// Background never cancels, so Acquire only returns once a slot frees.
		_ = p.sem.Acquire(context.Background(), 1)
		go func() {
			defer p.sem.Release(1)
			defer p.inflight.Done()
			p.run(j)
		}()
	}
}

func (p *Pool) run(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, p.timeout)
	defer cancel()
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				slog.Error("background task panicked",
					"task", j.name,
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()
		return j.fn(ctx)
	}()

	if err != nil {
		p.failed.Add(1)
		slog.Warn("background task failed",
			"task", j.name,
			"duration", time.Since(start),
			"error", err)
		return
	}
	p.completed.Add(1)
	slog.Debug("background task completed", "task", j.name, "duration", time.Since(start))
}

// Drain stops intake and waits for queued and running tasks, or for ctx.
func (p *Pool) Drain(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	pending := len(p.queue)
	p.mu.Unlock()
	p.signal()

	slog.Info("draining background pool", "pending", pending)

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		<-p.stopped
		close(done)
	}()

	select {
	case <-done:
		slog.Info("background pool drained")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "background pool drain interrupted")
	}
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	pending := len(p.queue)
	p.mu.Unlock()
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
		Pending:   pending,
	}
}
