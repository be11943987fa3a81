// Package effect runs external-effect requests off the reasoning loop.
// Rule processing never calls out directly: a request is queued onto a
// bounded channel, pool workers execute the registered handler under a
// rate limit, and the handler's result re-enters the engine as an ordinary
// task on a later cycle.
package effect

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/nal/task"
)

// Request is one queued external-effect invocation. Handler names the
// registered handler; Goal is the task that triggered it.
type Request struct {
	ID      string
	Handler string
	Goal    *task.Task
}

// Handler executes one external effect. The returned task, if non-nil, is
// fed back into the engine through the sink. Handlers run on pool workers
// and must respect ctx cancellation for long calls.
type Handler func(ctx context.Context, r Request) (*task.Task, error)

// Sink receives handler results. The engine wires this to InputTask.
type Sink func(*task.Task)

// Options sizes the dispatcher pool.
type Options struct {
	Workers   int
	QueueSize int
	// RatePerSecond caps handler executions across the pool. Zero means
	// unlimited.
	RatePerSecond float64
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 2
	}
	if o.QueueSize < 1 {
		o.QueueSize = 64
	}
	return o
}

// Dispatcher owns the request queue and worker pool. Register handlers and
// the sink before Start; Submit is safe from the engine's cycle at any
// point after Start.
type Dispatcher struct {
	log      *zap.SugaredLogger
	opts     Options
	requests chan Request
	limiter  *rate.Limiter

	mu       sync.RWMutex
	handlers map[string]Handler
	sink     Sink

	startOnce sync.Once
	wg        sync.WaitGroup
	done      chan struct{}
}

// NewDispatcher builds a stopped dispatcher.
func NewDispatcher(opts Options, log *zap.SugaredLogger) *Dispatcher {
	opts = opts.withDefaults()
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	return &Dispatcher{
		log:      log,
		opts:     opts,
		requests: make(chan Request, opts.QueueSize),
		limiter:  rate.NewLimiter(limit, 1),
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
}

// Register installs the handler for a name, replacing any previous one.
func (d *Dispatcher) Register(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// HasHandler reports whether a handler is registered under the name.
func (d *Dispatcher) HasHandler(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[name]
	return ok
}

// SetSink wires where handler results are delivered.
func (d *Dispatcher) SetSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = s
}

// Start launches the worker pool. Workers exit when ctx cancels; in-flight
// handlers finish first. Start is idempotent.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.opts.Workers; i++ {
			d.wg.Add(1)
			go d.worker(ctx)
		}
		go func() {
			d.wg.Wait()
			close(d.done)
		}()
	})
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	<-d.done
}

// Submit enqueues a request without blocking. A full queue drops the
// request with ErrQueueFull; the caller may retry on a later cycle.
func (d *Dispatcher) Submit(r Request) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	select {
	case d.requests <- r:
		return nil
	default:
		return errors.Wrapf(errors.ErrQueueFull, "effect request %s for %s", r.ID, r.Handler)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-d.requests:
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
			d.handle(ctx, r)
		}
	}
}

// handle runs one request with panic isolation: a defective handler must
// not take down its worker.
func (d *Dispatcher) handle(ctx context.Context, r Request) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Warnw("effect handler panicked",
				"request", r.ID, "handler", r.Handler, "panic", fmt.Sprint(rec))
		}
	}()

	d.mu.RLock()
	h := d.handlers[r.Handler]
	sink := d.sink
	d.mu.RUnlock()

	if h == nil {
		d.log.Warnw("no handler for effect request", "request", r.ID, "handler", r.Handler)
		return
	}
	result, err := h(ctx, r)
	if err != nil {
		d.log.Warnw("effect handler failed",
			"request", r.ID, "handler", r.Handler, "error", err)
		return
	}
	if result != nil && sink != nil {
		sink(result)
	}
}
