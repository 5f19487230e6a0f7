// Package queue serializes reconciliation triggers per location key while
// keeping distinct keys fully parallel.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"stock-reconciler/internal/core"
)

// Handler performs one reconciliation run for a key. It is invoked by
// exactly one goroutine per key at a time.
type Handler func(ctx context.Context, key core.LocationKey)

// Dispatcher fans incoming triggers out to one single-consumer worker per
// active location key. Within a key, runs are strictly serialized; across
// keys they proceed concurrently. Each key buffers at most capacity pending
// triggers; overflow triggers are rejected and the caller is told.
type Dispatcher struct {
	capacity int
	idleTTL  time.Duration
	handler  Handler
	logger   *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[core.LocationKey]chan struct{}

	enqueued  atomic.Uint64
	processed atomic.Uint64
	rejected  atomic.Uint64
}

// NewDispatcher constructs a Dispatcher. capacity bounds the pending-trigger
// queue per key; workers for keys idle longer than a minute are reaped.
func NewDispatcher(capacity int, handler Handler, logger *logrus.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = 64
	}
	return &Dispatcher{
		capacity: capacity,
		idleTTL:  time.Minute,
		handler:  handler,
		logger:   logger,
		pending:  make(map[core.LocationKey]chan struct{}),
	}
}

// Start arms the dispatcher. Must be called before Enqueue.
func (d *Dispatcher) Start(parent context.Context) {
	d.ctx, d.cancel = context.WithCancel(parent)
}

// Stop cancels all workers and waits for in-flight runs to finish.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// Enqueue registers a reconciliation trigger for key. Returns false when the
// key's pending queue is full or the dispatcher is shutting down; the event
// source decides whether to retry.
func (d *Dispatcher) Enqueue(key core.LocationKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil || d.ctx.Err() != nil {
		return false
	}

	ch, ok := d.pending[key]
	if !ok {
		ch = make(chan struct{}, d.capacity)
		d.pending[key] = ch
		d.wg.Add(1)
		go d.worker(key, ch)
	}

	select {
	case ch <- struct{}{}:
		d.enqueued.Add(1)
		return true
	default:
		d.rejected.Add(1)
		d.logger.WithField("key", key.String()).Warn("trigger queue full, rejecting")
		return false
	}
}

// worker drains one key's trigger queue. Single consumer per key is what
// guarantees at-most-one concurrent reconciliation for that key.
func (d *Dispatcher) worker(key core.LocationKey, ch chan struct{}) {
	defer d.wg.Done()
	idle := time.NewTimer(d.idleTTL)
	defer idle.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ch:
			d.handler(d.ctx, key)
			d.processed.Add(1)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.idleTTL)
		case <-idle.C:
			d.mu.Lock()
			if len(ch) == 0 {
				delete(d.pending, key)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			idle.Reset(d.idleTTL)
		}
	}
}

// Metrics returns trigger counters and the number of live per-key workers.
func (d *Dispatcher) Metrics() (enqueued, processed, rejected uint64, workers int) {
	d.mu.Lock()
	workers = len(d.pending)
	d.mu.Unlock()
	return d.enqueued.Load(), d.processed.Load(), d.rejected.Load(), workers
}
