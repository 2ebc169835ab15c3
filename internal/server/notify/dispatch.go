package notify

import (
	"context"
	"sync"
	"time"

	"github.com/tradexinvest/tradex/internal/logging"
)

// Dispatcher runs notifications off the request path. Each job is detached
// from the caller's cancellation and bounded by budget. Close waits for the
// jobs already started.
type Dispatcher struct {
	budget time.Duration
	log    logging.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(budget time.Duration, log logging.Logger) *Dispatcher {
	return &Dispatcher{budget: budget, log: log}
}

// Go starts fn in the background. A failure is logged under name; it never
// reaches the caller.
func (d *Dispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn(ctx, "dispatcher closed, notification dropped", "notification", name)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()

		jctx := ctx
		if d.budget > 0 {
			var cancel context.CancelFunc
			jctx, cancel = context.WithTimeout(ctx, d.budget)
			defer cancel()
		}
		if err := fn(jctx); err != nil {
			d.log.Error(ctx, "notification failed", "notification", name, "error", err)
		}
	}()
}

// Close stops accepting jobs and waits for the running ones.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}
