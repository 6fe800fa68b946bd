package tasks

import (
	"context"
	"sync"
	"time"
)

// Repeater calls fn every interval on a single goroutine until stopped.
//
// Calls never overlap: a tick that arrives while fn is still running is
// dropped by the underlying [time.Ticker]. Stop may be called any number of
// times, from any goroutine, including from inside fn.
type Repeater struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// StartRepeater begins ticking. fn receives a context that is cancelled by [Repeater.Stop].
func StartRepeater(parent context.Context, interval time.Duration, fn func(ctx context.Context)) *Repeater {
	ctx, cancel := context.WithCancel(parent)
	r := &Repeater{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	return r
}

// Stop ends the repeater. It does not wait for a running call to return; use [Repeater.Done] for that.
func (r *Repeater) Stop() {
	r.once.Do(r.cancel)
}

// Done is closed once the ticking goroutine has exited.
func (r *Repeater) Done() <-chan struct{} {
	return r.done
}
