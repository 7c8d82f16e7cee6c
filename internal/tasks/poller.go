package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/vgen/internal/shared"
)

// FetchFunc retrieves one snapshot of a polled resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Poller repeatedly fetches a resource and hands every result to a callback.
//
// Fetches are strictly serial: the next fetch is not issued until the previous result has been delivered.
// A failed fetch goes to onError and polling continues.
// Stop may be called any number of times, from any goroutine, including from inside a callback.
type Poller[T any] struct {
	fetch      FetchFunc[T]
	interval   time.Duration
	onSnapshot func(T)
	onError    func(error)

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	stopped atomic.Bool
	trigger chan struct{}
	done    chan struct{}
}

// NewPoller builds a stopped poller. A nil onError discards failures.
func NewPoller[T any](fetch FetchFunc[T], interval time.Duration, onSnapshot func(T), onError func(error)) *Poller[T] {
	if onSnapshot == nil {
		onSnapshot = func(T) {}
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Poller[T]{
		fetch:      fetch,
		interval:   interval,
		onSnapshot: onSnapshot,
		onError:    onError,
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Start issues the first fetch immediately and then one every interval.
//
// Calling Start on a running poller is a no-op; a stopped poller cannot be restarted.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Load() {
		return shared.ErrPollerStopped
	}
	if p.started {
		return nil
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
	return nil
}

// Trigger requests an immediate fetch. It never overlaps an in-flight fetch:
// a trigger received mid-fetch runs as soon as that fetch is delivered.
func (p *Poller[T]) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the timer and any in-flight fetch. A result that arrives after Stop is dropped.
func (p *Poller[T]) Stop() {
	if p.stopped.Swap(true) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	if !p.started {
		close(p.done)
	}
}

// Stopped reports whether Stop has been called.
func (p *Poller[T]) Stopped() bool { return p.stopped.Load() }

// Done is closed once the polling goroutine has exited.
func (p *Poller[T]) Done() <-chan struct{} { return p.done }

func (p *Poller[T]) run(ctx context.Context) {
	defer close(p.done)

	timer := time.NewTimer(p.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		if p.stopped.Load() || ctx.Err() != nil {
			return
		}
		result, err := p.fetch(ctx)
		if p.stopped.Load() || ctx.Err() != nil {
			return
		}
		if err != nil {
			p.onError(err)
		} else {
			p.onSnapshot(result)
		}
		if p.stopped.Load() {
			return
		}

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.trigger:
			timer.Stop()
		}
	}
}
