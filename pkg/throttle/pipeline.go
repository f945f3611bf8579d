// Package throttle runs a fetch function over an ordered list of keys with a
// minimum spacing between calls and a deadline per call.
package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrTimeout is the outcome error of a call that missed its deadline.
var ErrTimeout = errors.New("call timed out")

// DefaultTimeout applies when Options.Timeout is not positive.
const DefaultTimeout = 5 * time.Second

// FetchFunc performs one call for a key.
type FetchFunc[K, V any] func(ctx context.Context, key K) (V, error)

type Options struct {
	// Interval is the minimum time between two issued calls.
	Interval time.Duration
	// Timeout bounds each call, measured from its issuance.
	Timeout time.Duration
	Clock   clockwork.Clock
}

// Outcome is the result for one key. Err is ErrTimeout when the deadline won.
type Outcome[K, V any] struct {
	Key   K
	Value V
	Err   error
}

func (o Outcome[K, V]) TimedOut() bool {
	return errors.Is(o.Err, ErrTimeout)
}

type Pipeline[K, V any] struct {
	fetch    FetchFunc[K, V]
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
}

func New[K, V any](fetch FetchFunc[K, V], opts Options) *Pipeline[K, V] {
	if opts.Interval < 0 {
		opts.Interval = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline[K, V]{
		fetch:    fetch,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		clock:    opts.Clock,
	}
}

// Run attempts every key once, in order, and emits one outcome per key in the
// same order. The channel is buffered for all keys so pacing never waits on
// the consumer, and it is closed after the last outcome or when ctx is done.
//
// A call that misses its deadline is abandoned, not cancelled; its late
// result is dropped.
func (p *Pipeline[K, V]) Run(ctx context.Context, keys []K) <-chan Outcome[K, V] {
	out := make(chan Outcome[K, V], len(keys))

	go func() {
		defer close(out)

		var lastIssued time.Time
		for i, key := range keys {
			if i > 0 {
				if wait := p.interval - p.clock.Since(lastIssued); wait > 0 {
					if !p.sleep(ctx, wait) {
						return
					}
				}
			}
			if ctx.Err() != nil {
				return
			}

			lastIssued = p.clock.Now()
			outcome, ok := p.call(ctx, key)
			if !ok {
				return
			}
			out <- outcome
		}
	}()

	return out
}

func (p *Pipeline[K, V]) call(ctx context.Context, key K) (Outcome[K, V], bool) {
	result := make(chan Outcome[K, V], 1)
	go func() {
		value, err := p.fetch(ctx, key)
		result <- Outcome[K, V]{Key: key, Value: value, Err: err}
	}()

	deadline := p.clock.NewTimer(p.timeout)
	defer deadline.Stop()

	select {
	case outcome := <-result:
		return outcome, true
	case <-deadline.Chan():
		return Outcome[K, V]{Key: key, Err: ErrTimeout}, true
	case <-ctx.Done():
		return Outcome[K, V]{}, false
	}
}

func (p *Pipeline[K, V]) sleep(ctx context.Context, d time.Duration) bool {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}
