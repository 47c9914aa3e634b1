// Package dispatch implements per-plugin bounded concurrency, panic capture
// around handler invocation, and the type-erased dispatch thunk a built
// plugin installs so the sink cell can route an incoming envelope to the
// right typed handler.
package dispatch

import (
	"context"
	"time"

	"github.com/go-edge/edged/address"
)

// Permit is a counting semaphore with capacity K, configured globally via
// communication_buffer_size. One permit is held for the duration of one
// handler invocation.
type Permit struct {
	slots chan struct{}
}

// NewPermit returns a permit with capacity k. A non-positive k is treated
// as 1.
func NewPermit(k int) *Permit {
	if k <= 0 {
		k = 1
	}
	return &Permit{slots: make(chan struct{}, k)}
}

// InUse reports how many permits are currently held, for metrics.
func (p *Permit) InUse() int { return len(p.slots) }

// Capacity returns K.
func (p *Permit) Capacity() int { return cap(p.slots) }

// Acquire obtains a slot according to mode, returning a release function to
// call exactly once when the handler invocation completes. On failure
// (DontWait with no free slot, or WithTimeout elapsing first) it returns
// address.ErrSinkFull.
func (p *Permit) Acquire(ctx context.Context, mode address.WaitMode) (release func(), err error) {
	switch mode.Kind {
	case address.ModeDontWait:
		select {
		case p.slots <- struct{}{}:
			return p.releaseFunc(), nil
		default:
			return nil, address.ErrSinkFull
		}
	case address.ModeTimeout:
		t := time.NewTimer(mode.Timeout)
		defer t.Stop()
		select {
		case p.slots <- struct{}{}:
			return p.releaseFunc(), nil
		case <-t.C:
			return nil, address.ErrSinkFull
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	default: // ModeWait
		select {
		case p.slots <- struct{}{}:
			return p.releaseFunc(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Permit) releaseFunc() func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-p.slots
	}
}
