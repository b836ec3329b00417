package dte

import (
	"context"
	"time"
)

// rendezvous is the binary signal a command issuer blocks on until the
// bound DCE reports (from inside the reader goroutine's dispatch) that
// the expected response was consumed. Modeled as a size-1 buffered
// channel rather than sync.Cond: Signal becomes a non-blocking send and
// Wait becomes a select against a timer, with no explicit lock needed.
type rendezvous struct {
	ch chan struct{}
}

func newRendezvous() *rendezvous {
	return &rendezvous{ch: make(chan struct{}, 1)}
}

// Signal releases a waiting caller. A signal with nobody waiting and the
// channel already full is dropped, mirroring a binary semaphore's give
// returning failure when already given.
func (r *rendezvous) Signal() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Signal is called, ctx is cancelled, or timeout
// elapses, whichever comes first. It returns ErrCommandTimeout on timeout
// or ctx.Err() on cancellation.
func (r *rendezvous) Wait(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.ch:
		return nil
	case <-timer.C:
		return ErrCommandTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain empties any pending, unconsumed signal. Used before a new send
// starts, so a stale signal from a prior, already-timed-out command can't
// be mistaken for this command's completion.
func (r *rendezvous) drain() {
	select {
	case <-r.ch:
	default:
	}
}
