package address

import (
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by ReplyReceiver.WaitForReply when the deadline
// elapses before a reply arrives.
var ErrTimeout = errors.New("address: reply timed out")

// ErrSendSideClosed is returned by ReplyReceiver.WaitForReply when the
// handler dropped its ReplySender without calling Reply.
var ErrSendSideClosed = errors.New("address: reply sender closed without replying")

// ReplySender is handed to a handler; it is linear — exactly one call to
// Reply, or a drop, is the contract. Only the first call to Reply takes
// effect; later calls are silently ignored.
type ReplySender[R any] struct {
	once sync.Once
	ch   chan R
	done chan struct{}
}

func newReplyPair[R any]() (*ReplySender[R], *ReplyReceiver[R]) {
	ch := make(chan R, 1)
	done := make(chan struct{})
	s := &ReplySender[R]{ch: ch, done: done}
	r := &ReplyReceiver[R]{ch: ch, done: done}
	return s, r
}

// Reply consumes the sender and delivers r to the waiting receiver, if any.
// Safe to call at most once; subsequent calls are no-ops.
func (s *ReplySender[R]) Reply(r R) {
	s.once.Do(func() {
		s.ch <- r
		close(s.done)
	})
}

// Closed reports whether this sender has already been used up, by Reply or
// by a drop. It does not observe the receiver: a sender whose originator has
// stopped waiting still reports false until it is replied to or dropped.
func (s *ReplySender[R]) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// drop releases the sender without a reply, letting any waiting receiver
// observe ErrSendSideClosed instead of hanging forever. Called by the
// dispatcher when a handler panics or returns without touching the reply
// slot.
func (s *ReplySender[R]) drop() {
	s.once.Do(func() {
		close(s.done)
	})
}

// DropReply implements the narrow replyDropper interface package dispatch
// uses to abandon a reply without being able to name R.
func (s *ReplySender[R]) DropReply() { s.drop() }

// ReplyReceiver is returned to the originator of a send, wrapped so only the
// statically bound reply type R can ever be extracted from it.
type ReplyReceiver[R any] struct {
	ch   chan R
	done chan struct{}
}

// WaitForReply blocks up to d for a reply, returning ErrTimeout if none
// arrives in time and ErrSendSideClosed if the handler dropped its sender
// without replying. A non-positive d waits forever.
func (r *ReplyReceiver[R]) WaitForReply(d time.Duration) (R, error) {
	var timeoutCh <-chan time.Time
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeoutCh = t.C
	}
	select {
	case v := <-r.ch:
		return v, nil
	case <-r.done:
		select {
		case v := <-r.ch:
			return v, nil
		default:
		}
		var zero R
		return zero, ErrSendSideClosed
	case <-timeoutCh:
		var zero R
		return zero, ErrTimeout
	}
}
