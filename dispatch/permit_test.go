package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/go-edge/edged/address"
)

func TestPermitCapacityBoundsConcurrency(t *testing.T) {
	p := NewPermit(2)
	ctx := context.Background()

	rel1, err := p.Acquire(ctx, address.DontWait())
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	rel2, err := p.Acquire(ctx, address.DontWait())
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if p.InUse() != 2 {
		t.Fatalf("InUse() = %d, want 2", p.InUse())
	}
	if _, err := p.Acquire(ctx, address.DontWait()); err != address.ErrSinkFull {
		t.Fatalf("third DontWait acquire should fail with ErrSinkFull, got %v", err)
	}

	rel1()
	if p.InUse() != 1 {
		t.Fatalf("InUse() = %d after one release, want 1", p.InUse())
	}
	rel2()
	if p.InUse() != 0 {
		t.Fatalf("InUse() = %d after both released, want 0", p.InUse())
	}
}

func TestPermitReleaseIsIdempotent(t *testing.T) {
	p := NewPermit(1)
	release, err := p.Acquire(context.Background(), address.DontWait())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	release()
	release()
	if p.InUse() != 0 {
		t.Fatalf("calling release twice must not under/over-count: InUse()=%d", p.InUse())
	}
}

func TestPermitWithTimeoutExpires(t *testing.T) {
	p := NewPermit(1)
	release, err := p.Acquire(context.Background(), address.DontWait())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	start := time.Now()
	_, err = p.Acquire(context.Background(), address.WithTimeout(20*time.Millisecond))
	if err != address.ErrSinkFull {
		t.Fatalf("got %v, want ErrSinkFull", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("timeout acquire returned too early: %v", elapsed)
	}
}

func TestPermitWaitModeBlocksUntilReleased(t *testing.T) {
	p := NewPermit(1)
	release, err := p.Acquire(context.Background(), address.DontWait())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		r2, err := p.Acquire(context.Background(), address.Wait())
		if err != nil {
			t.Errorf("blocking acquire failed: %v", err)
		}
		r2()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatalf("blocking acquire returned before the permit was released")
	default:
	}
	release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("blocking acquire never unblocked after release")
	}
}

func TestPermitAcquireRespectsContextCancellation(t *testing.T) {
	p := NewPermit(1)
	release, err := p.Acquire(context.Background(), address.DontWait())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Acquire(ctx, address.Wait()); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
