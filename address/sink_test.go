package address

import (
	"context"
	"testing"
)

func TestSinkCellStartsUnbound(t *testing.T) {
	c := NewSinkCell()
	if c.Bound() {
		t.Fatalf("a fresh SinkCell must start unbound")
	}
	_, err := c.dispatch(context.Background(), Envelope{}, Wait())
	if err != ErrSinkUnbound {
		t.Fatalf("got %v, want ErrSinkUnbound", err)
	}
}

func TestSinkCellBindAndUnbind(t *testing.T) {
	c := NewSinkCell()
	called := false
	c.Bind(func(ctx context.Context, env Envelope, mode WaitMode) (Envelope, error) {
		called = true
		return Envelope{}, nil
	})
	if !c.Bound() {
		t.Fatalf("Bound() should be true after Bind")
	}
	if _, err := c.dispatch(context.Background(), Envelope{}, Wait()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("bound handler was not invoked")
	}

	c.Unbind()
	if c.Bound() {
		t.Fatalf("Bound() should be false after Unbind")
	}
	if _, err := c.dispatch(context.Background(), Envelope{}, Wait()); err != ErrSinkUnbound {
		t.Fatalf("got %v, want ErrSinkUnbound after Unbind", err)
	}
}
