package address

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/message"
)

type ping struct{ N int }

func (ping) TypeName() string { return "address_test.ping" }
func (ping) Reply() pong      { return pong{} }

type pong struct{ N int }

func (pong) TypeName() string { return "address_test.pong" }

type otherMsg struct{}

func (otherMsg) TypeName() string       { return "address_test.otherMsg" }
func (otherMsg) Reply() message.NoReply { return message.NoReply{} }

type pingBundle struct{}

func echoSink() *SinkCell {
	cell := NewSinkCell()
	cell.Bind(func(ctx context.Context, env Envelope, mode WaitMode) (Envelope, error) {
		if sender, ok := env.ReplySlot(); ok {
			if s, ok := sender.(*ReplySender[pong]); ok {
				p := env.Message.(ping)
				s.Reply(pong{N: p.N * 2})
			}
		}
		return Envelope{}, nil
	})
	return cell
}

func TestSendAndWaitRoundTrips(t *testing.T) {
	b := bundle.Of1[ping]()
	addr := New[pingBundle](b, echoSink(), "echo")

	recv, err := SendAndWait[pingBundle](context.Background(), addr, ping{N: 21})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := recv.WaitForReply(time.Second)
	if err != nil {
		t.Fatalf("unexpected reply error: %v", err)
	}
	if got.N != 42 {
		t.Fatalf("got %d, want 42", got.N)
	}
}

func TestSendRejectsTypeNotInBundle(t *testing.T) {
	b := bundle.Of1[ping]()
	addr := New[pingBundle](b, echoSink(), "echo")

	_, err := SendAndWait[pingBundle](context.Background(), addr, otherMsg{})
	var se *SendError[otherMsg]
	if !errors.As(err, &se) {
		t.Fatalf("got %v (%T), want *SendError[otherMsg]", err, err)
	}
	if se.Msg != (otherMsg{}) {
		t.Fatalf("got message %+v back, want the original otherMsg", se.Msg)
	}
	var notInBundle *ErrNotInBundle
	if !errors.As(err, &notInBundle) {
		t.Fatalf("got cause %v, want *ErrNotInBundle", se.Cause)
	}
}

func TestSendOnUnboundSinkFails(t *testing.T) {
	b := bundle.Of1[ping]()
	addr := New[pingBundle](b, NewSinkCell(), "unbound")

	_, err := SendAndWait[pingBundle](context.Background(), addr, ping{N: 1})
	if !errors.Is(err, ErrSinkUnbound) {
		t.Fatalf("got %v, want ErrSinkUnbound", err)
	}
	var se *SendError[ping]
	if !errors.As(err, &se) || se.Msg.N != 1 {
		t.Fatalf("got %v, want *SendError[ping] carrying the original message back", err)
	}
}

func TestCouldReceiveReflectsBundleMembership(t *testing.T) {
	b := bundle.Of1[ping]()
	addr := New[pingBundle](b, echoSink(), "echo")

	if !CouldReceive[pingBundle](addr, ping{}) {
		t.Fatalf("CouldReceive should be true for a bundle member")
	}
	if CouldReceive[pingBundle](addr, otherMsg{}) {
		t.Fatalf("CouldReceive should be false for a non-member type")
	}
}
