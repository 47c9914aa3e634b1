package address

import (
	"context"
	"time"

	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/message"
)

// Address is a handle parameterised by a phantom bundle marker B, carrying a
// shared, late-bindable reference to a recipient's sink. Cloning an Address
// is cheap (copying the struct copies only a pointer and a small value);
// every clone refers to the same sink. B itself carries no data — it exists
// so two addresses built against different accepted-type sets are distinct
// Go types, even though the accepted-type check itself happens against the
// runtime Bundle value carried alongside it (see package bundle's doc
// comment).
type Address[B any] struct {
	bundle bundle.Bundle
	sink   *SinkCell
	name   string
}

// New constructs an Address bound to sink, scoped to the given bundle and
// carrying the recipient's name for diagnostics. Outside tests, only package
// directory calls it, as it alone knows how to validate the bundle against a
// recipient's declared accepted types before handing out an Address.
func New[B any](b bundle.Bundle, sink *SinkCell, recipientName string) Address[B] {
	return Address[B]{bundle: b, sink: sink, name: recipientName}
}

// RecipientName returns the name of the plugin this address targets, for
// diagnostics.
func (a Address[B]) RecipientName() string { return a.name }

func wrap[M message.Message](a interface {
	bundleValue() bundle.Bundle
	sinkValue() *SinkCell
}, msg M) (Envelope, error) {
	id := message.IdentityOf[M]()
	if err := checkMembership(a.bundleValue(), id, msg.TypeName()); err != nil {
		return Envelope{}, err
	}
	return Envelope{TypeID: id, TypeName: msg.TypeName(), Message: msg}, nil
}

func (a Address[B]) bundleValue() bundle.Bundle { return a.bundle }
func (a Address[B]) sinkValue() *SinkCell       { return a.sink }

// SendAndWait sends msg, blocking logically until the sink accepts it. M's
// static reply type R is inferred from M's Typed[R] implementation, so the
// returned ReplyReceiver can only ever yield R. On an unbound or closed
// sink, the failure is a *SendError[M] carrying msg back to the caller
// alongside the underlying cause.
func SendAndWait[B any, M message.Typed[R], R any](ctx context.Context, a Address[B], msg M) (*ReplyReceiver[R], error) {
	return send[B, M, R](ctx, a, msg, Wait())
}

// TrySend never blocks: it fails immediately, as a *SendError[M] carrying msg
// back unchanged, if the sink cannot currently admit the message (unbound,
// closed, or full).
func TrySend[B any, M message.Typed[R], R any](ctx context.Context, a Address[B], msg M) (*ReplyReceiver[R], error) {
	return send[B, M, R](ctx, a, msg, DontWait())
}

// SendWithTimeout behaves like SendAndWait but fails once d elapses without
// the sink admitting the message.
func SendWithTimeout[B any, M message.Typed[R], R any](ctx context.Context, a Address[B], msg M, d time.Duration) (*ReplyReceiver[R], error) {
	return send[B, M, R](ctx, a, msg, WithTimeout(d))
}

func send[B any, M message.Typed[R], R any](ctx context.Context, a Address[B], msg M, mode WaitMode) (*ReplyReceiver[R], error) {
	env, err := wrap[M](a, msg)
	if err != nil {
		return nil, &SendError[M]{Msg: msg, Cause: err}
	}
	sender, receiver := newReplyPair[R]()
	env.reply = sender
	_, err = a.sink.dispatch(ctx, env, mode)
	if err != nil {
		sender.drop()
		return nil, &SendError[M]{Msg: msg, Cause: err}
	}
	return receiver, nil
}

// CouldReceive performs the structural bundle check a send would perform,
// without actually sending: true iff msg's type identity is covered by a's
// bundle.
func CouldReceive[B any](a Address[B], msg message.Message) bool {
	id := message.IdentityOfValue(msg)
	return a.bundle.Contains(id)
}
