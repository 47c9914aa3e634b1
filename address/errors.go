package address

import (
	"errors"
	"fmt"

	"github.com/go-edge/edged/message"
)

// ErrSinkUnbound is returned (with the original envelope) when a send
// targets a sink that has no bound handler, whether because the plugin has
// not started yet or has already shut down.
var ErrSinkUnbound = errors.New("address: sink is unbound")

// ErrSinkFull is returned by TrySend and an expired WithTimeout send when the
// recipient's permit cannot currently be acquired.
var ErrSinkFull = errors.New("address: sink cannot currently admit the message")

// ErrNotInBundle is returned when a caller attempts to send a message type
// that is not a declared member of the Address's bundle. This is the runtime
// half of type gating (see package bundle's doc comment for why this is a
// runtime check rather than a compiler error in this implementation).
type ErrNotInBundle struct {
	TypeName string
}

func (e *ErrNotInBundle) Error() string {
	return fmt.Sprintf("address: message type %q is not a member of this address's bundle", e.TypeName)
}

// checkMembership verifies that id/name is a member of b, returning
// *ErrNotInBundle if not.
func checkMembership(b interface{ Contains(message.Identity) bool }, id message.Identity, name string) error {
	if !b.Contains(id) {
		return &ErrNotInBundle{TypeName: name}
	}
	return nil
}

// SendError reports that a send could not be admitted, carrying the message
// back to the caller typed rather than boxed in an interface{} or dropped
// outright. Cause is the underlying reason (ErrSinkUnbound, ErrSinkFull, a
// membership failure, or whatever the bound handler returned); Unwrap exposes
// it so callers can still errors.Is/errors.As against the usual sentinels.
type SendError[M message.Message] struct {
	Msg   M
	Cause error
}

func (e *SendError[M]) Error() string { return e.Cause.Error() }
func (e *SendError[M]) Unwrap() error { return e.Cause }
