package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-edge/edged/address"
)

// ErrNoHandlerMatched indicates the envelope's type identity matched none of
// the built plugin's declared accepted types. Per the source design this
// should be unreachable — the directory's type check at address-issuance
// time is supposed to prevent it — so its appearance signals a kernel bug
// rather than a plugin or configuration error. kernel.Cell also returns it,
// wrapped, for every envelope that arrives after the cell was invalidated at
// shutdown.
var ErrNoHandlerMatched = errors.New("dispatch: no declared handler matched the envelope's type")

// Thunk is the type-erased dispatch entry point a built plugin installs:
// given an envelope, it finds the plugin's typed handler registered for the
// envelope's type identity and invokes it. BuiltPlugin and Cell in package
// kernel implement this.
type Thunk interface {
	Invoke(ctx context.Context, env address.Envelope) error
}

// OnPanic is invoked (best effort, never blocking the dispatcher) whenever a
// handler panic is captured, in addition to the non-blocking publish onto
// the plugin's PanicChannel. Lifecycle wires this to structured logging.
type OnPanic func(PanicRecord)

// EnvelopeObserver receives per-envelope dispatch outcomes from NewHandler's
// returned HandlerFunc. Every field is optional. This mirrors OnPanic rather
// than taking a metrics.Registry directly, so package dispatch never depends
// on package metrics; lifecycle is the one that closes these over a
// *metrics.Registry.
type EnvelopeObserver struct {
	OnHandled      func(pluginName string)
	OnDropped      func(pluginName string)
	OnPermitsInUse func(pluginName string, n int)
}

// NewHandler builds the address.HandlerFunc bound into a plugin's sink cell
// during startup's sink-binding step. It closes over the plugin's permit,
// its dispatch thunk, and its panic-signalling channel, per the source's
// per-plugin handler-invocation sequence: acquire permit, read-lock and
// invoke the built plugin, capture panics, release permit. obs, if any
// fields are set, is notified of the admission/handling outcome.
func NewHandler(pluginName string, permit *Permit, thunk Thunk, panics chan<- PanicRecord, onPanic OnPanic, obs EnvelopeObserver) address.HandlerFunc {
	return func(ctx context.Context, env address.Envelope, mode address.WaitMode) (address.Envelope, error) {
		release, err := permit.Acquire(ctx, mode)
		if err != nil {
			if obs.OnDropped != nil {
				obs.OnDropped(pluginName)
			}
			return env, err
		}
		if obs.OnPermitsInUse != nil {
			obs.OnPermitsInUse(pluginName, permit.InUse())
		}
		defer func() {
			release()
			if obs.OnPermitsInUse != nil {
				obs.OnPermitsInUse(pluginName, permit.InUse())
			}
		}()
		result, ierr := invokeGuarded(ctx, pluginName, env, thunk, panics, onPanic)
		if ierr != nil {
			if obs.OnDropped != nil {
				obs.OnDropped(pluginName)
			}
			return result, ierr
		}
		if obs.OnHandled != nil {
			obs.OnHandled(pluginName)
		}
		return result, nil
	}
}

func invokeGuarded(ctx context.Context, pluginName string, env address.Envelope, thunk Thunk, panics chan<- PanicRecord, onPanic OnPanic) (result address.Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec := newPanicRecord(pluginName, env.TypeName, r)
			publish(panics, rec)
			if onPanic != nil {
				onPanic(rec)
			}
			dropReply(env)
			result = address.Envelope{}
			err = fmt.Errorf("dispatch: handler for %s panicked: %v", env.TypeName, r)
		}
	}()
	if ierr := thunk.Invoke(ctx, env); ierr != nil {
		return address.Envelope{}, ierr
	}
	return address.Envelope{}, nil
}

// replyDropper is implemented by the boxed *address.ReplySender[R] value
// carried in an envelope's reply slot; dispatch cannot name R, so it reaches
// the sender through this narrow interface instead.
type replyDropper interface {
	DropReply()
}

func dropReply(env address.Envelope) {
	slot, ok := env.ReplySlot()
	if !ok {
		return
	}
	if d, ok := slot.(replyDropper); ok {
		d.DropReply()
	}
}
