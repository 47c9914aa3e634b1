// Package kernel defines the contract every plugin kind implements — the
// Builder that verifies configuration and instantiates an instance, the
// Plugin lifecycle hooks, and the configuration description tree a builder
// exposes for documentation — plus BuiltPlugin, the read-biased cell that
// turns a concrete plugin's typed handlers into the type-erased dispatch
// thunk package dispatch invokes.
package kernel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/dispatch"
	"github.com/go-edge/edged/message"
)

// Plugin is the lifecycle contract every built plugin instance satisfies.
// Embed DefaultPlugin to get no-op implementations for the hooks a plugin
// doesn't need.
type Plugin interface {
	Start(ctx context.Context) error
	Main(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// DefaultPlugin embeds into a concrete plugin type to supply no-op
// Start/Main/Shutdown, matching the source contract's "default no-op" for
// each hook.
type DefaultPlugin struct{}

func (DefaultPlugin) Start(context.Context) error    { return nil }
func (DefaultPlugin) Main(context.Context) error     { return nil }
func (DefaultPlugin) Shutdown(context.Context) error { return nil }

// typedHandler is the erased shape every registered typed handler is reduced
// to: it already knows how to downcast env.Message and env's reply slot
// internally (see Handle).
type typedHandler func(ctx context.Context, env address.Envelope) error

// BuiltPlugin pairs an instantiated Plugin with its type-erased dispatch
// table. Handle registers one typed handler per accepted message type, in
// the order the plugin kind declares them; Invoke downcasts an incoming
// envelope by identity and calls the matching handler.
type BuiltPlugin struct {
	Plugin   Plugin
	Name     string
	handlers map[message.Identity]typedHandler
	order    []message.Identity
}

// NewBuiltPlugin wraps plugin, ready for handler registration via Handle.
func NewBuiltPlugin(name string, plugin Plugin) *BuiltPlugin {
	return &BuiltPlugin{
		Plugin:   plugin,
		Name:     name,
		handlers: make(map[message.Identity]typedHandler),
	}
}

// Handle registers fn as the handler for message type M, whose statically
// bound reply type R is inferred from M's Typed[R] implementation. Handlers
// are tried by identity equality rather than sequential downcast attempts —
// equivalent to the source's "first match" semantics since a kind declares
// at most one handler per accepted type, but O(1) instead of O(n).
func Handle[M message.Typed[R], R any](b *BuiltPlugin, fn func(ctx context.Context, msg M, reply *address.ReplySender[R]) error) {
	id := message.IdentityOf[M]()
	b.order = append(b.order, id)
	b.handlers[id] = func(ctx context.Context, env address.Envelope) error {
		msg, ok := env.Message.(M)
		if !ok {
			return fmt.Errorf("%w: %s", dispatch.ErrNoHandlerMatched, env.TypeName)
		}
		var sender *address.ReplySender[R]
		if slot, ok := env.ReplySlot(); ok {
			sender, _ = slot.(*address.ReplySender[R])
		}
		return fn(ctx, msg, sender)
	}
}

// Invoke downcasts env to one of the plugin's declared accepted types and
// invokes the matching handler; it is a kernel bug (per the source
// contract) for no handler to match, since the directory's type check at
// address-issuance time is supposed to prevent it.
func (b *BuiltPlugin) Invoke(ctx context.Context, env address.Envelope) error {
	h, ok := b.handlers[env.TypeID]
	if !ok {
		return fmt.Errorf("%w: %s", dispatch.ErrNoHandlerMatched, env.TypeName)
	}
	return h(ctx, env)
}

// AcceptedTypes returns the identities registered via Handle, in
// registration order.
func (b *BuiltPlugin) AcceptedTypes() []message.Identity {
	return append([]message.Identity(nil), b.order...)
}

// Cell is the shared, read-biased holder of a BuiltPlugin: handlers take a
// read lock for the duration of one invocation; start/shutdown take the
// write lock for exclusive access, per the source's locking discipline (no
// nested write locks; permit acquisition always happens before this lock).
//
// invalid is a separate atomic flag rather than a field guarded by mu: a
// plugin whose Shutdown hangs or overruns its timeout keeps mu's write lock
// held for as long as that call runs (WithLock only releases it when fn
// returns). Invalidate must still be able to mark the cell dead the instant
// lifecycle gives up waiting, so it cannot itself take mu — doing so would
// block on the very lock the stuck Shutdown is holding, turning one slow
// plugin into a hang in Run itself.
type Cell struct {
	mu      sync.RWMutex
	plugin  *BuiltPlugin
	invalid atomic.Bool
}

// NewCell wraps plugin in a fresh cell.
func NewCell(plugin *BuiltPlugin) *Cell { return &Cell{plugin: plugin} }

// Invoke implements dispatch.Thunk.
func (c *Cell) Invoke(ctx context.Context, env address.Envelope) error {
	if c.invalid.Load() {
		return fmt.Errorf("%w: %s", dispatch.ErrNoHandlerMatched, env.TypeName)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.invalid.Load() {
		return fmt.Errorf("%w: %s", dispatch.ErrNoHandlerMatched, env.TypeName)
	}
	return c.plugin.Invoke(ctx, env)
}

// WithLock runs fn with exclusive access to the built plugin. Lifecycle
// calls Start and Shutdown inside it; for Main it only fetches the plugin
// under the lock and runs Main outside it.
func (c *Cell) WithLock(fn func(*BuiltPlugin) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.plugin)
}

// Invalidate marks the cell so further dispatch attempts fail cleanly
// instead of touching a plugin after teardown. Lifecycle calls it once every
// plugin's Shutdown has returned or timed out.
// Never blocks, even if a handler or Shutdown call is still holding mu.
func (c *Cell) Invalidate() {
	c.invalid.Store(true)
}
