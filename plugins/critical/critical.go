// Package critical implements the "critical" example plugin kind: it
// receives Heartbeat messages and alternates Alive/Degraded replies, the
// receiver half of the heartbeat round-trip end-to-end scenario.
package critical

import (
	"context"
	"sync"

	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/messages"
)

const KindName = "critical"

type Config struct{}

// Builder constructs critical plugin instances.
type Builder struct {
	Logger kratoslog.Logger
}

func (Builder) KindName() string                { return KindName }
func (Builder) KindMessageTypes() bundle.Bundle { return bundle.Of1[messages.Heartbeat]() }
func (Builder) KindConfiguration() *kernel.ConfigDescription {
	return kernel.StructOf("critical plugin configuration")
}
func (Builder) VerifyConfiguration(cfg kernel.RawConfig) error { return nil }

func (b Builder) Instantiate(ctx context.Context, cfg kernel.RawConfig, view *directory.View) (*kernel.BuiltPlugin, error) {
	p := &plugin{
		logger: kratoslog.NewHelper(kratoslog.With(b.Logger, "plugin", view.Self(), "kind", KindName)),
	}
	bp := kernel.NewBuiltPlugin(view.Self(), p)
	kernel.Handle(bp, p.handleHeartbeat)
	return bp, nil
}

type plugin struct {
	kernel.DefaultPlugin
	logger *kratoslog.Helper

	mu    sync.Mutex
	alive bool
}

func (p *plugin) handleHeartbeat(ctx context.Context, msg messages.Heartbeat, reply *address.ReplySender[messages.HeartbeatStatus]) error {
	p.mu.Lock()
	p.alive = !p.alive
	status := messages.HeartbeatStatus{Alive: p.alive}
	p.mu.Unlock()

	p.logger.Debugw("op", "dispatch", "event", "heartbeat_received", "sequence", msg.Sequence, "alive", status.Alive)
	if reply != nil {
		reply.Reply(status)
	}
	return nil
}
