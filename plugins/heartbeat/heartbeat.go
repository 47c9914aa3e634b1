// Package heartbeat implements the "heartbeat" example plugin kind: it ticks
// on a configured interval and sends a Heartbeat to a configured peer via
// send_with_timeout, used by the heartbeat round-trip end-to-end scenario.
package heartbeat

import (
	"context"
	"fmt"
	"time"

	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/messages"
)

const KindName = "heartbeat"

// Config is the per-instance configuration heartbeat expects.
type Config struct {
	TargetPlugin    string        `json:"target_plugin"`
	IntervalMS      int           `json:"interval_ms"`
	SendTimeoutMS   int           `json:"send_timeout_ms"`
}

func (c Config) interval() time.Duration {
	if c.IntervalMS <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.IntervalMS) * time.Millisecond
}

func (c Config) sendTimeout() time.Duration {
	if c.SendTimeoutMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.SendTimeoutMS) * time.Millisecond
}

// Builder constructs heartbeat plugin instances.
type Builder struct {
	Logger kratoslog.Logger
}

func (Builder) KindName() string { return KindName }

// KindMessageTypes is empty: heartbeat never receives messages, only sends.
func (Builder) KindMessageTypes() bundle.Bundle { return bundle.Bundle{} }

func (Builder) KindConfiguration() *kernel.ConfigDescription {
	return kernel.StructOf("heartbeat plugin configuration",
		kernel.Field{Name: "target_plugin", Doc: "name of the plugin to heartbeat", Desc: kernel.String("")},
		kernel.Field{Name: "interval_ms", Doc: "milliseconds between ticks", Desc: kernel.Integer("")},
		kernel.Field{Name: "send_timeout_ms", Doc: "per-send timeout in milliseconds", Desc: kernel.Integer("")},
	)
}

func (Builder) VerifyConfiguration(cfg kernel.RawConfig) error {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return fmt.Errorf("heartbeat: invalid configuration: %w", err)
	}
	if c.TargetPlugin == "" {
		return fmt.Errorf("heartbeat: target_plugin is required")
	}
	return nil
}

func (b Builder) Instantiate(ctx context.Context, cfg kernel.RawConfig, view *directory.View) (*kernel.BuiltPlugin, error) {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return nil, fmt.Errorf("heartbeat: invalid configuration: %w", err)
	}
	target, err := directory.GetAddressFor[targetBundle](view, c.TargetPlugin, bundle.Of1[messages.Heartbeat]())
	if err != nil {
		return nil, err
	}
	p := &plugin{
		cfg:    c,
		target: target,
		logger: kratoslog.NewHelper(kratoslog.With(b.Logger, "plugin", view.Self(), "kind", KindName)),
	}
	return kernel.NewBuiltPlugin(view.Self(), p), nil
}

// targetBundle is the phantom marker for the bundle of types heartbeat sends
// to its configured target.
type targetBundle struct{}

type plugin struct {
	kernel.DefaultPlugin
	cfg    Config
	target address.Address[targetBundle]
	logger *kratoslog.Helper
	seq    int
}

func (p *plugin) Main(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.seq++
			msg := messages.Heartbeat{Sequence: p.seq}
			receiver, err := address.SendWithTimeout[targetBundle](ctx, p.target, msg, p.cfg.sendTimeout())
			if err != nil {
				p.logger.Warnw("op", "dispatch", "event", "send_failed", "err", err)
				continue
			}
			status, err := receiver.WaitForReply(p.cfg.sendTimeout())
			if err != nil {
				p.logger.Warnw("op", "dispatch", "event", "reply_failed", "err", err)
				continue
			}
			p.logger.Debugw("op", "dispatch", "event", "heartbeat_reply", "alive", status.Alive)
		}
	}
}
