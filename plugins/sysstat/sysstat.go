// Package sysstat implements the "sysstat" example plugin kind: it samples
// host CPU and memory usage on an interval and broadcasts Measurement
// messages to a configured list of subscriber addresses. Uses
// github.com/shirou/gopsutil/v3, the library go-lynx itself depends on
// transitively for its own health checks.
package sysstat

import (
	"context"
	"fmt"
	"time"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/messages"
)

const KindName = "sysstat"

type Config struct {
	Subscribers []string `json:"subscribers"`
	IntervalMS  int      `json:"interval_ms"`
}

func (c Config) interval() time.Duration {
	if c.IntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.IntervalMS) * time.Millisecond
}

type Builder struct {
	Logger kratoslog.Logger
}

func (Builder) KindName() string                { return KindName }
func (Builder) KindMessageTypes() bundle.Bundle { return bundle.Bundle{} }
func (Builder) KindConfiguration() *kernel.ConfigDescription {
	return kernel.StructOf("sysstat plugin configuration",
		kernel.Field{Name: "subscribers", Doc: "plugin names to broadcast measurements to", Desc: kernel.ArrayOf("", kernel.String(""))},
		kernel.Field{Name: "interval_ms", Doc: "milliseconds between samples", Desc: kernel.Integer("")},
	)
}

func (Builder) VerifyConfiguration(cfg kernel.RawConfig) error {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return fmt.Errorf("sysstat: invalid configuration: %w", err)
	}
	if len(c.Subscribers) == 0 {
		return fmt.Errorf("sysstat: at least one subscriber is required")
	}
	return nil
}

type subscriberBundle struct{}

func (b Builder) Instantiate(ctx context.Context, cfg kernel.RawConfig, view *directory.View) (*kernel.BuiltPlugin, error) {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return nil, fmt.Errorf("sysstat: invalid configuration: %w", err)
	}
	subs := make([]address.Address[subscriberBundle], 0, len(c.Subscribers))
	for _, name := range c.Subscribers {
		addr, err := directory.GetAddressFor[subscriberBundle](view, name, bundle.Of1[messages.Measurement]())
		if err != nil {
			return nil, err
		}
		subs = append(subs, addr)
	}
	p := &plugin{
		cfg:           c,
		subscribers:   subs,
		logger:        kratoslog.NewHelper(kratoslog.With(b.Logger, "plugin", view.Self(), "kind", KindName)),
	}
	return kernel.NewBuiltPlugin(view.Self(), p), nil
}

type plugin struct {
	kernel.DefaultPlugin
	cfg         Config
	subscribers []address.Address[subscriberBundle]
	logger      *kratoslog.Helper
}

func (p *plugin) Main(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.sample(ctx)
		}
	}
}

func (p *plugin) sample(ctx context.Context) {
	now := time.Now().UnixMilli()

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		p.broadcast(ctx, messages.Measurement{Name: "cpu.percent", Value: percents[0], Unit: "percent", TimestampUnixMilli: now})
	} else if err != nil {
		p.logger.Warnw("op", "main", "event", "cpu_sample_failed", "err", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		p.broadcast(ctx, messages.Measurement{Name: "mem.used_percent", Value: vm.UsedPercent, Unit: "percent", TimestampUnixMilli: now})
	} else {
		p.logger.Warnw("op", "main", "event", "mem_sample_failed", "err", err)
	}
}

func (p *plugin) broadcast(ctx context.Context, m messages.Measurement) {
	for _, sub := range p.subscribers {
		if _, err := address.TrySend[subscriberBundle](ctx, sub, m); err != nil {
			p.logger.Debugw("op", "dispatch", "event", "broadcast_dropped", "recipient", sub.RecipientName(), "err", err)
		}
	}
}
