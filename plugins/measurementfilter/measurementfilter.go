// Package measurementfilter implements the "measurementfilter" example
// plugin kind: a pure in-process filter with no I/O that forwards
// Measurement messages matching a configured allow-list of names to a
// configured downstream address, dropping the rest. Grounded on the
// original system's plugin_measurement_filter.
package measurementfilter

import (
	"context"
	"fmt"

	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/message"
	"github.com/go-edge/edged/messages"
)

const KindName = "measurementfilter"

type Config struct {
	Downstream string   `json:"downstream"`
	Allow      []string `json:"allow"`
}

type Builder struct {
	Logger kratoslog.Logger
}

func (Builder) KindName() string                { return KindName }
func (Builder) KindMessageTypes() bundle.Bundle { return bundle.Of1[messages.Measurement]() }
func (Builder) KindConfiguration() *kernel.ConfigDescription {
	return kernel.StructOf("measurementfilter plugin configuration",
		kernel.Field{Name: "downstream", Doc: "name of the plugin to forward matching measurements to", Desc: kernel.String("")},
		kernel.Field{Name: "allow", Doc: "measurement names to forward", Desc: kernel.ArrayOf("", kernel.String(""))},
	)
}

func (Builder) VerifyConfiguration(cfg kernel.RawConfig) error {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return fmt.Errorf("measurementfilter: invalid configuration: %w", err)
	}
	if c.Downstream == "" {
		return fmt.Errorf("measurementfilter: downstream is required")
	}
	return nil
}

type downstreamBundle struct{}

func (b Builder) Instantiate(ctx context.Context, cfg kernel.RawConfig, view *directory.View) (*kernel.BuiltPlugin, error) {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return nil, fmt.Errorf("measurementfilter: invalid configuration: %w", err)
	}
	downstream, err := directory.GetAddressFor[downstreamBundle](view, c.Downstream, bundle.Of1[messages.Measurement]())
	if err != nil {
		return nil, err
	}
	allow := make(map[string]struct{}, len(c.Allow))
	for _, name := range c.Allow {
		allow[name] = struct{}{}
	}
	p := &plugin{
		downstream: downstream,
		allow:      allow,
		logger:     kratoslog.NewHelper(kratoslog.With(b.Logger, "plugin", view.Self(), "kind", KindName)),
	}
	bp := kernel.NewBuiltPlugin(view.Self(), p)
	kernel.Handle(bp, p.handleMeasurement)
	return bp, nil
}

type plugin struct {
	kernel.DefaultPlugin
	downstream address.Address[downstreamBundle]
	allow      map[string]struct{}
	logger     *kratoslog.Helper
}

func (p *plugin) handleMeasurement(ctx context.Context, msg messages.Measurement, _ *address.ReplySender[message.NoReply]) error {
	if _, ok := p.allow[msg.Name]; !ok {
		return nil
	}
	if _, err := address.TrySend[downstreamBundle](ctx, p.downstream, msg); err != nil {
		p.logger.Warnw("op", "dispatch", "event", "forward_dropped", "measurement", msg.Name, "err", err)
	}
	return nil
}
