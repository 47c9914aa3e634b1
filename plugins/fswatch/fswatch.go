// Package fswatch implements the "fswatch" example plugin kind: it watches a
// set of paths and emits a FileEvent message for every fsnotify event. Uses
// github.com/fsnotify/fsnotify, present in go-lynx's dependency graph and in
// the nomad driver example's vendored watch setup.
package fswatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/messages"
)

const KindName = "fswatch"

type Config struct {
	Paths      []string `json:"paths"`
	Subscriber string   `json:"subscriber"`
}

type Builder struct {
	Logger kratoslog.Logger
}

func (Builder) KindName() string                { return KindName }
func (Builder) KindMessageTypes() bundle.Bundle { return bundle.Bundle{} }
func (Builder) KindConfiguration() *kernel.ConfigDescription {
	return kernel.StructOf("fswatch plugin configuration",
		kernel.Field{Name: "paths", Doc: "filesystem paths to watch", Desc: kernel.ArrayOf("", kernel.String(""))},
		kernel.Field{Name: "subscriber", Doc: "plugin name to deliver file events to", Desc: kernel.String("")},
	)
}

func (Builder) VerifyConfiguration(cfg kernel.RawConfig) error {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return fmt.Errorf("fswatch: invalid configuration: %w", err)
	}
	if len(c.Paths) == 0 {
		return fmt.Errorf("fswatch: at least one path is required")
	}
	if c.Subscriber == "" {
		return fmt.Errorf("fswatch: subscriber is required")
	}
	return nil
}

type subscriberBundle struct{}

func (b Builder) Instantiate(ctx context.Context, cfg kernel.RawConfig, view *directory.View) (*kernel.BuiltPlugin, error) {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return nil, fmt.Errorf("fswatch: invalid configuration: %w", err)
	}
	sub, err := directory.GetAddressFor[subscriberBundle](view, c.Subscriber, bundle.Of1[messages.FileEvent]())
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fswatch: creating watcher: %w", err)
	}
	for _, path := range c.Paths {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("fswatch: watching %s: %w", path, err)
		}
	}
	p := &plugin{
		watcher:    watcher,
		subscriber: sub,
		logger:     kratoslog.NewHelper(kratoslog.With(b.Logger, "plugin", view.Self(), "kind", KindName)),
	}
	return kernel.NewBuiltPlugin(view.Self(), p), nil
}

type plugin struct {
	kernel.DefaultPlugin
	watcher    *fsnotify.Watcher
	subscriber address.Address[subscriberBundle]
	logger     *kratoslog.Helper
}

func (p *plugin) Main(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return nil
			}
			msg := messages.FileEvent{Path: ev.Name, Op: ev.Op.String()}
			if _, err := address.TrySend[subscriberBundle](ctx, p.subscriber, msg); err != nil {
				p.logger.Debugw("op", "dispatch", "event", "fsevent_dropped", "path", ev.Name, "err", err)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warnw("op", "main", "event", "watch_error", "err", err)
		}
	}
}

func (p *plugin) Shutdown(ctx context.Context) error {
	return p.watcher.Close()
}
