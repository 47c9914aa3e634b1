package kernel

import (
	"context"

	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
)

// RawConfig is the narrow slice of a configuration source a builder needs:
// the ability to scan a resolved configuration tree into a Go struct. It is
// satisfied by kratos config.Value and by package config's Value, kept narrow here so
// package kernel never imports a concrete configuration library.
type RawConfig interface {
	Scan(v interface{}) error
}

// Builder is the factory a plugin kind registers: it names itself, declares
// the message types its instances accept, optionally describes its
// configuration, verifies a configuration value, and instantiates built
// plugin instances from it.
type Builder interface {
	// KindName returns the unique kind name instances of this builder are
	// configured under.
	KindName() string
	// KindMessageTypes returns the ordered bundle of message types every
	// instance of this kind accepts.
	KindMessageTypes() bundle.Bundle
	// KindConfiguration returns a static description of the configuration
	// this kind expects, or nil if it takes none.
	KindConfiguration() *ConfigDescription
	// VerifyConfiguration checks cfg without side effects, returning a
	// descriptive error if it is invalid.
	VerifyConfiguration(cfg RawConfig) error
	// Instantiate builds a running instance from cfg, a lifecycle-scoped
	// cancellation context, and a directory view scoped to the instance's
	// own name.
	Instantiate(ctx context.Context, cfg RawConfig, view *directory.View) (*BuiltPlugin, error)
}
