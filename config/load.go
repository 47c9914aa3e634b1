package config

import (
	"fmt"
	"path/filepath"

	kconf "github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
)

// Value adapts a kratos config.Value (or a nested config.Config's root) to
// the narrow Scan(interface{}) error contract package kernel's Builder
// interface expects from a RawConfig, without package config needing to
// import package kernel.
type Value struct {
	scan func(v interface{}) error
}

// Scan implements the RawConfig contract.
func (r Value) Scan(v interface{}) error { return r.scan(v) }

// Document is a fully loaded top-level configuration: the parsed schema plus
// everything needed to resolve each instance's (possibly still-a-path)
// configuration table into a Value.
type Document struct {
	Top     Top
	baseDir string
	root    kconf.Config
}

// Load reads path as the top-level TOML document, matching how go-lynx's
// boot/conf.go builds a config.Config from a file.NewSource.
func Load(path string) (*Document, error) {
	source := file.NewSource(path)
	c := kconf.New(kconf.WithSource(source))
	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	var top Top
	if err := c.Scan(&top); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &Document{Top: top, baseDir: filepath.Dir(path), root: c}, nil
}

// InstanceConfig resolves one plugin instance's configuration table into a
// Value a builder can Scan into its own config struct. If Configuration is a
// string, it is treated as a path to a sibling file and resolved relative to
// the top-level document's directory; otherwise it is the inline table
// already present under plugins.<name>.configuration.
func (d *Document) InstanceConfig(name string) (Value, error) {
	inst, ok := d.Top.Plugins[name]
	if !ok {
		return Value{}, fmt.Errorf("config: no instance named %q", name)
	}
	if p, isPath := inst.Configuration.(string); isPath {
		resolved := p
		if !filepath.IsAbs(p) {
			resolved = filepath.Join(d.baseDir, p)
		}
		source := file.NewSource(resolved)
		nested := kconf.New(kconf.WithSource(source))
		if err := nested.Load(); err != nil {
			return Value{}, fmt.Errorf("config: load %s for instance %q: %w", resolved, name, err)
		}
		return Value{scan: nested.Scan}, nil
	}
	key := fmt.Sprintf("plugins.%s.configuration", name)
	v := d.root.Value(key)
	return Value{scan: v.Scan}, nil
}
