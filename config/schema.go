// Package config loads the kernel's top-level TOML configuration document
// using github.com/go-kratos/kratos/v2/config with the config/file source,
// the same pairing go-lynx's boot/conf.go uses to build a config.Config from
// a file.NewSource. Per-instance configuration tables may be inline or a
// path to a sibling file, resolved relative to the top-level document.
package config

// Instance is one entry of the top-level document's plugins map: which kind
// to instantiate and the (possibly still-a-path) configuration table for it.
type Instance struct {
	Kind          string `json:"kind"`
	Configuration any    `json:"configuration"`
}

// Top is the top-level configuration schema described in the kernel's
// external interfaces: a global concurrency bound, a per-plugin shutdown
// timeout, and the named plugin instances to build.
type Top struct {
	CommunicationBufferSize int                 `json:"communication_buffer_size"`
	PluginShutdownTimeoutMS int                 `json:"plugin_shutdown_timeout_ms"`
	Plugins                 map[string]Instance `json:"plugins"`
}
