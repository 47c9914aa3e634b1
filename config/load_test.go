package config

import (
	"os"
	"path/filepath"
	"testing"
)

type sysstatConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadParsesTopLevelDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "edged.toml", `
communication_buffer_size = 16
plugin_shutdown_timeout_ms = 2000

[plugins.cpu_sampler]
kind = "sysstat"

[plugins.cpu_sampler.configuration]
interval_seconds = 5
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Top.CommunicationBufferSize != 16 {
		t.Fatalf("got CommunicationBufferSize=%d, want 16", doc.Top.CommunicationBufferSize)
	}
	if doc.Top.PluginShutdownTimeoutMS != 2000 {
		t.Fatalf("got PluginShutdownTimeoutMS=%d, want 2000", doc.Top.PluginShutdownTimeoutMS)
	}
	inst, ok := doc.Top.Plugins["cpu_sampler"]
	if !ok || inst.Kind != "sysstat" {
		t.Fatalf("got plugins=%v, want an instance named cpu_sampler of kind sysstat", doc.Top.Plugins)
	}
}

func TestInstanceConfigResolvesInlineTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "edged.toml", `
communication_buffer_size = 16
plugin_shutdown_timeout_ms = 2000

[plugins.cpu_sampler]
kind = "sysstat"

[plugins.cpu_sampler.configuration]
interval_seconds = 5
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val, err := doc.InstanceConfig("cpu_sampler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cfg sysstatConfig
	if err := val.Scan(&cfg); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if cfg.IntervalSeconds != 5 {
		t.Fatalf("got IntervalSeconds=%d, want 5", cfg.IntervalSeconds)
	}
}

func TestInstanceConfigResolvesSiblingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cpu_sampler.toml", `interval_seconds = 9`)
	path := writeFile(t, dir, "edged.toml", `
communication_buffer_size = 16
plugin_shutdown_timeout_ms = 2000

[plugins.cpu_sampler]
kind = "sysstat"
configuration = "cpu_sampler.toml"
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val, err := doc.InstanceConfig("cpu_sampler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cfg sysstatConfig
	if err := val.Scan(&cfg); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if cfg.IntervalSeconds != 9 {
		t.Fatalf("got IntervalSeconds=%d, want 9", cfg.IntervalSeconds)
	}
}

func TestInstanceConfigUnknownNameFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "edged.toml", `
communication_buffer_size = 16
plugin_shutdown_timeout_ms = 2000
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := doc.InstanceConfig("missing"); err == nil {
		t.Fatalf("expected an error for an unknown instance name")
	}
}
