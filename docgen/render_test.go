package docgen

import (
	"strings"
	"testing"

	"github.com/go-edge/edged/kernel"
)

func TestRenderPluginWithNoConfiguration(t *testing.T) {
	out := RenderPlugin("heartbeat", nil)
	if !strings.Contains(out, "## heartbeat") {
		t.Fatalf("missing heading: %q", out)
	}
	if !strings.Contains(out, "takes no configuration") {
		t.Fatalf("missing no-configuration note: %q", out)
	}
}

func TestRenderPluginWalksNestedStruct(t *testing.T) {
	desc := kernel.StructOf("sysstat settings",
		kernel.Field{Name: "interval_seconds", Doc: "sampling interval", Desc: kernel.Integer("seconds between samples")},
		kernel.Field{Name: "paths", Doc: "watched paths", Desc: kernel.ArrayOf("a list of paths", kernel.String("a filesystem path"))},
	)
	out := RenderPlugin("sysstat", desc)

	for _, want := range []string{"## sysstat", "interval_seconds", "sampling interval", "paths", "array", "filesystem path"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPluginWalksEnum(t *testing.T) {
	desc := kernel.EnumOf("transport", kernel.EnumTagging{Key: "type"},
		kernel.Variant{Name: "mqtt", Doc: "publish over MQTT"},
		kernel.Variant{Name: "file", Doc: "append to a file", Wrapped: kernel.String("the file path")},
	)
	out := RenderPlugin("mqttbridge", desc)

	for _, want := range []string{"tagged with \"type\"", "`mqtt`", "publish over MQTT", "`file`", "the file path"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered output missing %q:\n%s", want, out)
		}
	}
}
