package config

import "testing"

func TestTomlCodecRoundTrips(t *testing.T) {
	c := tomlCodec{}
	type payload struct {
		Name string `toml:"name"`
		Port int    `toml:"port"`
	}
	in := payload{Name: "edged", Port: 9}

	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var out payload
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestTomlCodecName(t *testing.T) {
	if got := (tomlCodec{}).Name(); got != "toml" {
		t.Fatalf("got %q, want %q", got, "toml")
	}
}
