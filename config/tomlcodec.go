package config

import (
	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/pelletier/go-toml/v2"
)

// tomlCodec plugs TOML into kratos's pluggable encoding registry, the same
// Codec shape its own json/yaml codecs implement. kratos's config/file
// source picks a codec by the loaded file's extension, so registering this
// once at package init is enough for Load and InstanceConfig to read .toml
// files without either caller knowing the encoding.
type tomlCodec struct{}

func (tomlCodec) Marshal(v interface{}) ([]byte, error) { return toml.Marshal(v) }

func (tomlCodec) Unmarshal(data []byte, v interface{}) error { return toml.Unmarshal(data, v) }

func (tomlCodec) Name() string { return "toml" }

func init() {
	encoding.RegisterCodec(tomlCodec{})
}
