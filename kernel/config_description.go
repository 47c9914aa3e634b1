package kernel

// ConfigDescription is a node in the recursive tree a plugin kind exposes to
// describe the configuration it expects. The kernel never parses
// configuration values from this tree — it exists purely for the doc
// renderer (package docgen); runtime parsing is delegated to RawConfig.Scan
// and the plugin builder itself.
type ConfigDescription struct {
	Kind Kind

	// Doc is a human-readable description shown by the doc renderer,
	// applicable to any Kind.
	Doc string

	// Wrapped is set when Kind == KindWrapped: the inner description this
	// node wraps (used for newtype-style configuration values).
	Wrapped *ConfigDescription

	// Element is set when Kind == KindArray: the description of each
	// element.
	Element *ConfigDescription

	// MapValue is set when Kind == KindMap: the description of each value;
	// keys are always strings.
	MapValue *ConfigDescription

	// Fields is set when Kind == KindStruct: the ordered list of named
	// fields.
	Fields []Field

	// Enum is set when Kind == KindEnum: the tagging discipline and ordered
	// variant list.
	Enum *EnumDescription
}

// Kind enumerates the primitive and compound shapes a ConfigDescription node
// can take.
type Kind int

const (
	KindBool Kind = iota
	KindInteger
	KindFloat
	KindString
	KindWrapped
	KindArray
	KindMap
	KindStruct
	KindEnum
)

// Field is one named member of a KindStruct description.
type Field struct {
	Name string
	Doc  string
	Desc *ConfigDescription
}

// EnumTagging describes how an enum's active variant is recorded in the
// serialised configuration.
type EnumTagging struct {
	// Untagged is true when the variant is inferred structurally rather
	// than recorded under an explicit key.
	Untagged bool
	// Key names the tag field when Untagged is false.
	Key string
}

// Variant is one member of an enum description: either a bare literal
// string form (Wrapped == nil) or a wrapped sub-description.
type Variant struct {
	Name    string
	Doc     string
	Wrapped *ConfigDescription
}

// EnumDescription is the payload of a KindEnum node.
type EnumDescription struct {
	Tagging  EnumTagging
	Variants []Variant
}

// Bool, Integer, Float, and String build leaf descriptions for the
// corresponding primitive kinds.
func Bool(doc string) *ConfigDescription    { return &ConfigDescription{Kind: KindBool, Doc: doc} }
func Integer(doc string) *ConfigDescription { return &ConfigDescription{Kind: KindInteger, Doc: doc} }
func Float(doc string) *ConfigDescription   { return &ConfigDescription{Kind: KindFloat, Doc: doc} }
func String(doc string) *ConfigDescription  { return &ConfigDescription{Kind: KindString, Doc: doc} }

// Wrap builds a KindWrapped description around inner.
func Wrap(doc string, inner *ConfigDescription) *ConfigDescription {
	return &ConfigDescription{Kind: KindWrapped, Doc: doc, Wrapped: inner}
}

// ArrayOf builds a KindArray description whose elements match element.
func ArrayOf(doc string, element *ConfigDescription) *ConfigDescription {
	return &ConfigDescription{Kind: KindArray, Doc: doc, Element: element}
}

// MapOf builds a KindMap description whose values match value.
func MapOf(doc string, value *ConfigDescription) *ConfigDescription {
	return &ConfigDescription{Kind: KindMap, Doc: doc, MapValue: value}
}

// StructOf builds a KindStruct description from an ordered field list.
func StructOf(doc string, fields ...Field) *ConfigDescription {
	return &ConfigDescription{Kind: KindStruct, Doc: doc, Fields: fields}
}

// EnumOf builds a KindEnum description.
func EnumOf(doc string, tagging EnumTagging, variants ...Variant) *ConfigDescription {
	return &ConfigDescription{Kind: KindEnum, Doc: doc, Enum: &EnumDescription{Tagging: tagging, Variants: variants}}
}
