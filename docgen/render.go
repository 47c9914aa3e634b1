// Package docgen renders a kernel.ConfigDescription tree to markdown, for the
// host binary's `doc` command. The kernel itself never formats
// configuration documentation; this is the external documentation
// collaborator referenced by the configuration-description component.
package docgen

import (
	"fmt"
	"strings"

	"github.com/go-edge/edged/kernel"
)

// RenderPlugin renders one plugin kind's configuration description as a
// markdown section.
func RenderPlugin(kindName string, desc *kernel.ConfigDescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", kindName)
	if desc == nil {
		b.WriteString("_This plugin kind takes no configuration._\n")
		return b.String()
	}
	render(&b, desc, 0)
	return b.String()
}

func render(b *strings.Builder, d *kernel.ConfigDescription, depth int) {
	indent := strings.Repeat("  ", depth)
	switch d.Kind {
	case kernel.KindBool:
		fmt.Fprintf(b, "%s- `bool` — %s\n", indent, d.Doc)
	case kernel.KindInteger:
		fmt.Fprintf(b, "%s- `integer` — %s\n", indent, d.Doc)
	case kernel.KindFloat:
		fmt.Fprintf(b, "%s- `float` — %s\n", indent, d.Doc)
	case kernel.KindString:
		fmt.Fprintf(b, "%s- `string` — %s\n", indent, d.Doc)
	case kernel.KindWrapped:
		fmt.Fprintf(b, "%s- wrapped — %s\n", indent, d.Doc)
		if d.Wrapped != nil {
			render(b, d.Wrapped, depth+1)
		}
	case kernel.KindArray:
		fmt.Fprintf(b, "%s- array — %s\n", indent, d.Doc)
		if d.Element != nil {
			render(b, d.Element, depth+1)
		}
	case kernel.KindMap:
		fmt.Fprintf(b, "%s- map<string, _> — %s\n", indent, d.Doc)
		if d.MapValue != nil {
			render(b, d.MapValue, depth+1)
		}
	case kernel.KindStruct:
		fmt.Fprintf(b, "%s- struct — %s\n", indent, d.Doc)
		for _, f := range d.Fields {
			fmt.Fprintf(b, "%s  - `%s`: %s\n", indent, f.Name, f.Doc)
			if f.Desc != nil {
				render(b, f.Desc, depth+2)
			}
		}
	case kernel.KindEnum:
		tag := "untagged"
		if !d.Enum.Tagging.Untagged {
			tag = fmt.Sprintf("tagged with %q", d.Enum.Tagging.Key)
		}
		fmt.Fprintf(b, "%s- enum (%s) — %s\n", indent, tag, d.Doc)
		for _, v := range d.Enum.Variants {
			fmt.Fprintf(b, "%s  - `%s`: %s\n", indent, v.Name, v.Doc)
			if v.Wrapped != nil {
				render(b, v.Wrapped, depth+2)
			}
		}
	}
}
