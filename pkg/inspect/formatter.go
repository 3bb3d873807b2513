// Package inspect renders controller trees and attribute values for
// human consumption, mainly the operator console.
package inspect

import (
	"fmt"
	"strings"

	"github.com/strand-controls/strand-go/pkg/api"
	"github.com/strand-controls/strand-go/pkg/controller"
	"github.com/strand-controls/strand-go/pkg/datatypes"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes access, kind and unit information.
	ShowMetadata bool

	// ShowDescriptions includes member descriptions.
	ShowDescriptions bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatValue formats a value for display, appending the datatype's unit
// and honouring its precision.
func (f *Formatter) FormatValue(value any, dt datatypes.DataType) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"

	case string:
		return fmt.Sprintf("%q", v)

	case int64:
		if u := unitOf(dt); u != "" {
			return fmt.Sprintf("%d %s", v, u)
		}
		return fmt.Sprintf("%d", v)

	case float64:
		s := fmt.Sprintf("%g", v)
		if fl, ok := dt.(datatypes.Float); ok {
			if prec := fl.Precision(); prec >= 0 {
				s = fmt.Sprintf("%.*f", prec, v)
			}
		}
		if u := unitOf(dt); u != "" {
			return s + " " + u
		}
		return s

	case []any:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			parts = append(parts, fmt.Sprint(elem))
		}
		return "[" + strings.Join(parts, ", ") + "]"

	default:
		return fmt.Sprint(v)
	}
}

// FormatAttribute formats one attribute line: name, value and optional
// metadata.
func (f *Formatter) FormatAttribute(attr *controller.Attribute) string {
	dt := attr.Datatype()
	line := fmt.Sprintf("%-20s %s", attr.Name(), f.FormatValue(attr.Get(), dt))
	if f.ShowMetadata {
		line += fmt.Sprintf("  [%s %s]", attr.Access(), dt.Kind())
	}
	if f.ShowDescriptions && attr.Description() != "" {
		line += "  " + attr.Description()
	}
	return line
}

// FormatNode formats the members of one snapshot node, children first.
func (f *Formatter) FormatNode(node *api.ControllerAPI) string {
	var b strings.Builder
	for _, name := range node.SubNames() {
		fmt.Fprintf(&b, "%s/\n", name)
	}
	for _, name := range node.AttributeNames() {
		attr, _ := node.Attribute(name)
		b.WriteString(f.FormatAttribute(attr))
		b.WriteByte('\n')
	}
	for _, name := range node.CommandNames() {
		cmd, _ := node.Command(name)
		fmt.Fprintf(&b, "%-20s command", name)
		if f.ShowDescriptions && cmd.Description() != "" {
			fmt.Fprintf(&b, "  %s", cmd.Description())
		}
		b.WriteByte('\n')
	}
	for _, name := range node.ScanNames() {
		scan, _ := node.Scan(name)
		fmt.Fprintf(&b, "%-20s scan (%s)\n", name, scan.Period())
	}
	return b.String()
}

// FormatTree renders the whole snapshot as an indented tree.
func (f *Formatter) FormatTree(root *api.ControllerAPI) string {
	var b strings.Builder
	base := len(root.Path())
	for node := range root.Walk() {
		depth := len(node.Path()) - base
		label := "."
		if path := node.Path(); len(path) > 0 && depth > 0 {
			label = path[len(path)-1]
		}
		b.WriteString(f.Indent(depth, fmt.Sprintf("%s  (%s)\n", label, node.Description())))
	}
	return b.String()
}

func unitOf(dt datatypes.DataType) string {
	switch t := dt.(type) {
	case datatypes.Int:
		return t.Units
	case datatypes.Float:
		return t.Units
	default:
		return ""
	}
}
