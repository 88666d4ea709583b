package diagram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/schemagate/pkg/schema"
)

// GenerateMermaid produces a Mermaid class diagram with one class per schema.
// Member visibility encodes presence:
// - required: +
// - required with default: #
// - optional: -
func GenerateMermaid(summaries []*schema.Summary) string {
	var sb strings.Builder
	sb.WriteString("classDiagram\n")

	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("    class %s {\n", sanitizeMermaidID(s.ID)))
		for _, f := range s.Fields {
			sb.WriteString(fmt.Sprintf("        %s%s %s%s\n", visibility(f.Presence), f.Type, f.Name, annotations(f)))
		}
		sb.WriteString("    }\n")
	}

	return sb.String()
}

func visibility(presence string) string {
	switch presence {
	case schema.RequiredNoDefault.String():
		return "+"
	case schema.RequiredWithDefault.String():
		return "#"
	default:
		return "-"
	}
}

func annotations(f schema.FieldSummary) string {
	var parts []string
	if f.Min != nil || f.Max != nil {
		parts = append(parts, bound(f.Min)+".."+bound(f.Max))
	}
	if f.HasDefault {
		parts = append(parts, fmt.Sprintf("= %v", f.Default))
	}
	if len(parts) == 0 {
		return ""
	}
	// Mermaid treats braces and quotes inside members as syntax.
	text := strings.NewReplacer("{", "(", "}", ")", "\"", "'").Replace(strings.Join(parts, " "))
	return " " + text
}

func bound(b *float64) string {
	if b == nil {
		return "*"
	}
	return strconv.FormatFloat(*b, 'f', -1, 64)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
