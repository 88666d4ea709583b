package tui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/muesli/termenv"
)

// SummaryMarkdown renders a schema summary as a markdown table.
func SummaryMarkdown(s *schema.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.ID)
	b.WriteString("| Field | Type | Presence | Bounds | Default |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, f := range s.Fields {
		def := ""
		if f.HasDefault {
			def = "`" + formatValue(f.Default) + "`"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", f.Name, f.Type, f.Presence, bounds(f), def)
	}
	return b.String()
}

// ValidationMarkdown renders the outcome of validating one record.
// err must be nil or match schema.ErrValidation.
func ValidationMarkdown(id string, rec *schema.Record, err error) string {
	var b strings.Builder
	if err == nil {
		fmt.Fprintf(&b, "# %s: valid\n\n", id)
		b.WriteString("| Field | Value |\n|---|---|\n")
		for _, name := range rec.Fields() {
			v, _ := rec.Get(name)
			fmt.Fprintf(&b, "| %s | `%s` |\n", name, formatValue(v))
		}
		return b.String()
	}

	causes := schema.Causes(err)
	fmt.Fprintf(&b, "# %s: invalid (%d)\n\n", id, len(causes))
	b.WriteString("| Field | Cause | Reason |\n|---|---|---|\n")
	for _, c := range causes {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Field, c.Cause, strings.ReplaceAll(c.Reason, "|", "\\|"))
	}
	return b.String()
}

// StatusLine returns a colored one-line verdict, for example "✔ person" or "✘ person: 2 errors".
func StatusLine(id string, err error) string {
	p := termenv.ColorProfile()
	if err == nil {
		return termenv.String("✔ " + id).Foreground(p.Color("#22c55e")).String()
	}
	msg := err.Error()
	if causes := schema.Causes(err); causes != nil {
		msg = fmt.Sprintf("%d errors", len(causes))
	}
	return termenv.String(fmt.Sprintf("✘ %s: %s", id, msg)).Foreground(p.Color("#ef4444")).String()
}

func bounds(f schema.FieldSummary) string {
	if f.Min == nil && f.Max == nil {
		return ""
	}
	lo, hi := "", ""
	if f.Min != nil {
		lo = strconv.FormatFloat(*f.Min, 'f', -1, 64)
	}
	if f.Max != nil {
		hi = strconv.FormatFloat(*f.Max, 'f', -1, 64)
	}
	return "[" + lo + ", " + hi + "]"
}

func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
