package schema

// Summary is the introspection view of a compiled schema, shared by the CLI,
// the HTTP API and the MCP tools.
type Summary struct {
	ID     string         `json:"id"`
	Fields []FieldSummary `json:"fields"`
}

// FieldSummary describes one compiled field.
type FieldSummary struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Presence   string   `json:"presence"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Default    any      `json:"default,omitempty"`
	HasDefault bool     `json:"has_default"`
}

// Summarize describes v under the identifier id.
func Summarize(id string, v *Validator) *Summary {
	s := &Summary{ID: id, Fields: make([]FieldSummary, 0, v.Len())}
	for _, f := range v.Fields() {
		s.Fields = append(s.Fields, FieldSummary{
			Name:       f.Name,
			Type:       f.Type.Name(),
			Presence:   f.Presence.String(),
			Min:        f.Min,
			Max:        f.Max,
			Default:    f.Default,
			HasDefault: f.HasDefault,
		})
	}
	return s
}
