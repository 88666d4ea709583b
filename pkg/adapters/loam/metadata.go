package loam

// SchemaMetadata is the frontmatter of a schema document.
// Fields are a list so that declaration order survives the round trip
// through the repository.
type SchemaMetadata struct {
	ID          string       `json:"id" mapstructure:"id"`
	Title       string       `json:"title,omitempty" mapstructure:"title"`
	Description string       `json:"description,omitempty" mapstructure:"description"`
	Fields      []FieldEntry `json:"fields" mapstructure:"fields"`
}

// FieldEntry is one declared field in the frontmatter.
type FieldEntry struct {
	Name     string   `json:"name" mapstructure:"name"`
	Type     string   `json:"type,omitempty" mapstructure:"type"`
	Required bool     `json:"required,omitempty" mapstructure:"required"`
	Min      *float64 `json:"min,omitempty" mapstructure:"min"`
	Max      *float64 `json:"max,omitempty" mapstructure:"max"`
	Default  any      `json:"default,omitempty" mapstructure:"default"`
}
