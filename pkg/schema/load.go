package schema

import (
	"errors"
	"fmt"
)

// Source resolves a schema identifier to the raw bytes of its document.
// ports.SchemaLoader implementations satisfy it.
type Source interface {
	GetSchema(id string) ([]byte, error)
}

// Load reads the schema identified by id from src and parses it.
// Errors keep their sentinel (ErrSchemaNotFound, ErrSchemaParse) for errors.Is.
func Load(src Source, id string) (*Definition, error) {
	data, err := src.GetSchema(id)
	if err != nil {
		if errors.Is(err, ErrSchemaNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read schema %s: %w", id, err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", id, err)
	}
	return def, nil
}
