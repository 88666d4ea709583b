package ports

import "context"

// SchemaLoader defines how schema documents are retrieved.
// This allows the storage layer (files, Redis, Loam, memory) to be decoupled
// from parsing and compilation.
type SchemaLoader interface {
	// GetSchema retrieves the raw document of a schema by identifier.
	// It returns an error matching schema.ErrSchemaNotFound if the schema does not exist.
	GetSchema(id string) ([]byte, error)

	// ListSchemas returns the identifiers of all schemas the source holds.
	// Used by introspection (e.g. 'schemagate list', GET /schemas).
	ListSchemas() ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// Caches use it to drop validators whose schema was edited.
type Watchable interface {
	// Watch returns a channel that receives the identifier of each schema that changed.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
