/*
Package schemagate validates loosely typed records against declarative field schemas.

A schema is a JSON or YAML mapping from field name to its configuration:

	age:     {type: int, required: true, min: 0, max: 120}
	name:    {type: str, required: true, min: 1, max: 100}
	income:  {type: float, min: 0, default: 0}
	country: {type: str, default: unknown}

Schemas are fetched through a SchemaLoader (directory, Redis, Loam or memory),
compiled once into an immutable Validator and cached by identifier. Records
that pass come back normalized: missing optional fields take their default,
strings are trimmed and lower-cased, numbers are coerced to int64 or float64.
Records that fail return every field-level cause at once.

# Usage

	gate, err := schemagate.New("./schemas")
	if err != nil {
		log.Fatal(err)
	}

	rec, err := gate.Validate(ctx, "person", map[string]any{"age": 30, "name": " Alice "})
	if errors.Is(err, schema.ErrValidation) {
		for _, c := range schema.Causes(err) {
			fmt.Println(c.Field, c.Cause)
		}
	}

The cmd/schemagate binary exposes the same engine as a CLI, an HTTP API and an
MCP server.
*/
package schemagate
