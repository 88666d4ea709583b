// Package schema compiles declarative field schemas into strict record validators.
//
// A schema is a mapping from field name to a small field config:
//
//	{
//	    "age":    {"type": "int", "required": true, "min": 0, "max": 120},
//	    "name":   {"type": "str", "required": true, "min": 1, "max": 100},
//	    "income": {"type": "float", "required": false, "default": 0}
//	}
//
// Only the keys type, required, min, max and default are understood. Types are
// int, float, str and bool. For str fields min/max bound the length in
// characters; for int and float they bound the value. Both bounds are inclusive.
//
// Parse turns raw bytes (JSON or YAML) into a Definition, Compile turns a
// Definition into an immutable Validator and Validate applies a Validator to a
// record:
//
//	def, err := schema.Parse(data)
//	if err != nil {
//	    return err
//	}
//	v, err := schema.Compile(def)
//	if err != nil {
//	    return err
//	}
//	rec, err := schema.Validate(v, map[string]any{"age": 35, "name": "Jane Smith"})
//	if err != nil {
//	    for _, c := range schema.Causes(err) {
//	        fmt.Println(c.Field, c.Cause)
//	    }
//	}
//
// Validation is strict: undeclared keys are rejected, and every str value is
// trimmed and lower-cased before it is checked and stored. All field failures
// are collected into a single *ValidationError.
//
// The package has no dependencies on loaders, caches or transports; those live
// in sibling packages and the root schemagate package.
package schema
