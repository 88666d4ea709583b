/*
Package ports defines the driven ports (interfaces) for schemagate.

These interfaces decouple compilation and validation from where schema
documents are stored.

# Key Interfaces

  - SchemaLoader: resolves a schema identifier to raw document bytes (files, Redis, Loam, memory).
  - Watchable: optional change notifications, used to invalidate cached validators.
*/
package ports
