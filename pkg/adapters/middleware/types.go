// Package middleware decorates SchemaLoaders with cross-cutting behavior.
package middleware

import "github.com/aretw0/schemagate/pkg/ports"

// Middleware allows wrapping a SchemaLoader to add behavior.
type Middleware func(ports.SchemaLoader) ports.SchemaLoader

// Chain applies mws to loader so that the first middleware is the outermost.
func Chain(loader ports.SchemaLoader, mws ...Middleware) ports.SchemaLoader {
	for i := len(mws) - 1; i >= 0; i-- {
		loader = mws[i](loader)
	}
	return loader
}
