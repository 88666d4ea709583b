package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/aretw0/schemagate/pkg/schema"
)

type loggingMiddleware struct {
	next   ports.SchemaLoader
	logger *slog.Logger
	source string
}

// NewLoggingMiddleware logs every lookup at debug level and backend failures at warn.
// source names the wrapped loader in each entry.
func NewLoggingMiddleware(logger *slog.Logger, source string) Middleware {
	return func(next ports.SchemaLoader) ports.SchemaLoader {
		m := &loggingMiddleware{next: next, logger: logger, source: source}
		if _, ok := next.(ports.Watchable); ok {
			return &watchableLogging{m}
		}
		return m
	}
}

func (m *loggingMiddleware) GetSchema(id string) ([]byte, error) {
	start := time.Now()
	data, err := m.next.GetSchema(id)
	if errors.Is(err, schema.ErrSchemaNotFound) {
		m.logger.Debug("schema not found", "source", m.source, "schema", id)
		return nil, err
	}
	if err != nil {
		m.logger.Warn("schema lookup failed", "source", m.source, "schema", id, "error", err)
		return nil, err
	}
	m.logger.Debug("schema loaded", "source", m.source, "schema", id, "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}

func (m *loggingMiddleware) ListSchemas() ([]string, error) {
	ids, err := m.next.ListSchemas()
	if err != nil {
		m.logger.Warn("schema listing failed", "source", m.source, "error", err)
		return nil, err
	}
	m.logger.Debug("schemas listed", "source", m.source, "count", len(ids))
	return ids, nil
}

// watchableLogging keeps the Watchable capability of the wrapped loader visible.
type watchableLogging struct {
	*loggingMiddleware
}

func (m *watchableLogging) Watch(ctx context.Context) (<-chan string, error) {
	ch, err := m.next.(ports.Watchable).Watch(ctx)
	if err != nil {
		m.logger.Warn("schema watch failed", "source", m.source, "error", err)
		return nil, err
	}
	m.logger.Debug("watching schemas", "source", m.source)
	return ch, nil
}
