package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/schemagate"
	"github.com/aretw0/schemagate/internal/logging"
	"github.com/aretw0/schemagate/pkg/openapi"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of a request.
const RequestIDHeader = "X-Request-ID"

const defaultMaxBodyBytes = 1 << 20

// Gate defines what the HTTP adapter needs from the validation core.
type Gate interface {
	Validate(ctx context.Context, id string, record map[string]any) (*schema.Record, error)
	Compile(ctx context.Context, id string) (*schema.Validator, error)
	List() ([]string, error)
	Invalidate(id string)
}

// Server implements ServerInterface.
type Server struct {
	Gate         Gate
	logger       *slog.Logger
	metrics      http.Handler
	maxBodyBytes int64
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxBodyBytes limits the size of record bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// NewHandler creates a new HTTP handler for the gate.
func NewHandler(gate Gate, opts ...Option) http.Handler {
	server := &Server{
		Gate:         gate,
		logger:       logging.NewNop(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(server.requestID)

	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		spec, err := GetSwagger()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load spec")
			server.logger.Error("Failed to load OpenAPI spec", "error", err)
			return
		}
		writeJSON(w, http.StatusOK, spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}

	handler := HandlerFromMux(server, r)
	return enableCORS(handler)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", id,
		)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Schemagate API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ValidationResponse is the body of POST /schemas/{id}/validate.
type ValidationResponse struct {
	Schema string              `json:"schema"`
	Valid  bool                `json:"valid"`
	Record *schema.Record      `json:"record,omitempty"`
	Errors []*schema.FieldError `json:"errors,omitempty"`
}

// ErrorResponse is the body of every non-validation failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	version := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		version = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "schemagate-http",
		"version":     strings.TrimSpace(schemagate.Version),
		"api_version": version,
	})
}

// ListSchemas handles the GET /schemas request.
func (s *Server) ListSchemas(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Gate.List()
	if err != nil {
		s.logger.Error("ListSchemas failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("List error: %v", err))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"schemas": ids})
}

// DescribeSchema handles the GET /schemas/{id} request.
func (s *Server) DescribeSchema(w http.ResponseWriter, r *http.Request, id SchemaId) {
	v, err := s.Gate.Compile(r.Context(), id)
	if err != nil {
		s.writeSchemaError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, schema.Summarize(id, v))
}

// GetSchemaOpenAPI handles the GET /schemas/{id}/openapi request.
func (s *Server) GetSchemaOpenAPI(w http.ResponseWriter, r *http.Request, id SchemaId) {
	v, err := s.Gate.Compile(r.Context(), id)
	if err != nil {
		s.writeSchemaError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.Schema(v))
}

// ValidateRecord handles the POST /schemas/{id}/validate request.
func (s *Server) ValidateRecord(w http.ResponseWriter, r *http.Request, id SchemaId) {
	record, err := s.decodeRecord(r)
	if err != nil {
		s.logger.Warn("ValidateRecord: Invalid request body", "schema", id, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	rec, err := s.Gate.Validate(r.Context(), id, record)
	if err != nil {
		if errors.Is(err, schema.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{
				Schema: id,
				Valid:  false,
				Errors: schema.Causes(err),
			})
			return
		}
		s.writeSchemaError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidationResponse{Schema: id, Valid: true, Record: rec})
}

// InvalidateSchema handles the DELETE /schemas/{id}/cache request.
func (s *Server) InvalidateSchema(w http.ResponseWriter, r *http.Request, id SchemaId) {
	s.Gate.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

// decodeRecord reads a JSON object, keeping numbers as json.Number so large
// integers survive intact.
func (s *Server) decodeRecord(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, s.maxBodyBytes))
	dec.UseNumber()

	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("expected a JSON object")
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON object")
	}
	return record, nil
}

func (s *Server) writeSchemaError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, schema.ErrSchemaNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("schema %q not found", id))
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Error("schema unusable", "schema", id, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
