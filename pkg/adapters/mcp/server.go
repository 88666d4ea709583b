package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/schemagate"
	"github.com/aretw0/schemagate/internal/logging"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const schemasURI = "schemagate://schemas"

// ValidateResponse is the structured result of the validate_record tool.
// An invalid record is a successful call with Valid set to false.
type ValidateResponse struct {
	Schema string               `json:"schema" jsonschema_description:"Schema identifier"`
	Valid  bool                 `json:"valid" jsonschema_description:"Whether the record satisfies the schema"`
	Record map[string]any       `json:"record,omitempty" jsonschema_description:"Normalized record when valid"`
	Errors []*schema.FieldError `json:"errors,omitempty" jsonschema_description:"Every field failure when invalid"`
}

// Gate defines what the MCP server needs from the validation core.
type Gate interface {
	Validate(ctx context.Context, id string, record map[string]any) (*schema.Record, error)
	Describe(ctx context.Context, id string) (*schema.Summary, error)
	List() ([]string, error)
}

// Server exposes a Gate as an MCP server.
type Server struct {
	gate      Gate
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(gate Gate, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		gate:      gate,
		logger:    logger,
		mcpServer: server.NewMCPServer("schemagate-mcp", strings.TrimSpace(schemagate.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	validateTool := mcp.NewTool("validate_record",
		mcp.WithDescription("Validate a record against a schema. Returns the normalized record or every field failure."),
		mcp.WithString("schema_id", mcp.Required(), mcp.Description("Identifier of the schema")),
		mcp.WithString("record", mcp.Required(), mcp.Description("JSON object to validate")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	describeTool := mcp.NewTool("describe_schema",
		mcp.WithDescription("Describe the compiled fields of a schema: type, presence, bounds and default."),
		mcp.WithString("schema_id", mcp.Required(), mcp.Description("Identifier of the schema")),
		mcp.WithOutputSchema[schema.Summary](),
	)
	s.mcpServer.AddTool(describeTool, mcp.NewStructuredToolHandler(s.handleDescribe))

	s.mcpServer.AddTool(mcp.NewTool("list_schemas",
		mcp.WithDescription("List the identifiers of every known schema."),
	), s.handleList)
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	id, _ := args["schema_id"].(string)
	raw, _ := args["record"].(string)

	record, err := decodeRecord(raw)
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("invalid record: %w", err)
	}

	rec, err := s.gate.Validate(ctx, id, record)
	if err != nil {
		if errors.Is(err, schema.ErrValidation) {
			return ValidateResponse{Schema: id, Valid: false, Errors: schema.Causes(err)}, nil
		}
		s.logger.Warn("MCP validate_record failed", "schema", id, "error", err)
		return ValidateResponse{}, fmt.Errorf("validate failed: %w", err)
	}

	return ValidateResponse{Schema: id, Valid: true, Record: rec.Map()}, nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (schema.Summary, error) {
	id, _ := args["schema_id"].(string)
	summary, err := s.gate.Describe(ctx, id)
	if err != nil {
		return schema.Summary{}, fmt.Errorf("describe failed: %w", err)
	}
	return *summary, nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.gate.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(schemasURI, "Known Schemas",
		mcp.WithMIMEType("application/json"),
	), s.readSchemas)
}

func (s *Server) readSchemas(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.gate.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	summaries := make([]*schema.Summary, 0, len(ids))
	for _, id := range ids {
		summary, err := s.gate.Describe(ctx, id)
		if err != nil {
			s.logger.Warn("MCP resource: schema skipped", "schema", id, "error", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	jsonBytes, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schemas: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemasURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func decodeRecord(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("expected a JSON object")
	}
	return record, nil
}
