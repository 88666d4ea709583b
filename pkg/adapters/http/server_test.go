package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/schemagate"
	"github.com/aretw0/schemagate/pkg/adapters/memory"
	"github.com/aretw0/schemagate/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "age":     {"type": "int", "required": true, "min": 0, "max": 120},
  "name":    {"type": "str", "required": true, "min": 1, "max": 100},
  "income":  {"type": "float", "required": false, "min": 0, "default": 0},
  "country": {"type": "str", "required": false, "default": "unknown"}
}`

func newTestHandler(t *testing.T, opts ...Option) (http.Handler, *memory.Loader) {
	t.Helper()
	loader := memory.NewLoader(map[string]string{
		"person": personSchema,
		"broken": `{"age": {"type": "int", "min": 10, "max": 1}}`,
	})
	gate, err := schemagate.New("", schemagate.WithLoader(loader))
	require.NoError(t, err)
	return NewHandler(gate, opts...), loader
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}

func TestGetInfo(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/info", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "schemagate-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
	assert.Equal(t, apiVersion, resp["api_version"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestListSchemas(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/schemas", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"schemas":["broken","person"]}`, rr.Body.String())
}

func TestValidateRecord(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		check      func(t *testing.T, body string)
	}{
		{
			name:       "valid record is normalized",
			path:       "/schemas/person/validate",
			body:       `{"age": 30, "name": "  Alice "}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body string) {
				assert.JSONEq(t, `{"schema":"person","valid":true,"record":{"age":30,"name":"alice","income":0,"country":"unknown"}}`, body)
			},
		},
		{
			name:       "invalid record lists every cause",
			path:       "/schemas/person/validate",
			body:       `{"age": 150, "nickname": "al"}`,
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body string) {
				var resp ValidationResponse
				require.NoError(t, json.Unmarshal([]byte(body), &resp))
				assert.False(t, resp.Valid)
				require.Len(t, resp.Errors, 3)
				assert.Equal(t, "age", resp.Errors[0].Field)
				assert.EqualValues(t, "OutOfRange", resp.Errors[0].Cause)
				assert.Equal(t, "name", resp.Errors[1].Field)
				assert.EqualValues(t, "MissingRequiredField", resp.Errors[1].Cause)
				assert.Equal(t, "nickname", resp.Errors[2].Field)
				assert.EqualValues(t, "UnexpectedField", resp.Errors[2].Cause)
			},
		},
		{
			name:       "whole floats coerce to int",
			path:       "/schemas/person/validate",
			body:       `{"age": 120.0, "name": "x", "income": 12.5}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown schema",
			path:       "/schemas/ghost/validate",
			body:       `{}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "schema that does not compile",
			path:       "/schemas/broken/validate",
			body:       `{"age": 1}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "body is not an object",
			path:       "/schemas/person/validate",
			body:       `[1, 2]`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "body is null",
			path:       "/schemas/person/validate",
			body:       `null`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			path:       "/schemas/person/validate",
			body:       `{"age":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "POST", tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.check != nil {
				tt.check(t, rr.Body.String())
			}
		})
	}
}

func TestValidateRecord_BodyLimit(t *testing.T) {
	h, _ := newTestHandler(t, WithMaxBodyBytes(8))
	rr := do(t, h, "POST", "/schemas/person/validate", `{"age": 30, "name": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDescribeSchema(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := do(t, h, "GET", "/schemas/person", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		ID     string `json:"id"`
		Fields []struct {
			Name     string `json:"name"`
			Type     string `json:"type"`
			Presence string `json:"presence"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "person", resp.ID)
	require.Len(t, resp.Fields, 4)
	assert.Equal(t, "age", resp.Fields[0].Name)
	assert.Equal(t, "int", resp.Fields[0].Type)
	assert.Equal(t, "required", resp.Fields[0].Presence)

	rr = do(t, h, "GET", "/schemas/ghost", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetSchemaOpenAPI(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/schemas/person/openapi", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "object", resp["type"])
	assert.ElementsMatch(t, []any{"age", "name"}, resp["required"])
	assert.Equal(t, false, resp["additionalProperties"])
}

func TestInvalidateSchema(t *testing.T) {
	h, loader := newTestHandler(t)

	rr := do(t, h, "POST", "/schemas/person/validate", `{"age": 30, "name": "alice"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	loader.Set("person", `{"age": {"type": "int", "required": true, "max": 10}}`)

	// Still served from the cache.
	rr = do(t, h, "POST", "/schemas/person/validate", `{"age": 30, "name": "alice"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, "DELETE", "/schemas/person/cache", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "POST", "/schemas/person/validate", `{"age": 30}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestOpenAPISpec(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "GET", "/openapi.json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"/schemas/{id}/validate"`)

	spec, err := GetSwagger()
	require.NoError(t, err)
	assert.NoError(t, spec.Validate(context.Background()))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.MustNew(reg)

	loader := memory.NewLoader(map[string]string{"person": personSchema})
	gate, err := schemagate.New("", schemagate.WithLoader(loader), schemagate.WithMetrics(m))
	require.NoError(t, err)
	h := NewHandler(gate, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	do(t, h, "POST", "/schemas/person/validate", `{"age": 30, "name": "alice"}`)

	rr := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `schemagate_validations_total{result="valid"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, "OPTIONS", "/schemas/person/validate", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
