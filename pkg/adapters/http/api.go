package http

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

const apiVersion = "0.1.0"

// SchemaId is the path parameter naming a schema.
type SchemaId = string

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
	// (GET /schemas)
	ListSchemas(w http.ResponseWriter, r *http.Request)
	// (GET /schemas/{id})
	DescribeSchema(w http.ResponseWriter, r *http.Request, id SchemaId)
	// (GET /schemas/{id}/openapi)
	GetSchemaOpenAPI(w http.ResponseWriter, r *http.Request, id SchemaId)
	// (POST /schemas/{id}/validate)
	ValidateRecord(w http.ResponseWriter, r *http.Request, id SchemaId)
	// (DELETE /schemas/{id}/cache)
	InvalidateSchema(w http.ResponseWriter, r *http.Request, id SchemaId)
}

// InvalidParamFormatError is reported when a path parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper converts routed requests to handler calls.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) bindID(w http.ResponseWriter, r *http.Request) (SchemaId, bool) {
	var id SchemaId
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (siw *ServerInterfaceWrapper) withID(call func(http.ResponseWriter, *http.Request, SchemaId)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := siw.bindID(w, r)
		if !ok {
			return
		}
		call(w, r, id)
	}
}

// HandlerFromMux registers every route of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		},
	}

	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/schemas", si.ListSchemas)
	r.Get("/schemas/{id}", wrapper.withID(si.DescribeSchema))
	r.Get("/schemas/{id}/openapi", wrapper.withID(si.GetSchemaOpenAPI))
	r.Post("/schemas/{id}/validate", wrapper.withID(si.ValidateRecord))
	r.Delete("/schemas/{id}/cache", wrapper.withID(si.InvalidateSchema))

	return r
}

// GetSwagger returns the OpenAPI description of this API.
func GetSwagger() (*openapi3.T, error) {
	idParam := openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").
			WithDescription("Schema identifier").
			WithSchema(openapi3.NewStringSchema())},
	}

	jsonResponse := func(desc string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription(desc).
			WithJSONSchema(openapi3.NewObjectSchema())}
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Schemagate API",
			Description: "Validate records against declarative field schemas.",
			Version:     apiVersion,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/health", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "getHealth",
					Responses:   openapi3.NewResponses(openapi3.WithStatus(200, jsonResponse("Service is up"))),
				},
			}),
			openapi3.WithPath("/info", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "getInfo",
					Responses:   openapi3.NewResponses(openapi3.WithStatus(200, jsonResponse("Build information"))),
				},
			}),
			openapi3.WithPath("/schemas", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "listSchemas",
					Responses:   openapi3.NewResponses(openapi3.WithStatus(200, jsonResponse("Known schema identifiers"))),
				},
			}),
			openapi3.WithPath("/schemas/{id}", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "describeSchema",
					Parameters:  idParam,
					Responses: openapi3.NewResponses(
						openapi3.WithStatus(200, jsonResponse("Compiled schema summary")),
						openapi3.WithStatus(404, jsonResponse("Unknown schema")),
					),
				},
			}),
			openapi3.WithPath("/schemas/{id}/openapi", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "getSchemaOpenAPI",
					Parameters:  idParam,
					Responses: openapi3.NewResponses(
						openapi3.WithStatus(200, jsonResponse("OpenAPI schema object for records")),
						openapi3.WithStatus(404, jsonResponse("Unknown schema")),
					),
				},
			}),
			openapi3.WithPath("/schemas/{id}/validate", &openapi3.PathItem{
				Post: &openapi3.Operation{
					OperationID: "validateRecord",
					Parameters:  idParam,
					RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
						WithRequired(true).
						WithJSONSchema(openapi3.NewObjectSchema())},
					Responses: openapi3.NewResponses(
						openapi3.WithStatus(200, jsonResponse("Record is valid")),
						openapi3.WithStatus(400, jsonResponse("Body is not a JSON object")),
						openapi3.WithStatus(404, jsonResponse("Unknown schema")),
						openapi3.WithStatus(422, jsonResponse("Record is invalid")),
						openapi3.WithStatus(500, jsonResponse("Schema cannot be compiled")),
					),
				},
			}),
			openapi3.WithPath("/schemas/{id}/cache", &openapi3.PathItem{
				Delete: &openapi3.Operation{
					OperationID: "invalidateSchema",
					Parameters:  idParam,
					Responses: openapi3.NewResponses(
						openapi3.WithStatus(204, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Cached validator dropped")}),
					),
				},
			}),
		),
	}
	return doc, nil
}
