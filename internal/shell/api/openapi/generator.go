// Package openapi provides reflective OpenAPI 3.0 specification generation
// for the sponsors API.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 specifications from registered models and routes.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	models      map[string]any
	enums       map[string][]string
	routes      []Route
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// Param describes a path parameter.
type Param struct {
	Name string
	Enum []string // optional closed value set
}

// Route describes one operation.
type Route struct {
	Method      string // http.MethodGet, ...
	Path        string // e.g. "/api/v1/sponsors/name/{name}"
	OperationID string
	Summary     string
	Tag         string
	Params      []Param
	Request     string         // component schema name of the body, if any
	Responses   map[int]string // status -> component schema name ("" for no body)
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Sponsors API",
		version:     "1.0.0",
		description: "Sponsor directory with validated, reachable sponsor links",
		models:      make(map[string]any),
		enums:       make(map[string][]string),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// RegisterModel adds a component schema extracted from a struct.
func (g *Generator) RegisterModel(name string, model any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.models[name] = model
	g.cachedSpec = nil // Invalidate cache
}

// RegisterEnum restricts a JSON property to a closed value set in every model.
func (g *Generator) RegisterEnum(property string, values []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enums[property] = values
	g.cachedSpec = nil
}

// RegisterRoute adds an operation.
func (g *Generator) RegisterRoute(route Route) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes = append(g.routes, route)
	g.cachedSpec = nil
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	for name, model := range g.models {
		spec.Components.Schemas[name] = g.extractSchema(model)
	}

	for _, route := range g.routes {
		g.addRouteToSpec(spec, route)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Schema Generation
// =============================================================================

// extractSchema extracts an OpenAPI schema from a Go struct.
func (g *Generator) extractSchema(model any) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		// Get JSON tag
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		// Parse JSON tag for name
		name := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
		}

		propSchema := g.goTypeToSchema(field.Type)
		if values, ok := g.enums[name]; ok && propSchema.Value != nil {
			propSchema.Value.Enum = stringsToAny(values)
		}
		schema.Properties[name] = propSchema
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: g.goTypeToSchema(t.Elem())},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		// Handle time.Time specially
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		// Registered models are referenced instead of inlined
		for name, model := range g.models {
			mt := reflect.TypeOf(model)
			if mt.Kind() == reflect.Ptr {
				mt = mt.Elem()
			}
			if mt == t {
				return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
			}
		}
		return g.extractSchema(reflect.New(t).Interface())

	default:
		// Unknown type, return generic object
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// =============================================================================
// Operation Generation
// =============================================================================

// addRouteToSpec adds one operation to its path item.
func (g *Generator) addRouteToSpec(spec *openapi3.T, route Route) {
	item := spec.Paths.Value(route.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		for _, p := range route.Params {
			schema := &openapi3.Schema{Type: &openapi3.Types{"string"}}
			if len(p.Enum) > 0 {
				schema.Enum = stringsToAny(p.Enum)
			}
			item.Parameters = append(item.Parameters, &openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:     p.Name,
					In:       "path",
					Required: true,
					Schema:   &openapi3.SchemaRef{Value: schema},
				},
			})
		}
		spec.Paths.Set(route.Path, item)
	}

	op := &openapi3.Operation{
		OperationID: route.OperationID,
		Summary:     route.Summary,
		Tags:        []string{route.Tag},
		Responses:   &openapi3.Responses{},
	}

	if route.Request != "" {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(schemaRef(route.Request)),
			},
		}
	}

	for status, schemaName := range route.Responses {
		resp := openapi3.NewResponse().WithDescription(http.StatusText(status))
		if schemaName != "" {
			resp = resp.WithJSONSchemaRef(schemaRef(schemaName))
		}
		op.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: resp})
	}

	item.SetOperation(route.Method, op)
}

// =============================================================================
// Helpers
// =============================================================================

func schemaRef(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
