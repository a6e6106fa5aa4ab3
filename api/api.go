// Package api embeds a snapshot of the platform OpenAPI v3 schema and exposes
// lookup helpers over it. The snapshot is the offline source of truth for
// endpoint shapes: searchable query parameters, request bodies and the
// "data" list envelope.
package api

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	//go:embed schema/api.json
	fs embed.FS

	docOnce sync.Once
	doc     *openapi3.T
	docErr  error
)

const schemaRelPath = "schema/api.json"

// loadDocOnce parses the embedded OpenAPI document exactly once. Errors are
// cached and returned on subsequent calls.
func loadDocOnce() (*openapi3.T, error) {
	docOnce.Do(func() {
		data, err := fs.ReadFile(schemaRelPath)
		if err != nil {
			docErr = fmt.Errorf("read embedded schema: %w", err)
			return
		}
		loader := openapi3.NewLoader()
		doc, docErr = loader.LoadFromData(data)
	})
	return doc, docErr
}

// GetOpenApiResource returns the path item of a resource path. Both slashed
// and unslashed forms are accepted.
func GetOpenApiResource(resourcePath string) (*openapi3.PathItem, error) {
	base := "/" + strings.Trim(resourcePath, "/")
	withSlash := base + "/"

	document, err := loadDocOnce()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	paths := document.Paths.Map()
	if item := paths[withSlash]; item != nil {
		return item, nil
	}
	if item := paths[base]; item != nil {
		return item, nil
	}

	var available []string
	for path := range paths {
		available = append(available, path)
	}
	return nil, fmt.Errorf(
		"path %q not found in OpenAPI schema. Available paths:\n  - %s",
		resourcePath,
		strings.Join(available, "\n  - "),
	)
}

// GetComponentSchema returns a component schema by name or by "#/components/schemas/<name>" ref.
func GetComponentSchema(ref string) (*openapi3.SchemaRef, error) {
	if parts := strings.Split(ref, "/"); len(parts) > 0 {
		ref = parts[len(parts)-1]
	}
	document, err := loadDocOnce()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if document.Components == nil {
		return nil, fmt.Errorf("OpenAPI document has no components defined")
	}
	schemaRef, ok := document.Components.Schemas[ref]
	if !ok {
		return nil, fmt.Errorf("component schema %q not found in OpenAPI document", ref)
	}
	return schemaRef, nil
}

// QueryParametersGET extracts the query parameters of a path's GET operation.
// A path without a GET operation reports no query parameters.
func QueryParametersGET(resourcePath string) ([]*openapi3.Parameter, error) {
	resource, err := GetOpenApiResource(resourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get OpenAPI resource %q: %w", resourcePath, err)
	}
	if resource == nil || resource.Get == nil {
		return []*openapi3.Parameter{}, nil
	}

	queryParams := make([]*openapi3.Parameter, 0)
	for _, paramRef := range resource.Get.Parameters {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		if strings.EqualFold(paramRef.Value.In, "query") {
			queryParams = append(queryParams, paramRef.Value)
		}
	}
	return queryParams, nil
}

// SearchableQueryParams returns the primitive (string or integer) query
// parameters of a path's GET operation. These are the fields a List call can
// filter on.
func SearchableQueryParams(resourcePath string) ([]string, error) {
	params, err := QueryParametersGET(resourcePath)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, p := range params {
		if p == nil || p.Schema == nil || p.Schema.Value == nil {
			continue
		}
		schema := p.Schema.Value
		if !isStringOrInteger(schema) || schema.ReadOnly {
			continue
		}
		result = append(result, p.Name)
	}
	return result, nil
}

// ListItemSchemaGET extracts the item schema of a GET 200 response. It
// understands the platform list envelope ({"data": [...]}), flat arrays and
// single-object responses.
func ListItemSchemaGET(resourcePath string) (*openapi3.SchemaRef, error) {
	resource, err := GetOpenApiResource(resourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get OpenAPI resource %q: %w", resourcePath, err)
	}
	if resource == nil || resource.Get == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}, nil
	}

	resp := resource.Get.Responses.Status(200)
	if resp == nil || resp.Value == nil {
		return nil, fmt.Errorf("GET missing 200 response for resource %s", resourcePath)
	}
	content := resp.Value.Content["application/json"]
	if content == nil || content.Schema == nil {
		return nil, fmt.Errorf("GET response missing or malformed schema")
	}
	root := resolveRef(content.Schema)

	// Enveloped list: {"data": [...]}
	if data, ok := root.Properties["data"]; ok && data != nil {
		resolved := resolveRef(data)
		if isArray(resolved) {
			if resolved.Items == nil {
				return nil, fmt.Errorf("GET response 'data' array has no items schema")
			}
			return &openapi3.SchemaRef{Value: resolveRef(resolved.Items)}, nil
		}
		return nil, fmt.Errorf("GET response 'data' is not an array")
	}

	// Flat array
	if isArray(root) {
		if root.Items == nil {
			return nil, fmt.Errorf("GET root array has no items schema")
		}
		return &openapi3.SchemaRef{Value: resolveRef(root.Items)}, nil
	}

	// Single object
	return &openapi3.SchemaRef{Value: root}, nil
}

// RequestBodySchemaPOST extracts the request body schema of a path's POST
// operation. Missing bodies resolve to an empty schema.
func RequestBodySchemaPOST(resourcePath string) (*openapi3.SchemaRef, error) {
	resource, err := GetOpenApiResource(resourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get OpenAPI resource %q: %w", resourcePath, err)
	}
	if resource == nil || resource.Post == nil || resource.Post.RequestBody == nil ||
		resource.Post.RequestBody.Value == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}, nil
	}
	content := resource.Post.RequestBody.Value.Content["application/json"]
	if content == nil {
		content = resource.Post.RequestBody.Value.Content["*/*"]
	}
	if content == nil || content.Schema == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}, nil
	}
	return &openapi3.SchemaRef{Value: resolveRef(content.Schema)}, nil
}

func isArray(schema *openapi3.Schema) bool {
	return schema != nil && schema.Type != nil && len(*schema.Type) > 0 && (*schema.Type)[0] == openapi3.TypeArray
}

func isStringOrInteger(schema *openapi3.Schema) bool {
	if schema == nil || schema.Type == nil || len(*schema.Type) == 0 {
		return false
	}
	switch (*schema.Type)[0] {
	case openapi3.TypeString, openapi3.TypeInteger:
		return true
	default:
		return false
	}
}

// resolveRef follows $ref chains down to a concrete schema.
func resolveRef(ref *openapi3.SchemaRef) *openapi3.Schema {
	seen := map[string]bool{}
	for ref != nil && ref.Ref != "" && !seen[ref.Ref] {
		seen[ref.Ref] = true
		resolved, err := GetComponentSchema(ref.Ref)
		if err != nil {
			break
		}
		ref = resolved
	}
	if ref == nil || ref.Value == nil {
		panic(fmt.Sprintf("cannot resolve final schema from ref: %+v", ref))
	}
	return ref.Value
}
