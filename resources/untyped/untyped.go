// Package untyped contains the platform resource collections. Each collection
// embeds *core.OvbpResource and exposes the CRUD surface plus the non-CRUD
// operations its endpoint supports. Record-bound views (GateModel, ProjectModel, ...)
// wrap *core.Model and add typed helpers on top of a fetched record.
package untyped

import (
	"fmt"

	"github.com/openergy/go-ovbp-client/core"
)

// Resource categories as the platform names them. Used by Project.ListResources
// and Project.GetResource to address the odata collections generically.
const (
	CategoryGate     = "gate"
	CategoryImporter = "importer"
	CategoryCleaner  = "cleaner"
	CategoryAnalysis = "analysis"
)

// Categories lists all project resource categories in a stable order.
func Categories() []string {
	return []string{CategoryGate, CategoryImporter, CategoryCleaner, CategoryAnalysis}
}

// lookup resolves a sibling collection from the shared resource map. The map is
// populated by the rest aggregate at construction time, so a missing entry is a
// programming error and panics.
func lookup[T core.OvbpResourceAPIWithContext](rest core.OvbpRest, resourceType string) T {
	resource, ok := rest.GetResourceMap()[resourceType]
	if !ok {
		panic(fmt.Sprintf("resource '%s' is not registered in the resource map", resourceType))
	}
	typed, ok := resource.(T)
	if !ok {
		panic(fmt.Sprintf("resource '%s' has unexpected type %T", resourceType, resource))
	}
	return typed
}

// toStringID renders an identifier value the way it appears in request paths.
// JSON numbers arrive as float64 and must not pick up a decimal point.
func toStringID(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}

// modelsFrom converts a record set into bound models attached to the given collection.
// Records that fail model validation (no id or name) are skipped: the platform
// occasionally returns embedded partial objects in list payloads.
func modelsFrom(resource core.OvbpResourceAPIWithContext, records core.RecordSet) []*core.Model {
	models := make([]*core.Model, 0, len(records))
	for _, record := range records {
		model, err := core.NewModel(resource, record)
		if err != nil {
			continue
		}
		models = append(models, model)
	}
	return models
}
