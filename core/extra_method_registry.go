package core

// ExtraMethodMetadata stores the URL path and HTTP verb for extra methods
type ExtraMethodMetadata struct {
	MethodName string // e.g., "SeriesSelect_POST"
	HTTPVerb   string // e.g., "POST"
	URLPath    string // e.g., "/odata/series/{id}/select/"
	Summary    string // e.g., "Select data points from a series"
}

// ExtraMethodRegistry is a global registry of extra method metadata.
// Resource packages populate it from their init() functions.
var ExtraMethodRegistry = map[string]map[string]ExtraMethodMetadata{
	// Key is resource type (e.g., "Series")
	// Value is map of method name to metadata
}

// RegisterExtraMethod registers metadata for an extra method
// This is called by resource init() functions
func RegisterExtraMethod(resourceType, methodName, httpVerb, urlPath, summary string) {
	if ExtraMethodRegistry[resourceType] == nil {
		ExtraMethodRegistry[resourceType] = make(map[string]ExtraMethodMetadata)
	}
	ExtraMethodRegistry[resourceType][methodName] = ExtraMethodMetadata{
		MethodName: methodName,
		HTTPVerb:   httpVerb,
		URLPath:    urlPath,
		Summary:    summary,
	}
}

// GetExtraMethodMetadata retrieves metadata for a specific extra method
func GetExtraMethodMetadata(resourceType, methodName string) (ExtraMethodMetadata, bool) {
	if methods, ok := ExtraMethodRegistry[resourceType]; ok {
		metadata, found := methods[methodName]
		return metadata, found
	}
	return ExtraMethodMetadata{}, false
}

// GetAllExtraMethodsForResource returns all extra methods for a resource type
func GetAllExtraMethodsForResource(resourceType string) []ExtraMethodMetadata {
	if methods, ok := ExtraMethodRegistry[resourceType]; ok {
		result := make([]ExtraMethodMetadata, 0, len(methods))
		for _, metadata := range methods {
			result = append(result, metadata)
		}
		return result
	}
	return nil
}
