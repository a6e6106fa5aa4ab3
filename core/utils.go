package core

import (
	"fmt"
	"reflect"
	"strings"
)

func toInt(val any) (int64, error) {
	var idInt int64
	switch v := val.(type) {
	case int64:
		idInt = v
	case float64:
		idInt = int64(v)
	case int:
		idInt = int64(v)
	default:
		return 0, fmt.Errorf("unexpected type for id field: %T", v)
	}
	return idInt, nil
}

// ToRecord converts a plain map into a Record.
func ToRecord(m map[string]any) Record {
	converted := Record{}
	for k, v := range m {
		converted[k] = v
	}
	return converted
}

// ToRecordSet converts a slice of plain maps into a RecordSet.
func ToRecordSet(list []map[string]any) (RecordSet, error) {
	records := make(RecordSet, 0, len(list))
	for _, item := range list {
		records = append(records, ToRecord(item))
	}
	return records, nil
}

// contains checks if a string is present in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Must panics if err is non-nil, otherwise returns v.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// BuildResourcePathWithID builds a complete resource path with an ID parameter and optional additional segments.
// It takes a resource path (e.g., "/odata/gates"), an ID of any type, and optional additional path segments.
// Returns the complete path (e.g., "/odata/gates/123/last_files" or "/odata/gates/uuid/last_files").
func BuildResourcePathWithID(resourcePath string, id any, additionalSegments ...string) string {
	var path string
	if intId, err := toInt(id); err == nil {
		path = fmt.Sprintf("%s/%d", resourcePath, intId)
	} else {
		path = fmt.Sprintf("%s/%v", resourcePath, id)
	}

	for _, segment := range additionalSegments {
		path += "/" + segment
	}

	return path
}

// structToMap converts a struct to a map[string]interface{} using reflection,
// respecting json tags and handling nested structs recursively.
// This avoids the overhead of JSON marshaling/unmarshaling.
func structToMap(item any) map[string]any {
	res := map[string]any{}
	if item == nil {
		return res
	}

	v := reflect.TypeOf(item)
	reflectValue := reflect.ValueOf(item)
	reflectValue = reflect.Indirect(reflectValue)

	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return res
	}

	for i := 0; i < v.NumField(); i++ {
		jsonTag := v.Field(i).Tag.Get("json")
		field := reflectValue.Field(i)

		if !field.CanInterface() {
			continue
		}

		tagName, omitEmpty := parseJSONTag(jsonTag)
		if tagName == "" || tagName == "-" {
			continue
		}

		fieldValue := field.Interface()

		switch {
		case field.Kind() == reflect.Ptr:
			if field.IsNil() {
				if omitEmpty {
					continue
				}
				res[tagName] = nil
			} else if field.Elem().Kind() == reflect.Struct {
				res[tagName] = structToMap(field.Interface())
			} else {
				res[tagName] = field.Elem().Interface()
			}

		case v.Field(i).Type.Kind() == reflect.Struct:
			res[tagName] = structToMap(fieldValue)

		case field.Kind() == reflect.Slice || field.Kind() == reflect.Array:
			if field.Kind() == reflect.Slice && field.IsNil() {
				if omitEmpty {
					continue
				}
				res[tagName] = nil
			} else if field.Len() == 0 {
				if omitEmpty {
					continue
				}
				res[tagName] = fieldValue
			} else {
				res[tagName] = fieldValue
			}

		default:
			if omitEmpty && isZeroValue(field) {
				continue
			}
			res[tagName] = fieldValue
		}
	}
	return res
}

// parseJSONTag parses a JSON struct tag and returns the field name and whether omitempty is specified.
func parseJSONTag(tag string) (name string, omitEmpty bool) {
	if tag == "" {
		return "", false
	}

	parts := strings.Split(tag, ",")
	name = parts[0]

	for i := 1; i < len(parts); i++ {
		if strings.TrimSpace(parts[i]) == "omitempty" {
			omitEmpty = true
			break
		}
	}

	return name, omitEmpty
}

// isZeroValue reports whether v is the zero value for its type.
// This is used to implement omitempty behavior for non-pointer types.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	case reflect.String:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
