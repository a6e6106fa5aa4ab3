package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ResourceTypeKey = "@resourceType"
	customRawKey    = "@raw" // used to store raw string values in Record
)

var empty = struct{}{}
var printableAttrs = map[string]struct{}{
	"id":           empty,
	"name":         empty,
	"odata":        empty,
	"project":      empty,
	"organization": empty,
	"comment":      empty,
	"active":       empty,
	"crontab":      empty,
	"timezone":     empty,
	"gate":         empty,
	"importer":     empty,
	"analysis":     empty,
	"generator":    empty,
	"freq":         empty,
	"protocol":     empty,
	"host":         empty,
	"login":        empty,
}

type FillFunc func(Record, any) error

var fillFunc FillFunc = func(r Record, container any) error {
	dbByte, err := json.Marshal(r)
	if err != nil {
		return err
	}
	// Use FlexibleUnmarshal to automatically convert numbers to strings for string fields
	return FlexibleUnmarshal(dbByte, container)
}

//  ######################################################
//              FUNCTION PARAMS
//  ######################################################

// Params represents a generic set of key-value parameters,
// used for constructing query strings or request bodies.
type Params map[string]any

// ToQuery serializes the Params into a URL-encoded query string.
// This is useful for GET requests where parameters are passed via the URL.
func (pr *Params) ToQuery() string {
	return convertMapToQuery(*pr)
}

// ToBody serializes the Params into a JSON-encoded io.Reader,
// suitable for use as the body of an HTTP POST, PUT, or PATCH request.
func (pr *Params) ToBody() (io.Reader, error) {
	buffer, err := json.Marshal(*pr)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buffer), nil
}

// Update merges another Params map into the original Params.
// If a key already exists and `override` is true, its value is skipped.
// If a key doesn't exist, the key-value pair is added.
func (pr *Params) Update(other Params, override bool) {
	for key, value := range other {
		if _, exists := (*pr)[key]; exists && override {
			continue
		}
		(*pr)[key] = value
	}
}

// UpdateWithout merges another Params map into the original Params.
// If a key exists in the `without` slice, it is skipped.
// If a key already exists and `override` is false, its value is also skipped.
func (pr *Params) UpdateWithout(other Params, override bool, without []string) {
	for key, value := range other {
		if contains(without, key) {
			continue
		}
		if _, exists := (*pr)[key]; exists && !override {
			continue
		}
		(*pr)[key] = value
	}
}

// Without removes the specified keys from the Params map.
// This is useful when you want to exclude certain parameters before sending a request.
func (pr *Params) Without(keys ...string) {
	for _, key := range keys {
		delete(*pr, key)
	}
}

// FromStruct converts any struct to Params while maintaining the json tags as keys.
// This method uses reflection to directly extract struct fields and their json tags,
// avoiding the overhead of JSON marshaling/unmarshaling.
func (pr *Params) FromStruct(obj any) error {
	if obj == nil {
		return nil
	}

	structMap := structToMap(obj)
	for key, value := range structMap {
		(*pr)[key] = value
	}

	return nil
}

// NewParamsFromStruct creates a new Params map from any struct, respecting json tags.
// This is a convenience function that creates a new Params and calls FromStruct on it.
func NewParamsFromStruct(obj any) (Params, error) {
	params := make(Params)
	if obj == nil {
		return params, nil
	}
	err := params.FromStruct(obj)
	return params, err
}

//  ######################################################
//              RETURN TYPES
//  ######################################################

// getPrintableAttrs returns a slice of keys to be printed from the Record
func getPrintableAttrs(r Record) []string {
	var attrs []string
	for key := range r {
		if _, ok := printableAttrs[key]; ok {
			attrs = append(attrs, key)
		}
	}
	sort.Strings(attrs) // Sort to keep consistent order
	return attrs
}

// Renderable is an interface implemented by types that can render themselves
// into a human-readable string format, typically for CLI display or logging.
type Renderable interface {
	PrettyTable() string
	PrettyJson(indent ...string) string
}

// Filler is a generic interface for filling a struct or slice of structs.
type Filler interface {
	// Fill populates the given container with data from the implementing type.
	// The container can be a pointer to a struct (for Record),
	// or a pointer to a slice of structs (for RecordSet).
	Fill(container any) error
}

// DisplayableRecord defines a unified interface for working with structured data
// that has been deserialized from an API response. It combines both rendering and
// data population capabilities.
type DisplayableRecord interface {
	Renderable
	Filler
}

// Record represents a single generic data object as a key-value map.
// It's commonly used to unmarshal a single JSON object from an API response.
// When a response is empty (e.g., 204 No Content), an empty Record{} is returned.
type Record map[string]any

// RecordSet represents a list of Record objects.
// It is typically used to represent responses containing multiple items.
type RecordSet []Record

// RecordUnion defines a union of supported record types for generic operations.
// It can be a single Record or a RecordSet.
// This allows functions to operate on any supported response type
// using Go generics.
type RecordUnion interface {
	Record | RecordSet
}

// Fill populates the exported fields of the given struct pointer using values
// from the Record (a map[string]any). It uses JSON marshaling and unmarshaling
// to automatically map keys to struct fields based on their `json` tags and
// perform type conversions where needed.
//
// The target container must be a non-nil pointer to a struct. Fields in the struct
// must be exported (i.e., start with an uppercase letter) and optionally tagged
// with `json` to match keys in the Record.
//
// Returns an error if the container is not a pointer to a struct or if serialization fails.
func (r Record) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a struct")
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("container must point to a struct")
	}
	return fillFunc(r, container)
}

// RecordID returns the ID of the record.
// It looks up the "id" field in the record map. Platform ids are opaque
// tokens (uuid strings for most resources), so the value is stringified.
func (r Record) RecordID() string {
	idVal, ok := r["id"]
	if !ok {
		panic(fmt.Sprintf("record id not found in record %s", r.PrettyTable()))
	}
	if intId, err := toInt(idVal); err == nil {
		return fmt.Sprintf("%d", intId)
	}
	return fmt.Sprintf("%v", idVal)
}

// RecordName returns the name of the record as a string.
// It looks up the "name" field in the record map.
func (r Record) RecordName() string {
	nameVal, ok := r["name"]
	if !ok {
		panic(fmt.Sprintf("record name not found in record %s", r.PrettyTable()))
	}
	return fmt.Sprintf("%v", nameVal)
}

// RecordOdata returns the odata addressing identifier of the record as a
// string. It looks up the "odata" field in the record map.
func (r Record) RecordOdata() string {
	odataVal, ok := r["odata"]
	if !ok {
		panic(fmt.Sprintf("odata id not found in record %s", r.PrettyTable()))
	}
	return fmt.Sprintf("%v", odataVal)
}

// SetMissingValue If the key is not present in the Record, set it to the provided value
func (r Record) SetMissingValue(key string, value any) {
	if _, exists := r[key]; !exists {
		r[key] = value
	}
}

// PrettyTable prints a single Record as a table
func (r Record) PrettyTable() string {
	headers := []string{"attr", "value"}
	var rows [][]any
	var name string
	if resourceTyp, ok := r[ResourceTypeKey]; ok {
		name = resourceTyp.(string)
	}
	if len(r) == 0 {
		return "<>"
	}
	// Iterate over printable attributes and add them to rows
	for _, key := range getPrintableAttrs(r) {
		if val, ok := r[key]; ok && val != nil {
			rows = append(rows, []any{key, fmt.Sprintf("%v", val)})
		}
	}

	// Collect remaining attributes that are not in printableAttrs
	remainingAttrs := make(map[string]any)
	for key, value := range r {
		if _, ok := printableAttrs[key]; !ok {
			if key == ResourceTypeKey || value == nil {
				continue
			}
			remainingAttrs[key] = value
		}
	}
	if len(remainingAttrs) > 0 {
		remainingJSON, _ := json.Marshal(remainingAttrs)
		rows = append(rows, []any{"<<remaining attrs>>", string(remainingJSON)})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(headers)
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(85)
	if name != "" {
		return fmt.Sprintf("%s:\n%s", name, t.Render("grid"))
	}
	return fmt.Sprintf("\n%s", t.Render("grid"))
}

// PrettyJson prints the Record as JSON, optionally indented
func (r Record) PrettyJson(indent ...string) string {
	var b []byte
	var err error
	if len(indent) > 0 {
		b, err = json.MarshalIndent(r, "", indent[0])
	} else {
		b, err = json.Marshal(r)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

func (r Record) Empty() bool {
	return len(r) == 0
}

func (r Record) String() string {
	return r.PrettyTable()
}

// Fill populates the provided container slice with data from the RecordSet.
// The container must be a non-nil pointer to a slice of structs. Each Record in the RecordSet
// is individually marshaled into an element of the slice using JSON serialization,
// and appended to the resulting slice.
func (rs RecordSet) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a slice")
	}

	sliceVal := val.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("container must point to a slice")
	}

	elemType := sliceVal.Type().Elem()
	isPtrElem := elemType.Kind() == reflect.Ptr

	var targetType reflect.Type
	if isPtrElem {
		if elemType.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("slice element must be pointer to a struct")
		}
		targetType = elemType.Elem()
	} else {
		if elemType.Kind() != reflect.Struct {
			return fmt.Errorf("slice element must be a struct")
		}
		targetType = elemType
	}

	for _, record := range rs {
		elemPtr := reflect.New(targetType)
		if err := record.Fill(elemPtr.Interface()); err != nil {
			return err
		}
		if isPtrElem {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr.Elem()))
		}
	}
	return nil
}

// PrettyTable prints the full RecordSet by rendering each individual Record
func (rs RecordSet) PrettyTable() string {
	if len(rs) == 0 {
		return "[]"
	}
	var out strings.Builder
	out.WriteString("[\n")
	for i, record := range rs {
		out.WriteString(record.PrettyTable())
		if i < len(rs)-1 {
			out.WriteString("\n\n") // separate entries with a blank line
		}
	}
	out.WriteString("\n]")
	return out.String()
}

func (rs RecordSet) Empty() bool {
	return len(rs) == 0
}

// PrettyJson prints the RecordSet as JSON, optionally indented
func (rs RecordSet) PrettyJson(indent ...string) string {
	var b []byte
	var err error
	if len(indent) > 0 {
		b, err = json.MarshalIndent(rs, "", indent[0])
	} else {
		b, err = json.Marshal(rs)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

// unmarshalToRecordUnion parses an HTTP response body into one of the supported record types:
// - Record: a map representing a single JSON object (empty Record{} for empty responses or 204 No Content).
// - RecordSet: a slice of Records representing a JSON array.
//
// Bulk endpoints (series data points) may respond with msgpack instead of
// JSON; the Content-Type header decides which decoder is used.
//
// It inspects the first non-whitespace character of the response body to determine whether
// to unmarshal it into a Record or RecordSet. If the JSON format is unsupported (i.e., not an object or array),
// an error is returned.
func unmarshalToRecordUnion(response *http.Response) (Renderable, error) {
	defer response.Body.Close()

	// Handle empty response
	if response.ContentLength == 0 || response.StatusCode == http.StatusNoContent {
		return Record{}, nil
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(response.Header.Get(HeaderContentType)), ContentTypeMsgpack) {
		return unmarshalMsgpackRecords(body)
	}
	// Check first non-whitespace character
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Record{}, nil
	}
	switch trimmed[0] {
	case '{': // JSON object
		var rec Record
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, err
		}
		return rec, nil
	case '[': // JSON array
		// First try to unmarshal as RecordSet (array of objects)
		var recSet RecordSet
		if err := json.Unmarshal(body, &recSet); err == nil {
			return recSet, nil
		}
		// If that fails, it might be an array of any type, convert each to Record
		var anySlice []any
		if err := json.Unmarshal(body, &anySlice); err != nil {
			return nil, err
		}
		recordSet := make(RecordSet, len(anySlice))
		for i, item := range anySlice {
			recordSet[i] = Record{customRawKey: item}
		}
		return recordSet, nil
	case '"': // string
		return Record{customRawKey: body}, nil
	default:
		return nil, fmt.Errorf("unsupported JSON format: must be object or array")
	}
}

// unmarshalMsgpackRecords decodes a msgpack-encoded response body. The series
// data endpoint returns either a map (single frame) or an array of maps.
func unmarshalMsgpackRecords(body []byte) (Renderable, error) {
	var asMap map[string]any
	if err := msgpack.Unmarshal(body, &asMap); err == nil {
		return ToRecord(asMap), nil
	}
	var asList []map[string]any
	if err := msgpack.Unmarshal(body, &asList); err == nil {
		return Must(ToRecordSet(asList)), nil
	}
	var asAnyList []any
	if err := msgpack.Unmarshal(body, &asAnyList); err != nil {
		return nil, fmt.Errorf("unsupported msgpack payload: %w", err)
	}
	recordSet := make(RecordSet, len(asAnyList))
	for i, item := range asAnyList {
		recordSet[i] = Record{customRawKey: item}
	}
	return recordSet, nil
}

// applyCallbackForRecordUnion applies the provided callback function to a response if
// the response type matches the specified generic type T. It supports different types
// of Renderable responses (Record and RecordSet), and will only apply the
// callback for the exact type matching the generic type T.
func applyCallbackForRecordUnion[T RecordUnion](response Renderable, callback func(Renderable) (Renderable, error)) (Renderable, error) {
	switch typed := response.(type) {
	case Record:
		var zero T
		if _, ok := any(zero).(Record); ok {
			return callback(typed)
		}
		return typed, nil

	case RecordSet:
		var zero T
		if _, ok := any(zero).(RecordSet); ok {
			return callback(typed)
		}
		return typed, nil

	default:
		return nil, fmt.Errorf("unsupported type %T for result", response)
	}
}

// typeMatch checks whether the dynamic type of given Renderable value
// matches the generic type T at runtime.
func typeMatch[T RecordUnion](val Renderable) bool {
	var zero T
	return reflect.TypeOf(val) == reflect.TypeOf(zero)
}

// setResourceKey sets resource type key for tabular formatting (only if not already set).
func setResourceKey(result Renderable, resourceType string) error {
	switch v := result.(type) {
	case Record:
		if _, ok := v[ResourceTypeKey]; !ok && len(v) > 0 {
			v[ResourceTypeKey] = resourceType
		}
		return nil
	case RecordSet:
		for _, rec := range v {
			if _, ok := rec[ResourceTypeKey]; !ok && len(rec) > 0 {
				rec[ResourceTypeKey] = resourceType
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported type")
	}
}
