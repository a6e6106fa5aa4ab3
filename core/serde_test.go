package core

import (
	"bytes"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type testGate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Project string `json:"project"`
	Active  bool   `json:"active"`
}

func TestParams_ToQuery(t *testing.T) {
	params := Params{"name": "gate1", "project": "p-7", "page_size": 50}
	query := params.ToQuery()
	// url.Values encodes keys in sorted order
	expected := "name=gate1&page_size=50&project=p-7"
	if query != expected {
		t.Errorf("ToQuery() = %q, want %q", query, expected)
	}
}

func TestParams_ToBody(t *testing.T) {
	params := Params{"value": true}
	reader, err := params.ToBody()
	if err != nil {
		t.Fatalf("ToBody() error: %v", err)
	}
	data, _ := io.ReadAll(reader)
	if string(data) != `{"value":true}` {
		t.Errorf("ToBody() = %s", data)
	}
}

func TestParams_Update(t *testing.T) {
	params := Params{"cleaner": "c1", "external_name": "temp"}
	params.Update(Params{"external_name": "other", "freq": "1H"}, false)
	if params["external_name"] != "temp" {
		t.Errorf("Update without override replaced existing key: %v", params["external_name"])
	}
	if params["freq"] != "1H" {
		t.Errorf("Update did not add new key")
	}
}

func TestParams_Without(t *testing.T) {
	params := Params{"a": 1, "b": 2, "c": 3}
	params.Without("a", "c")
	if len(params) != 1 || params["b"] != 2 {
		t.Errorf("Without() left %v", params)
	}
}

func TestParams_FromStruct(t *testing.T) {
	params, err := NewParamsFromStruct(testGate{ID: "g-1", Name: "gate1", Project: "p-1"})
	if err != nil {
		t.Fatalf("NewParamsFromStruct error: %v", err)
	}
	if params["name"] != "gate1" || params["project"] != "p-1" {
		t.Errorf("FromStruct produced %v", params)
	}
}

func TestRecord_Fill(t *testing.T) {
	record := Record{"id": "g-9", "name": "gate9", "project": "p-1", "active": true}
	var gate testGate
	if err := record.Fill(&gate); err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if gate.ID != "g-9" || gate.Name != "gate9" || !gate.Active {
		t.Errorf("Fill produced %+v", gate)
	}
}

func TestRecord_Fill_NumberToString(t *testing.T) {
	// Some platform ids are numeric; string fields must still fill.
	record := Record{"id": float64(42), "name": "gate42"}
	var gate testGate
	if err := record.Fill(&gate); err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if gate.ID != "42" {
		t.Errorf("Fill numeric id = %q, want \"42\"", gate.ID)
	}
}

func TestRecord_RecordID(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{"string id", Record{"id": "uuid-1"}, "uuid-1"},
		{"numeric id", Record{"id": float64(7)}, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.RecordID(); got != tt.want {
				t.Errorf("RecordID() = %q, want %q", got, tt.want)
			}
		})
	}
	t.Run("missing id panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Errorf("RecordID() on record without id did not panic")
			}
		}()
		_ = Record{"name": "x"}.RecordID()
	})
}

func TestRecord_RecordOdata(t *testing.T) {
	record := Record{"id": "p-1", "odata": "op-9"}
	if got := record.RecordOdata(); got != "op-9" {
		t.Errorf("RecordOdata() = %q", got)
	}
	if got := (Record{"id": "p-1"}).RecordOdata(); got != "" {
		t.Errorf("RecordOdata() on record without odata = %q", got)
	}
}

func TestRecord_SetMissingValue(t *testing.T) {
	record := Record{"name": "gate1"}
	record.SetMissingValue("name", "other")
	record.SetMissingValue("comment", "added")
	if record["name"] != "gate1" || record["comment"] != "added" {
		t.Errorf("SetMissingValue produced %v", record)
	}
}

func TestRecord_PrettyTable(t *testing.T) {
	record := Record{
		"id":           "g-1",
		"name":         "gate1",
		"internal_raw": "should not show",
	}
	table := record.PrettyTable()
	if !strings.Contains(table, "gate1") {
		t.Errorf("PrettyTable missing name:\n%s", table)
	}
	if strings.Contains(table, "should not show") {
		t.Errorf("PrettyTable leaked non-printable attr:\n%s", table)
	}
}

func TestRecordSet_Fill(t *testing.T) {
	records := RecordSet{
		{"id": "g-1", "name": "gate1"},
		{"id": "g-2", "name": "gate2"},
	}
	var gates []testGate
	if err := records.Fill(&gates); err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if len(gates) != 2 || gates[1].Name != "gate2" {
		t.Errorf("Fill produced %+v", gates)
	}
}

func newTestResponse(contentType string, body []byte) *http.Response {
	return &http.Response{
		StatusCode:    http.StatusOK,
		ContentLength: int64(len(body)),
		Header:        http.Header{HeaderContentType: []string{contentType}},
		Body:          io.NopCloser(bytes.NewReader(body)),
	}
}

func TestUnmarshalToRecordUnion_JSONObject(t *testing.T) {
	resp := newTestResponse(ContentTypeJSON, []byte(`{"id": "g-1", "name": "gate1"}`))
	result, err := unmarshalToRecordUnion(resp)
	if err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	record, ok := result.(Record)
	if !ok {
		t.Fatalf("expected Record, got %T", result)
	}
	if record["name"] != "gate1" {
		t.Errorf("record = %v", record)
	}
}

func TestUnmarshalToRecordUnion_JSONArray(t *testing.T) {
	resp := newTestResponse(ContentTypeJSON, []byte(`[{"id": "g-1"}, {"id": "g-2"}]`))
	result, err := unmarshalToRecordUnion(resp)
	if err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	records, ok := result.(RecordSet)
	if !ok {
		t.Fatalf("expected RecordSet, got %T", result)
	}
	if len(records) != 2 {
		t.Errorf("len = %d", len(records))
	}
}

func TestUnmarshalToRecordUnion_Empty(t *testing.T) {
	resp := &http.Response{
		StatusCode:    http.StatusNoContent,
		ContentLength: 0,
		Body:          io.NopCloser(bytes.NewReader(nil)),
	}
	result, err := unmarshalToRecordUnion(resp)
	if err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	record, ok := result.(Record)
	if !ok || !record.Empty() {
		t.Errorf("expected empty Record, got %#v", result)
	}
}

func TestUnmarshalToRecordUnion_Msgpack(t *testing.T) {
	payload, err := msgpack.Marshal(map[string]any{"index": []any{0, 1}, "data": []any{1.5, 2.5}})
	if err != nil {
		t.Fatalf("msgpack marshal error: %v", err)
	}
	resp := newTestResponse(ContentTypeMsgpack, payload)
	result, err := unmarshalToRecordUnion(resp)
	if err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	record, ok := result.(Record)
	if !ok {
		t.Fatalf("expected Record, got %T", result)
	}
	if _, ok := record["index"]; !ok {
		t.Errorf("msgpack record missing index: %v", record)
	}
}

func TestDataEnvelopeToRecordSet(t *testing.T) {
	data := []any{
		map[string]any{"id": "s-1"},
		map[string]any{"id": "s-2"},
	}
	records := dataEnvelopeToRecordSet(data)
	if len(records) != 2 || records[0]["id"] != "s-1" {
		t.Errorf("dataEnvelopeToRecordSet = %v", records)
	}
	if got := dataEnvelopeToRecordSet("not a list"); len(got) != 0 {
		t.Errorf("non-list envelope produced %v", got)
	}
}

func TestFlexibleUnmarshal_MapToStruct(t *testing.T) {
	type nested struct {
		Freq string `json:"freq"`
	}
	type target struct {
		ID     string `json:"id"`
		Count  int    `json:"count"`
		Nested nested `json:"nested"`
	}
	var got target
	data := []byte(`{"id": 12, "count": 3, "nested": {"freq": "1H"}}`)
	if err := FlexibleUnmarshal(data, &got); err != nil {
		t.Fatalf("FlexibleUnmarshal error: %v", err)
	}
	want := target{ID: "12", Count: 3, Nested: nested{Freq: "1H"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlexibleUnmarshal = %+v, want %+v", got, want)
	}
}
