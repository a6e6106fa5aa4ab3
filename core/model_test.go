package core

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// mockModelResource scripts the instance-level calls a Model issues.
type mockModelResource struct {
	*OvbpResource

	getByIdRecord Record
	getByIdErr    error
	getByIdCalls  int

	updateRecord Record
	updateBody   Params
	updateErr    error

	deletedID any
	deleteErr error

	actionName string
	actionVerb string
	actionBody Params
	actionErr  error
}

func (m *mockModelResource) GetByIdWithContext(ctx context.Context, id any) (Record, error) {
	m.getByIdCalls++
	return m.getByIdRecord, m.getByIdErr
}

func (m *mockModelResource) UpdateWithContext(ctx context.Context, id any, body Params) (Record, error) {
	m.updateBody = body
	return m.updateRecord, m.updateErr
}

func (m *mockModelResource) DeleteByIdWithContext(ctx context.Context, id any, queryParams, deleteParams Params) (Record, error) {
	m.deletedID = id
	return Record{}, m.deleteErr
}

func (m *mockModelResource) DetailActionWithContext(ctx context.Context, id any, action, verb string, body Params) (Record, error) {
	m.actionName = action
	m.actionVerb = verb
	m.actionBody = body
	if m.actionErr != nil {
		return nil, m.actionErr
	}
	record := Record{"id": id, "name": "gate1"}
	if value, ok := body["value"].(bool); ok {
		record["active"] = value
	}
	return record, nil
}

func newModelFixture() *mockModelResource {
	return &mockModelResource{
		OvbpResource: NewOvbpResource("odata/gates", "Gate", nil, NewResourceOps(L, C, R, U, D), nil),
	}
}

func TestNewModel_Validation(t *testing.T) {
	resource := newModelFixture()
	tests := []struct {
		name     string
		resource OvbpResourceAPIWithContext
		data     Record
	}{
		{"nil resource", nil, Record{"id": "g-1", "name": "gate1"}},
		{"nil record", resource, nil},
		{"missing id", resource, Record{"name": "gate1"}},
		{"missing name", resource, Record{"id": "g-1"}},
		{"nil name", resource, Record{"id": "g-1", "name": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewModel(tt.resource, tt.data); !IsValidationErr(err) {
				t.Errorf("NewModel() error = %v, want ValidationError", err)
			}
		})
	}

	model, err := NewModel(resource, Record{"id": "g-1", "name": "gate1"})
	if err != nil {
		t.Fatalf("NewModel() error: %v", err)
	}
	if model.ID() != "g-1" || model.Name() != "gate1" {
		t.Errorf("model identity = (%q, %q)", model.ID(), model.Name())
	}
}

func TestModel_Field(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1", "comment": "main gate"})

	value, err := model.Field("comment")
	if err != nil {
		t.Fatalf("Field() error: %v", err)
	}
	if value != "main gate" {
		t.Errorf("Field(comment) = %v", value)
	}

	_, err = model.Field("crontab")
	if !IsAttributeNotFoundErr(err) {
		t.Fatalf("Field(crontab) error = %v, want AttributeNotFoundError", err)
	}
	var attrErr *AttributeNotFoundError
	if errors.As(err, &attrErr) && attrErr.Attribute != "crontab" {
		t.Errorf("Attribute = %q", attrErr.Attribute)
	}
}

func TestModel_IsActive(t *testing.T) {
	resource := newModelFixture()

	model := MustModel(resource, Record{"id": "g-1", "name": "gate1", "active": true})
	active, err := model.IsActive()
	if err != nil || !active {
		t.Errorf("IsActive() = (%v, %v), want (true, nil)", active, err)
	}

	model = MustModel(resource, Record{"id": "g-1", "name": "gate1"})
	if _, err := model.IsActive(); !IsAttributeNotFoundErr(err) {
		t.Errorf("IsActive() without flag: %v", err)
	}
}

func TestModel_SnapshotIsACopy(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1"})

	snapshot := model.Snapshot()
	snapshot["name"] = "tampered"
	if model.Name() != "gate1" {
		t.Errorf("snapshot mutation leaked into the model: %q", model.Name())
	}
}

func TestModel_ReloadReplacesSnapshot(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1", "comment": "old"})

	// The fresh record drops "comment": a reload replaces, never merges.
	resource.getByIdRecord = Record{"id": "g-1", "name": "gate1", "active": true}
	if err := model.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if _, err := model.Field("comment"); !IsAttributeNotFoundErr(err) {
		t.Errorf("stale field survived the reload: %v", err)
	}
	if active, _ := model.IsActive(); !active {
		t.Errorf("reloaded snapshot not adopted")
	}
}

func TestModel_UpdateAdoptsResponse(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1", "comment": "old"})

	resource.updateRecord = Record{"id": "g-1", "name": "gate1", "comment": "new"}
	if err := model.Update(Params{"comment": "new"}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got := resource.updateBody["comment"]; got != "new" {
		t.Errorf("update body = %v", resource.updateBody)
	}
	if value, _ := model.Field("comment"); value != "new" {
		t.Errorf("Field(comment) = %v after update", value)
	}
}

func TestModel_UpdateRefetchesOnEmptyResponse(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1"})

	resource.updateRecord = Record{}
	resource.getByIdRecord = Record{"id": "g-1", "name": "gate1", "comment": "fresh"}
	if err := model.Update(Params{"comment": "fresh"}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if resource.getByIdCalls != 1 {
		t.Errorf("getByIdCalls = %d, want 1", resource.getByIdCalls)
	}
	if value, _ := model.Field("comment"); value != "fresh" {
		t.Errorf("Field(comment) = %v after empty-body update", value)
	}
}

func TestModel_ActivateDeactivate(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1", "active": false})

	if err := model.Activate(); err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	if resource.actionName != "active" || resource.actionVerb != http.MethodPatch {
		t.Errorf("action = %s %s, want PATCH active", resource.actionVerb, resource.actionName)
	}
	if resource.actionBody["value"] != true {
		t.Errorf("action body = %v", resource.actionBody)
	}
	if active, _ := model.IsActive(); !active {
		t.Errorf("model still inactive after Activate")
	}

	if err := model.Deactivate(); err != nil {
		t.Fatalf("Deactivate() error: %v", err)
	}
	if resource.actionBody["value"] != false {
		t.Errorf("action body = %v", resource.actionBody)
	}
	if active, _ := model.IsActive(); active {
		t.Errorf("model still active after Deactivate")
	}
}

func TestModel_DeleteMarksDestroyed(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1"})

	if err := model.Delete(); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if resource.deletedID != "g-1" {
		t.Errorf("deleted id = %v", resource.deletedID)
	}
	if !model.Destroyed() {
		t.Fatalf("model not marked destroyed")
	}

	// Every operation on a destroyed model fails the same way.
	if _, err := model.Field("name"); !IsDestroyedErr(err) {
		t.Errorf("Field() on destroyed model: %v", err)
	}
	if err := model.Reload(); !IsDestroyedErr(err) {
		t.Errorf("Reload() on destroyed model: %v", err)
	}
	if err := model.Update(Params{"comment": "x"}); !IsDestroyedErr(err) {
		t.Errorf("Update() on destroyed model: %v", err)
	}
	if err := model.Activate(); !IsDestroyedErr(err) {
		t.Errorf("Activate() on destroyed model: %v", err)
	}
	if err := model.Delete(); !IsDestroyedErr(err) {
		t.Errorf("second Delete(): %v", err)
	}
}

func TestModel_DeleteErrorKeepsModelAlive(t *testing.T) {
	resource := newModelFixture()
	model := MustModel(resource, Record{"id": "g-1", "name": "gate1"})

	resource.deleteErr = &ApiError{StatusCode: 500, Body: "server error"}
	if err := model.Delete(); err == nil {
		t.Fatalf("Delete() swallowed the API error")
	}
	if model.Destroyed() {
		t.Errorf("model destroyed despite failed delete")
	}
	if _, err := model.Field("name"); err != nil {
		t.Errorf("Field() after failed delete: %v", err)
	}
}
