package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Model binds a server-side resource instance to its latest known snapshot.
//
// A Model keeps the full record returned by the API and refreshes it wholesale:
// Reload and Update never merge fields into the previous snapshot, they replace
// it with whatever the server returned. After Delete the model is marked
// destroyed and every accessor fails with DestroyedError.
//
// Models are safe for concurrent use.
type Model struct {
	resource OvbpResourceAPIWithContext

	mu        sync.RWMutex
	data      Record
	destroyed bool
}

// NewModel wraps a record returned by the API into a Model bound to the given resource.
// The record must carry both "id" and "name" fields; otherwise a ValidationError is
// returned, because a model without identity cannot be reloaded or mutated.
func NewModel(resource OvbpResourceAPIWithContext, data Record) (*Model, error) {
	if resource == nil {
		return nil, &ValidationError{Resource: "<nil>", Message: "model requires a bound resource"}
	}
	if data == nil {
		return nil, &ValidationError{
			Resource: resource.GetResourceType(),
			Message:  "model requires a non-nil record",
		}
	}
	if idVal, ok := data["id"]; !ok || idVal == nil {
		return nil, &ValidationError{
			Resource: resource.GetResourceType(),
			Message:  "record has no 'id' field",
		}
	}
	if nameVal, ok := data["name"]; !ok || nameVal == nil {
		return nil, &ValidationError{
			Resource: resource.GetResourceType(),
			Message:  "record has no 'name' field",
		}
	}
	return &Model{resource: resource, data: data}, nil
}

// MustModel is like NewModel but panics on validation failure.
// Intended for resource records that are known to carry id and name.
func MustModel(resource OvbpResourceAPIWithContext, data Record) *Model {
	model, err := NewModel(resource, data)
	if err != nil {
		panic(err)
	}
	return model
}

// Resource returns the API collection this model is bound to.
func (m *Model) Resource() OvbpResourceAPIWithContext {
	return m.resource
}

// ID returns the model's identifier from the current snapshot.
func (m *Model) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.RecordID()
}

// Name returns the model's name from the current snapshot.
func (m *Model) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.RecordName()
}

// Destroyed reports whether Delete has been called on this model.
func (m *Model) Destroyed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.destroyed
}

func (m *Model) checkAlive() error {
	if m.destroyed {
		return &DestroyedError{
			Resource: m.resource.GetResourceType(),
			Name:     fmt.Sprintf("%v", m.data["name"]),
		}
	}
	return nil
}

// Field returns the value of the given attribute from the current snapshot.
// Missing attributes yield an AttributeNotFoundError rather than a zero value,
// so typos and stale assumptions surface immediately. Accessing a destroyed
// model yields a DestroyedError.
func (m *Model) Field(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkAlive(); err != nil {
		return nil, err
	}
	value, ok := m.data[name]
	if !ok {
		return nil, &AttributeNotFoundError{
			Resource:  m.resource.GetResourceType(),
			Attribute: name,
		}
	}
	return value, nil
}

// IsActive reports the "active" flag of the current snapshot.
func (m *Model) IsActive() (bool, error) {
	value, err := m.Field("active")
	if err != nil {
		return false, err
	}
	active, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected type %T for 'active' field", value)
	}
	return active, nil
}

// Snapshot returns a copy of the current record. Mutating the copy does not
// affect the model.
func (m *Model) Snapshot() Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make(Record, len(m.data))
	for k, v := range m.data {
		snapshot[k] = v
	}
	return snapshot
}

// Fill populates the given struct pointer from the current snapshot.
func (m *Model) Fill(container any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkAlive(); err != nil {
		return err
	}
	return m.data.Fill(container)
}

// adopt replaces the whole snapshot with the given record. When the server
// responded with an empty body the record is re-fetched instead, so the
// snapshot never ends up partially stale.
func (m *Model) adopt(ctx context.Context, record Record) error {
	if record.Empty() {
		fresh, err := m.resource.GetByIdWithContext(ctx, m.data.RecordID())
		if err != nil {
			return err
		}
		record = fresh
	}
	m.data = record
	return nil
}

// ReloadWithContext re-fetches the resource by id and replaces the snapshot wholesale.
func (m *Model) ReloadWithContext(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAlive(); err != nil {
		return err
	}
	fresh, err := m.resource.GetByIdWithContext(ctx, m.data.RecordID())
	if err != nil {
		return err
	}
	m.data = fresh
	return nil
}

// Reload re-fetches the resource using the background context.
func (m *Model) Reload() error {
	return m.ReloadWithContext(context.Background())
}

// UpdateWithContext patches the resource with the given fields and adopts the
// server's response as the new snapshot. The local snapshot is never merged
// by hand; the server is the single source of truth for the updated state.
func (m *Model) UpdateWithContext(ctx context.Context, fields Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAlive(); err != nil {
		return err
	}
	updated, err := m.resource.UpdateWithContext(ctx, m.data.RecordID(), fields)
	if err != nil {
		return err
	}
	return m.adopt(ctx, updated)
}

// Update patches the resource using the background context.
func (m *Model) Update(fields Params) error {
	return m.UpdateWithContext(context.Background(), fields)
}

// DeleteWithContext deletes the resource instance and marks the model destroyed.
// A destroyed model keeps only its name for diagnostics; all further operations
// fail with DestroyedError.
func (m *Model) DeleteWithContext(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAlive(); err != nil {
		return err
	}
	if _, err := m.resource.DeleteByIdWithContext(ctx, m.data.RecordID(), nil, nil); err != nil {
		return err
	}
	m.data = Record{"name": m.data["name"]}
	m.destroyed = true
	return nil
}

// Delete deletes the resource using the background context.
func (m *Model) Delete() error {
	return m.DeleteWithContext(context.Background())
}

// setActiveWithContext flips the resource's activation flag through the
// instance-level "active" action. Activation is idempotent on the server:
// activating an active resource is a no-op that still succeeds.
func (m *Model) setActiveWithContext(ctx context.Context, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAlive(); err != nil {
		return err
	}
	result, err := m.resource.DetailActionWithContext(ctx, m.data.RecordID(), "active", http.MethodPatch, Params{"value": value})
	if err != nil {
		return err
	}
	return m.adopt(ctx, result)
}

// ActivateWithContext enables the resource (schedules its crontab, opens its
// feed, etc. depending on the resource kind) and refreshes the snapshot.
func (m *Model) ActivateWithContext(ctx context.Context) error {
	return m.setActiveWithContext(ctx, true)
}

// Activate enables the resource using the background context.
func (m *Model) Activate() error {
	return m.ActivateWithContext(context.Background())
}

// DeactivateWithContext disables the resource and refreshes the snapshot.
func (m *Model) DeactivateWithContext(ctx context.Context) error {
	return m.setActiveWithContext(ctx, false)
}

// Deactivate disables the resource using the background context.
func (m *Model) Deactivate() error {
	return m.DeactivateWithContext(context.Background())
}

// String renders the current snapshot as a table.
func (m *Model) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.destroyed {
		return fmt.Sprintf("%s <destroyed>", m.resource.GetResourceType())
	}
	return m.data.PrettyTable()
}

//  ######################################################
//              MODEL CONSTRUCTION HELPERS
//  ######################################################

// GetModelWithContext retrieves a single matching record and wraps it in a Model.
func (e *OvbpResource) GetModelWithContext(ctx context.Context, params Params) (*Model, error) {
	record, err := e.GetWithContext(ctx, params)
	if err != nil {
		return nil, err
	}
	return NewModel(e, record)
}

// GetModel retrieves a single matching record as a Model using the bound REST context.
func (e *OvbpResource) GetModel(params Params) (*Model, error) {
	return e.GetModelWithContext(e.Rest.GetCtx(), params)
}

// GetModelByIdWithContext retrieves a record by id and wraps it in a Model.
func (e *OvbpResource) GetModelByIdWithContext(ctx context.Context, id any) (*Model, error) {
	record, err := e.GetByIdWithContext(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewModel(e, record)
}

// GetModelById retrieves a record by id as a Model using the bound REST context.
func (e *OvbpResource) GetModelById(id any) (*Model, error) {
	return e.GetModelByIdWithContext(e.Rest.GetCtx(), id)
}
