package untyped

import (
	"context"

	"github.com/openergy/go-ovbp-client/core"
)

// Organization is the oteams tenant that owns projects. Project names are only
// unique within their organization, so project lookups go through here.
type Organization struct {
	*core.OvbpResource
}

// RetrieveWithContext fetches an organization by name and binds it to a model.
func (o *Organization) RetrieveWithContext(ctx context.Context, name string) (*OrganizationModel, error) {
	record, err := o.GetWithContext(ctx, core.Params{"name": name})
	if err != nil {
		return nil, err
	}
	return newOrganizationModel(o, record)
}

// Retrieve fetches an organization by name using the bound REST context.
func (o *Organization) Retrieve(name string) (*OrganizationModel, error) {
	return o.RetrieveWithContext(o.Rest.GetCtx(), name)
}

// OrganizationModel is a record-bound view of an organization.
type OrganizationModel struct {
	*core.Model
	organizations *Organization
}

func newOrganizationModel(o *Organization, record core.Record) (*OrganizationModel, error) {
	model, err := core.NewModel(o, record)
	if err != nil {
		return nil, err
	}
	return &OrganizationModel{Model: model, organizations: o}, nil
}

// ListProjectsWithContext lists all projects of the organization.
func (m *OrganizationModel) ListProjectsWithContext(ctx context.Context) ([]*ProjectModel, error) {
	projects := lookup[*Project](m.organizations.Rest, "Project")
	records, err := projects.ListWithContext(ctx, core.Params{"organization": m.ID()})
	if err != nil {
		return nil, err
	}
	models := make([]*ProjectModel, 0, len(records))
	for _, record := range records {
		model, err := newProjectModel(projects, record)
		if err != nil {
			continue
		}
		models = append(models, model)
	}
	return models, nil
}

// ListProjects lists all projects of the organization using the bound REST context.
func (m *OrganizationModel) ListProjects() ([]*ProjectModel, error) {
	return m.ListProjectsWithContext(m.organizations.Rest.GetCtx())
}

// GetProjectWithContext fetches a project of the organization by name.
// Returns a NotFoundError when no such project exists.
func (m *OrganizationModel) GetProjectWithContext(ctx context.Context, name string) (*ProjectModel, error) {
	projects := lookup[*Project](m.organizations.Rest, "Project")
	record, err := projects.GetWithContext(ctx, core.Params{"organization": m.ID(), "name": name})
	if err != nil {
		return nil, err
	}
	return newProjectModel(projects, record)
}

// GetProject fetches a project by name using the bound REST context.
func (m *OrganizationModel) GetProject(name string) (*ProjectModel, error) {
	return m.GetProjectWithContext(m.organizations.Rest.GetCtx(), name)
}

// CreateProjectWithContext creates a project in the organization.
func (m *OrganizationModel) CreateProjectWithContext(ctx context.Context, name, comment string) (*ProjectModel, error) {
	projects := lookup[*Project](m.organizations.Rest, "Project")
	record, err := projects.CreateWithContext(ctx, core.Params{
		"organization": m.ID(),
		"name":         name,
		"comment":      comment,
	})
	if err != nil {
		return nil, err
	}
	return newProjectModel(projects, record)
}

// CreateProject creates a project in the organization using the bound REST context.
func (m *OrganizationModel) CreateProject(name, comment string) (*ProjectModel, error) {
	return m.CreateProjectWithContext(m.organizations.Rest.GetCtx(), name, comment)
}
