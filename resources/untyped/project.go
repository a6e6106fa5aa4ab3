package untyped

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openergy/go-ovbp-client/core"
)

// Project is the oteams project collection. A project aggregates the data-side
// resources (gates, importers, cleaners, analyses) of one building or site.
type Project struct {
	*core.OvbpResource
}

// RetrieveWithContext fetches a project by organization name and project name
// and binds it to a model.
func (p *Project) RetrieveWithContext(ctx context.Context, organizationName, projectName string) (*ProjectModel, error) {
	organizations := lookup[*Organization](p.Rest, "Organization")
	organization, err := organizations.RetrieveWithContext(ctx, organizationName)
	if err != nil {
		return nil, err
	}
	return organization.GetProjectWithContext(ctx, projectName)
}

// Retrieve fetches a project by organization and name using the bound REST context.
func (p *Project) Retrieve(organizationName, projectName string) (*ProjectModel, error) {
	return p.RetrieveWithContext(p.Rest.GetCtx(), organizationName, projectName)
}

// RetrieveByIdWithContext fetches a project by its oteams id and binds it to a model.
func (p *Project) RetrieveByIdWithContext(ctx context.Context, id any) (*ProjectModel, error) {
	record, err := p.GetByIdWithContext(ctx, id)
	if err != nil {
		return nil, err
	}
	return newProjectModel(p, record)
}

// RetrieveById fetches a project by id using the bound REST context.
func (p *Project) RetrieveById(id any) (*ProjectModel, error) {
	return p.RetrieveByIdWithContext(p.Rest.GetCtx(), id)
}

//  ######################################################
//              PROJECT MODEL
//  ######################################################

// ProjectModel is a record-bound view of a project. It is the entry point of
// the provisioning workflows: resources are created, configured and activated
// through it.
type ProjectModel struct {
	*core.Model
	projects *Project
}

func newProjectModel(p *Project, record core.Record) (*ProjectModel, error) {
	model, err := core.NewModel(p, record)
	if err != nil {
		return nil, err
	}
	return &ProjectModel{Model: model, projects: p}, nil
}

// OdataWithContext returns the odata project id the data-side resources link
// to. The project record usually embeds it; older records require a reverse
// lookup on the odata projects collection.
func (m *ProjectModel) OdataWithContext(ctx context.Context) (string, error) {
	if odata := m.Snapshot().RecordOdata(); odata != "" {
		return odata, nil
	}
	odataProjects := lookup[*OdataProject](m.projects.Rest, "OdataProject")
	record, err := odataProjects.GetByBaseWithContext(ctx, m.ID())
	if err != nil {
		return "", err
	}
	return record.RecordID(), nil
}

// Odata returns the odata project id using the bound REST context.
func (m *ProjectModel) Odata() (string, error) {
	return m.OdataWithContext(m.projects.Rest.GetCtx())
}

// categoryCollection maps a resource category to its collection.
func (m *ProjectModel) categoryCollection(category string) (core.OvbpResourceAPIWithContext, error) {
	switch category {
	case CategoryGate:
		return lookup[*Gate](m.projects.Rest, "Gate"), nil
	case CategoryImporter:
		return lookup[*Importer](m.projects.Rest, "Importer"), nil
	case CategoryCleaner:
		return lookup[*Cleaner](m.projects.Rest, "Cleaner"), nil
	case CategoryAnalysis:
		return lookup[*Analysis](m.projects.Rest, "Analysis"), nil
	default:
		return nil, &core.ValidationError{
			Resource: "Project",
			Message:  fmt.Sprintf("unknown resource category '%s'", category),
		}
	}
}

// ListResourcesWithContext lists the project's resources grouped by category.
// With no categories given, all categories are listed.
func (m *ProjectModel) ListResourcesWithContext(ctx context.Context, categories ...string) (map[string][]*core.Model, error) {
	if len(categories) == 0 {
		categories = Categories()
	}
	odata, err := m.OdataWithContext(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]*core.Model, len(categories))
	for _, category := range categories {
		collection, err := m.categoryCollection(category)
		if err != nil {
			return nil, err
		}
		records, err := collection.ListWithContext(ctx, core.Params{"project": odata})
		if err != nil {
			return nil, err
		}
		result[category] = modelsFrom(collection, records)
	}
	return result, nil
}

// ListResources lists the project's resources using the bound REST context.
func (m *ProjectModel) ListResources(categories ...string) (map[string][]*core.Model, error) {
	return m.ListResourcesWithContext(m.projects.Rest.GetCtx(), categories...)
}

// getResourceRecord fetches one project resource by category and name.
// A miss is soft: it returns a nil record and no error, so workflows can
// branch on existence without unwrapping errors. More than one match is an
// error, never silently resolved to the first record.
func (m *ProjectModel) getResourceRecord(ctx context.Context, category, name string) (core.Record, core.OvbpResourceAPIWithContext, error) {
	collection, err := m.categoryCollection(category)
	if err != nil {
		return nil, nil, err
	}
	odata, err := m.OdataWithContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	params := core.Params{"project": odata, "name": name}
	records, err := collection.ListWithContext(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	switch len(records) {
	case 0:
		return nil, collection, nil
	case 1:
		return records[0], collection, nil
	default:
		return nil, nil, &core.TooManyRecordsError{
			ResourcePath: collection.GetResourcePath(),
			Params:       params,
		}
	}
}

// GetResourceWithContext fetches one project resource by category and name.
// Returns (nil, nil) when no resource matches.
func (m *ProjectModel) GetResourceWithContext(ctx context.Context, category, name string) (*core.Model, error) {
	record, collection, err := m.getResourceRecord(ctx, category, name)
	if err != nil || record == nil {
		return nil, err
	}
	return core.NewModel(collection, record)
}

// GetResource fetches one project resource using the bound REST context.
func (m *ProjectModel) GetResource(category, name string) (*core.Model, error) {
	return m.GetResourceWithContext(m.projects.Rest.GetCtx(), category, name)
}

// GetGateWithContext fetches a gate of the project by name, nil when absent.
func (m *ProjectModel) GetGateWithContext(ctx context.Context, name string) (*GateModel, error) {
	record, _, err := m.getResourceRecord(ctx, CategoryGate, name)
	if err != nil || record == nil {
		return nil, err
	}
	return newGateModel(lookup[*Gate](m.projects.Rest, "Gate"), record)
}

// GetGate fetches a gate by name using the bound REST context.
func (m *ProjectModel) GetGate(name string) (*GateModel, error) {
	return m.GetGateWithContext(m.projects.Rest.GetCtx(), name)
}

// GetImporterWithContext fetches an importer of the project by name, nil when absent.
func (m *ProjectModel) GetImporterWithContext(ctx context.Context, name string) (*ImporterModel, error) {
	record, _, err := m.getResourceRecord(ctx, CategoryImporter, name)
	if err != nil || record == nil {
		return nil, err
	}
	return newImporterModel(lookup[*Importer](m.projects.Rest, "Importer"), record)
}

// GetImporter fetches an importer by name using the bound REST context.
func (m *ProjectModel) GetImporter(name string) (*ImporterModel, error) {
	return m.GetImporterWithContext(m.projects.Rest.GetCtx(), name)
}

// GetCleanerWithContext fetches a cleaner of the project by name, nil when absent.
func (m *ProjectModel) GetCleanerWithContext(ctx context.Context, name string) (*CleanerModel, error) {
	record, _, err := m.getResourceRecord(ctx, CategoryCleaner, name)
	if err != nil || record == nil {
		return nil, err
	}
	return newCleanerModel(lookup[*Cleaner](m.projects.Rest, "Cleaner"), record)
}

// GetCleaner fetches a cleaner by name using the bound REST context.
func (m *ProjectModel) GetCleaner(name string) (*CleanerModel, error) {
	return m.GetCleanerWithContext(m.projects.Rest.GetCtx(), name)
}

// GetAnalysisWithContext fetches an analysis of the project by name, nil when absent.
func (m *ProjectModel) GetAnalysisWithContext(ctx context.Context, name string) (*AnalysisModel, error) {
	record, _, err := m.getResourceRecord(ctx, CategoryAnalysis, name)
	if err != nil || record == nil {
		return nil, err
	}
	return newAnalysisModel(lookup[*Analysis](m.projects.Rest, "Analysis"), record)
}

// GetAnalysis fetches an analysis by name using the bound REST context.
func (m *ProjectModel) GetAnalysis(name string) (*AnalysisModel, error) {
	return m.GetAnalysisWithContext(m.projects.Rest.GetCtx(), name)
}

// DeactivateAllWithContext deactivates every active resource of the project,
// category by category. Failures do not stop the sweep; all errors are joined.
func (m *ProjectModel) DeactivateAllWithContext(ctx context.Context) error {
	resources, err := m.ListResourcesWithContext(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, category := range Categories() {
		for _, resource := range resources[category] {
			active, err := resource.IsActive()
			if err != nil || !active {
				continue
			}
			if err := resource.DeactivateWithContext(ctx); err != nil {
				errs = append(errs, fmt.Errorf("deactivate %s '%s': %w", category, resource.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// DeactivateAll deactivates every active project resource using the bound REST context.
func (m *ProjectModel) DeactivateAll() error {
	return m.DeactivateAllWithContext(m.projects.Rest.GetCtx())
}

//  ######################################################
//              PROVISIONING WORKFLOWS
//  ######################################################

// StepReport records which steps of a provisioning workflow completed. When a
// workflow fails mid-way it returns the report alongside the error, so the
// caller knows exactly what was provisioned before the failure. Completed
// steps are never rolled back.
type StepReport struct {
	Workflow string
	Name     string
	Steps    []string
}

func newStepReport(workflow, name string) *StepReport {
	return &StepReport{Workflow: workflow, Name: name}
}

func (r *StepReport) mark(step string) {
	r.Steps = append(r.Steps, step)
}

// Completed returns a copy of the completed step names in execution order.
func (r *StepReport) Completed() []string {
	out := make([]string, len(r.Steps))
	copy(out, r.Steps)
	return out
}

func (r *StepReport) String() string {
	return fmt.Sprintf("%s '%s': [%s]", r.Workflow, r.Name, strings.Join(r.Steps, ", "))
}

// replaceOrAbort implements the shared head of all provisioning workflows:
// look up an existing resource with the requested name, delete it when replace
// was asked, abort with AlreadyExistsError otherwise.
func (m *ProjectModel) replaceOrAbort(ctx context.Context, category, name string, replace bool, report *StepReport) error {
	existing, err := m.GetResourceWithContext(ctx, category, name)
	if err != nil {
		return err
	}
	report.mark("checked existing")
	if existing == nil {
		return nil
	}
	if !replace {
		return &core.AlreadyExistsError{Resource: category, Name: name}
	}
	if err := existing.DeleteWithContext(ctx); err != nil {
		return err
	}
	report.mark("deleted previous")
	return nil
}

// InternalGateParams drives CreateInternalGate.
//
// Zero values get workflow defaults: Timezone "Europe/Paris". Passive skips
// the feeder entirely (files are pushed by the sender, nothing to schedule)
// and ignores Activate. WaitForFile only applies to an activated gate.
type InternalGateParams struct {
	Name        string
	Crontab     string
	Script      string
	Comment     string
	Timezone    string
	Replace     bool
	Activate    bool
	Passive     bool
	WaitForFile bool
	Wait        *core.WaitConfig
}

// CreateInternalGateWithContext provisions an internal gate end to end: gate,
// ftp account, feeder schedule, download script, activation, and optionally a
// wait for the first received file.
//
// The workflow is idempotent on the gate name: an existing gate with the same
// name is deleted first when params.Replace is set, otherwise the workflow
// aborts with an AlreadyExistsError before touching anything.
func (m *ProjectModel) CreateInternalGateWithContext(ctx context.Context, params InternalGateParams) (*GateModel, *StepReport, error) {
	if params.Timezone == "" {
		params.Timezone = "Europe/Paris"
	}
	report := newStepReport("create internal gate", params.Name)
	gates := lookup[*Gate](m.projects.Rest, "Gate")
	defer gates.Lock(m.ID(), params.Name)()

	if err := m.replaceOrAbort(ctx, CategoryGate, params.Name, params.Replace, report); err != nil {
		return nil, report, err
	}
	odata, err := m.OdataWithContext(ctx)
	if err != nil {
		return nil, report, err
	}
	record, err := gates.CreateForProjectWithContext(ctx, odata, params.Name, params.Comment)
	if err != nil {
		return nil, report, err
	}
	gate, err := newGateModel(gates, record)
	if err != nil {
		return nil, report, err
	}
	report.mark("created gate")

	if _, err := gate.CreateOftpAccountWithContext(ctx); err != nil {
		return gate, report, err
	}
	report.mark("created oftp account")

	// A passive gate has no feeder and is never activated: its files are
	// pushed by the sender, the platform has nothing to run.
	if !params.Passive {
		feeder, err := gate.CreateBaseFeederWithContext(ctx, params.Timezone, params.Crontab)
		if err != nil {
			return gate, report, err
		}
		report.mark("created base feeder")
		basicFeeders := lookup[*GenericBasicFeeder](m.projects.Rest, "GenericBasicFeeder")
		if _, err := basicFeeders.CreateForFeederWithContext(ctx, feeder.RecordID(), params.Script); err != nil {
			return gate, report, err
		}
		report.mark("attached feeder script")

		if params.Activate {
			if err := gate.ActivateWithContext(ctx); err != nil {
				return gate, report, err
			}
			report.mark("activated")

			if params.WaitForFile {
				if _, err := gate.WaitForFileWithContext(ctx, params.Wait); err != nil {
					return gate, report, err
				}
				report.mark("file received")
			}
		}
	}
	return gate, report, nil
}

// CreateInternalGate provisions an internal gate using the bound REST context.
func (m *ProjectModel) CreateInternalGate(params InternalGateParams) (*GateModel, *StepReport, error) {
	return m.CreateInternalGateWithContext(m.projects.Rest.GetCtx(), params)
}

// ExternalGateParams drives CreateExternalGate. Host, Port, Protocol, Login
// and Password describe the customer-hosted ftp server the gate connects to.
type ExternalGateParams struct {
	Name     string
	Comment  string
	Host     string
	Port     int
	Protocol string
	Login    string
	Password string
	Replace  bool
	Activate bool
}

// CreateExternalGateWithContext provisions a gate pointing at a customer-hosted
// server. Same idempotency contract as CreateInternalGateWithContext.
func (m *ProjectModel) CreateExternalGateWithContext(ctx context.Context, params ExternalGateParams) (*GateModel, *StepReport, error) {
	report := newStepReport("create external gate", params.Name)
	gates := lookup[*Gate](m.projects.Rest, "Gate")
	defer gates.Lock(m.ID(), params.Name)()

	if err := m.replaceOrAbort(ctx, CategoryGate, params.Name, params.Replace, report); err != nil {
		return nil, report, err
	}
	odata, err := m.OdataWithContext(ctx)
	if err != nil {
		return nil, report, err
	}
	record, err := gates.CreateForProjectWithContext(ctx, odata, params.Name, params.Comment)
	if err != nil {
		return nil, report, err
	}
	gate, err := newGateModel(gates, record)
	if err != nil {
		return nil, report, err
	}
	report.mark("created gate")

	if err := gate.UpdateExternalWithContext(ctx, params.Host, params.Port, params.Protocol, params.Login, params.Password); err != nil {
		return gate, report, err
	}
	report.mark("configured remote server")

	if params.Activate {
		if err := gate.ActivateWithContext(ctx); err != nil {
			return gate, report, err
		}
		report.mark("activated")
	}
	return gate, report, nil
}

// CreateExternalGate provisions an external gate using the bound REST context.
func (m *ProjectModel) CreateExternalGate(params ExternalGateParams) (*GateModel, *StepReport, error) {
	return m.CreateExternalGateWithContext(m.projects.Rest.GetCtx(), params)
}

// ImporterParams drives CreateImporter.
//
// RootDirPath defaults to "/". OutputsLength > 0 makes the workflow wait for
// that many output series after activation; CleanerInputsLength > 0 then also
// waits for the spawned cleaner to see its inputs. Both waits are skipped
// when Activate is false.
type ImporterParams struct {
	Name                string
	Comment             string
	GateName            string
	ParseScript         string
	RootDirPath         string
	Crontab             string
	ReRunLastFile       bool
	Replace             bool
	Activate            bool
	OutputsLength       int
	CleanerInputsLength int
	Wait                *core.WaitConfig
}

// CreateImporterWithContext provisions an importer end to end: create,
// configure against its gate, activate, and optionally await its first outputs
// and the availability of its cleaner. Same idempotency contract as the gate
// workflows.
func (m *ProjectModel) CreateImporterWithContext(ctx context.Context, params ImporterParams) (*ImporterModel, *StepReport, error) {
	report := newStepReport("create importer", params.Name)
	importers := lookup[*Importer](m.projects.Rest, "Importer")
	defer importers.Lock(m.ID(), params.Name)()

	if err := m.replaceOrAbort(ctx, CategoryImporter, params.Name, params.Replace, report); err != nil {
		return nil, report, err
	}
	odata, err := m.OdataWithContext(ctx)
	if err != nil {
		return nil, report, err
	}
	record, err := importers.CreateForProjectWithContext(ctx, odata, params.Name, params.Comment)
	if err != nil {
		return nil, report, err
	}
	importer, err := newImporterModel(importers, record)
	if err != nil {
		return nil, report, err
	}
	report.mark("created importer")

	if err := importer.ConfigureWithContext(ctx, params.GateName, params.ParseScript, params.RootDirPath, params.Crontab, params.ReRunLastFile); err != nil {
		return importer, report, err
	}
	report.mark("configured")

	// Output and cleaner waits only make sense on an activated importer:
	// an inactive one never runs, so its outputs never appear.
	if params.Activate {
		if err := importer.ActivateWithContext(ctx); err != nil {
			return importer, report, err
		}
		report.mark("activated")

		if params.OutputsLength > 0 {
			if _, err := importer.WaitForOutputsWithContext(ctx, params.OutputsLength, params.Wait); err != nil {
				return importer, report, err
			}
			report.mark("outputs ready")
		}
		if params.CleanerInputsLength > 0 {
			if _, err := importer.WaitForCleanerWithContext(ctx, params.CleanerInputsLength, params.Wait); err != nil {
				return importer, report, err
			}
			report.mark("cleaner inputs ready")
		}
	}
	return importer, report, nil
}

// CreateImporter provisions an importer using the bound REST context.
func (m *ProjectModel) CreateImporter(params ImporterParams) (*ImporterModel, *StepReport, error) {
	return m.CreateImporterWithContext(m.projects.Rest.GetCtx(), params)
}

// AnalysisParams drives CreateAnalysis. Inputs, Config and Outputs carry the
// bodies of the satellite objects; the analysis id is filled in by the
// workflow.
type AnalysisParams struct {
	Name          string
	Comment       string
	Inputs        []core.Params
	Config        core.Params
	Outputs       []core.Params
	Replace       bool
	Activate      bool
	OutputsLength int
	Wait          *core.WaitConfig
}

// CreateAnalysisWithContext provisions an analysis end to end: create, bind
// input series, set the script configuration, declare outputs, activate, and
// optionally await the output series. Same idempotency contract as the other
// workflows.
func (m *ProjectModel) CreateAnalysisWithContext(ctx context.Context, params AnalysisParams) (*AnalysisModel, *StepReport, error) {
	report := newStepReport("create analysis", params.Name)
	analyses := lookup[*Analysis](m.projects.Rest, "Analysis")
	defer analyses.Lock(m.ID(), params.Name)()

	if err := m.replaceOrAbort(ctx, CategoryAnalysis, params.Name, params.Replace, report); err != nil {
		return nil, report, err
	}
	odata, err := m.OdataWithContext(ctx)
	if err != nil {
		return nil, report, err
	}
	record, err := analyses.CreateForProjectWithContext(ctx, odata, params.Name, params.Comment)
	if err != nil {
		return nil, report, err
	}
	analysis, err := newAnalysisModel(analyses, record)
	if err != nil {
		return nil, report, err
	}
	report.mark("created analysis")

	for _, input := range params.Inputs {
		if _, err := analysis.AddInputWithContext(ctx, input); err != nil {
			return analysis, report, err
		}
	}
	if len(params.Inputs) > 0 {
		report.mark(fmt.Sprintf("bound %d inputs", len(params.Inputs)))
	}
	if params.Config != nil {
		if _, err := analysis.SetConfigWithContext(ctx, params.Config); err != nil {
			return analysis, report, err
		}
		report.mark("configured")
	}
	for _, output := range params.Outputs {
		if _, err := analysis.AddOutputWithContext(ctx, output); err != nil {
			return analysis, report, err
		}
	}
	if len(params.Outputs) > 0 {
		report.mark(fmt.Sprintf("declared %d outputs", len(params.Outputs)))
	}
	if params.Activate {
		if err := analysis.ActivateWithContext(ctx); err != nil {
			return analysis, report, err
		}
		report.mark("activated")

		if params.OutputsLength > 0 {
			if _, err := analysis.WaitForOutputsWithContext(ctx, params.OutputsLength, params.Wait); err != nil {
				return analysis, report, err
			}
			report.mark("outputs ready")
		}
	}
	return analysis, report, nil
}

// CreateAnalysis provisions an analysis using the bound REST context.
func (m *ProjectModel) CreateAnalysis(params AnalysisParams) (*AnalysisModel, *StepReport, error) {
	return m.CreateAnalysisWithContext(m.projects.Rest.GetCtx(), params)
}
