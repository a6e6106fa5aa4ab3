package untyped

import (
	"context"
	"fmt"
	"time"

	"github.com/openergy/go-ovbp-client/core"
)

// Importer parses the raw files of a gate into timeseries. It runs a parse
// script on a crontab and writes one output series per parsed column.
type Importer struct {
	*core.OvbpResource
}

// CreateForProjectWithContext creates a bare importer attached to an odata project.
func (i *Importer) CreateForProjectWithContext(ctx context.Context, odataProjectID any, name, comment string) (core.Record, error) {
	return i.CreateWithContext(ctx, core.Params{
		"project": odataProjectID,
		"name":    name,
		"comment": comment,
	})
}

// CreateForProject creates a bare importer using the bound REST context.
func (i *Importer) CreateForProject(odataProjectID any, name, comment string) (core.Record, error) {
	return i.CreateForProjectWithContext(i.Rest.GetCtx(), odataProjectID, name, comment)
}

// ImporterModel is a record-bound view of an importer.
type ImporterModel struct {
	*core.Model
	importers *Importer
}

func newImporterModel(i *Importer, record core.Record) (*ImporterModel, error) {
	model, err := core.NewModel(i, record)
	if err != nil {
		return nil, err
	}
	return &ImporterModel{Model: model, importers: i}, nil
}

// ConfigureWithContext binds the importer to its gate and parse script.
// Configuration never activates: activation is an explicit separate step so a
// half-configured importer cannot start running.
func (m *ImporterModel) ConfigureWithContext(
	ctx context.Context,
	gateName, parseScript, rootDirPath, crontab string,
	reRunLastFile bool,
) error {
	if rootDirPath == "" {
		rootDirPath = "/"
	}
	return m.Model.UpdateWithContext(ctx, core.Params{
		"gate_name":        gateName,
		"parse_script":     parseScript,
		"root_dir_path":    rootDirPath,
		"crontab":          crontab,
		"re_run_last_file": reRunLastFile,
		"activate":         false,
	})
}

// Configure binds the importer to its gate and parse script using the bound REST context.
func (m *ImporterModel) Configure(gateName, parseScript, rootDirPath, crontab string, reRunLastFile bool) error {
	return m.ConfigureWithContext(m.importers.Rest.GetCtx(), gateName, parseScript, rootDirPath, crontab, reRunLastFile)
}

// OutputSeriesWithContext lists the series the importer has produced.
func (m *ImporterModel) OutputSeriesWithContext(ctx context.Context) (core.RecordSet, error) {
	series := lookup[*Series](m.importers.Rest, "Series")
	return series.ListByGeneratorWithContext(ctx, m.ID())
}

// OutputSeries lists the importer's series using the bound REST context.
func (m *ImporterModel) OutputSeries() (core.RecordSet, error) {
	return m.OutputSeriesWithContext(m.importers.Rest.GetCtx())
}

// WaitForOutputsWithContext polls until the importer has produced at least
// outputsLength series or the timeout elapses.
func (m *ImporterModel) WaitForOutputsWithContext(ctx context.Context, outputsLength int, waitConfig *core.WaitConfig) (core.RecordSet, error) {
	series := lookup[*Series](m.importers.Rest, "Series")
	return series.WaitForCountWithContext(ctx, m.ID(), outputsLength, waitConfig)
}

// WaitForOutputs polls for importer outputs using the bound REST context.
func (m *ImporterModel) WaitForOutputs(outputsLength int, waitConfig *core.WaitConfig) (core.RecordSet, error) {
	return m.WaitForOutputsWithContext(m.importers.Rest.GetCtx(), outputsLength, waitConfig)
}

// WaitForCleanerWithContext polls until the platform has spawned the cleaner
// attached to this importer and the cleaner sees at least inputsLength input
// series. The platform creates one cleaner per importer asynchronously, so
// right after importer activation the cleaner may not exist yet.
func (m *ImporterModel) WaitForCleanerWithContext(ctx context.Context, inputsLength int, waitConfig *core.WaitConfig) (*CleanerModel, error) {
	if waitConfig == nil {
		waitConfig = &core.WaitConfig{Timeout: 3 * time.Minute, Interval: 15 * time.Second}
	}
	cleaners := lookup[*Cleaner](m.importers.Rest, "Cleaner")
	condition := fmt.Sprintf("cleaner of importer '%s' has %d inputs", m.Name(), inputsLength)
	return core.WaitFor(ctx, cleaners.GetResourcePath(), condition, waitConfig,
		func(pollCtx context.Context) (*CleanerModel, bool, string, error) {
			record, err := cleaners.GetWithContext(pollCtx, core.Params{"related_importer": m.ID()})
			if core.IsNotFoundErr(err) {
				// keep polling, the cleaner is spawned asynchronously
				return nil, false, "cleaner absent", nil
			}
			if err != nil {
				return nil, false, "", fmt.Errorf("waiting for cleaner failed: %w", err)
			}
			cleaner, err := newCleanerModel(cleaners, record)
			if err != nil {
				return nil, false, "", err
			}
			inputs, err := cleaner.InputSeriesWithContext(pollCtx)
			if err != nil {
				return nil, false, "", fmt.Errorf("waiting for cleaner inputs failed: %w", err)
			}
			return cleaner, len(inputs) >= inputsLength, fmt.Sprintf("%d inputs", len(inputs)), nil
		})
}

// WaitForCleaner polls for the importer's cleaner using the bound REST context.
func (m *ImporterModel) WaitForCleaner(inputsLength int, waitConfig *core.WaitConfig) (*CleanerModel, error) {
	return m.WaitForCleanerWithContext(m.importers.Rest.GetCtx(), inputsLength, waitConfig)
}
