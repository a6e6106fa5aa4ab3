package untyped

import (
	"context"

	"github.com/openergy/go-ovbp-client/core"
)

// Analysis computes derived series out of existing ones. Its shape is split
// across three satellite collections: inputs (which series feed it), a single
// config (script and resampling rules) and outputs (which series it writes).
type Analysis struct {
	*core.OvbpResource
}

// AnalysisInput binds one source series to an analysis.
type AnalysisInput struct {
	*core.OvbpResource
}

// AnalysisConfig holds the script and scheduling rules of an analysis.
type AnalysisConfig struct {
	*core.OvbpResource
}

// AnalysisOutput declares one series an analysis writes.
type AnalysisOutput struct {
	*core.OvbpResource
}

// CreateForProjectWithContext creates a bare analysis attached to an odata project.
func (a *Analysis) CreateForProjectWithContext(ctx context.Context, odataProjectID any, name, comment string) (core.Record, error) {
	return a.CreateWithContext(ctx, core.Params{
		"project": odataProjectID,
		"name":    name,
		"comment": comment,
	})
}

// CreateForProject creates a bare analysis using the bound REST context.
func (a *Analysis) CreateForProject(odataProjectID any, name, comment string) (core.Record, error) {
	return a.CreateForProjectWithContext(a.Rest.GetCtx(), odataProjectID, name, comment)
}

// AnalysisModel is a record-bound view of an analysis.
type AnalysisModel struct {
	*core.Model
	analyses *Analysis
}

func newAnalysisModel(a *Analysis, record core.Record) (*AnalysisModel, error) {
	model, err := core.NewModel(a, record)
	if err != nil {
		return nil, err
	}
	return &AnalysisModel{Model: model, analyses: a}, nil
}

// AddInputWithContext binds a source series to the analysis. config carries the
// input fields ("input_series_name", "column_name", ...); the analysis id is
// seeded after the merge so config can never point the input elsewhere.
func (m *AnalysisModel) AddInputWithContext(ctx context.Context, config core.Params) (core.Record, error) {
	body := core.Params{}
	body.Update(config, false)
	body["analysis"] = m.ID()
	inputs := lookup[*AnalysisInput](m.analyses.Rest, "AnalysisInput")
	return inputs.CreateWithContext(ctx, body)
}

// AddInput binds a source series to the analysis using the bound REST context.
func (m *AnalysisModel) AddInput(config core.Params) (core.Record, error) {
	return m.AddInputWithContext(m.analyses.Rest.GetCtx(), config)
}

// SetConfigWithContext creates the script configuration of the analysis.
// config must carry at least "script", "input_freq", "output_freq", "clock"
// and "output_timezone"; scripts always run in array mode.
func (m *AnalysisModel) SetConfigWithContext(ctx context.Context, config core.Params) (core.Record, error) {
	body := core.Params{}
	body.Update(config, false)
	body["analysis"] = m.ID()
	body["script_method"] = "array"
	configs := lookup[*AnalysisConfig](m.analyses.Rest, "AnalysisConfig")
	return configs.CreateWithContext(ctx, body)
}

// SetConfig creates the script configuration using the bound REST context.
func (m *AnalysisModel) SetConfig(config core.Params) (core.Record, error) {
	return m.SetConfigWithContext(m.analyses.Rest.GetCtx(), config)
}

// AddOutputWithContext declares one output series of the analysis. config
// carries at least "name" and "unit".
func (m *AnalysisModel) AddOutputWithContext(ctx context.Context, config core.Params) (core.Record, error) {
	body := core.Params{}
	body.Update(config, false)
	body["analysis"] = m.ID()
	outputs := lookup[*AnalysisOutput](m.analyses.Rest, "AnalysisOutput")
	return outputs.CreateWithContext(ctx, body)
}

// AddOutput declares one output series using the bound REST context.
func (m *AnalysisModel) AddOutput(config core.Params) (core.Record, error) {
	return m.AddOutputWithContext(m.analyses.Rest.GetCtx(), config)
}

// ListInputsWithContext lists the input bindings of the analysis.
func (m *AnalysisModel) ListInputsWithContext(ctx context.Context) (core.RecordSet, error) {
	inputs := lookup[*AnalysisInput](m.analyses.Rest, "AnalysisInput")
	return inputs.ListWithContext(ctx, core.Params{"analysis": m.ID()})
}

// ListInputs lists the input bindings using the bound REST context.
func (m *AnalysisModel) ListInputs() (core.RecordSet, error) {
	return m.ListInputsWithContext(m.analyses.Rest.GetCtx())
}

// ListOutputsWithContext lists the declared outputs of the analysis.
func (m *AnalysisModel) ListOutputsWithContext(ctx context.Context) (core.RecordSet, error) {
	outputs := lookup[*AnalysisOutput](m.analyses.Rest, "AnalysisOutput")
	return outputs.ListWithContext(ctx, core.Params{"analysis": m.ID()})
}

// ListOutputs lists the declared outputs using the bound REST context.
func (m *AnalysisModel) ListOutputs() (core.RecordSet, error) {
	return m.ListOutputsWithContext(m.analyses.Rest.GetCtx())
}

// GetConfigWithContext retrieves the script configuration of the analysis.
func (m *AnalysisModel) GetConfigWithContext(ctx context.Context) (core.Record, error) {
	configs := lookup[*AnalysisConfig](m.analyses.Rest, "AnalysisConfig")
	return configs.GetWithContext(ctx, core.Params{"analysis": m.ID()})
}

// GetConfig retrieves the script configuration using the bound REST context.
func (m *AnalysisModel) GetConfig() (core.Record, error) {
	return m.GetConfigWithContext(m.analyses.Rest.GetCtx())
}

// OutputSeriesWithContext lists the series the analysis has produced.
func (m *AnalysisModel) OutputSeriesWithContext(ctx context.Context) (core.RecordSet, error) {
	series := lookup[*Series](m.analyses.Rest, "Series")
	return series.ListByGeneratorWithContext(ctx, m.ID())
}

// OutputSeries lists the analysis series using the bound REST context.
func (m *AnalysisModel) OutputSeries() (core.RecordSet, error) {
	return m.OutputSeriesWithContext(m.analyses.Rest.GetCtx())
}

// WaitForOutputsWithContext polls until the analysis has produced at least
// outputsLength series or the timeout elapses.
func (m *AnalysisModel) WaitForOutputsWithContext(ctx context.Context, outputsLength int, waitConfig *core.WaitConfig) (core.RecordSet, error) {
	series := lookup[*Series](m.analyses.Rest, "Series")
	return series.WaitForCountWithContext(ctx, m.ID(), outputsLength, waitConfig)
}

// WaitForOutputs polls for analysis outputs using the bound REST context.
func (m *AnalysisModel) WaitForOutputs(outputsLength int, waitConfig *core.WaitConfig) (core.RecordSet, error) {
	return m.WaitForOutputsWithContext(m.analyses.Rest.GetCtx(), outputsLength, waitConfig)
}
