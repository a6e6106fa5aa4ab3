package untyped

import (
	"context"

	"github.com/openergy/go-ovbp-client/core"
)

// Cleaner normalizes the output series of an importer. The platform spawns one
// cleaner per importer; only its unitcleaners (one per cleaned series) are
// created by clients, which is why the collection itself is not creatable.
type Cleaner struct {
	*core.OvbpResource
}

// UnitCleaner is the per-series cleaning rule of a cleaner: resampling
// frequency, unit conversion, interpolation limits and so on.
type UnitCleaner struct {
	*core.OvbpResource
}

// CleanerModel is a record-bound view of a cleaner.
type CleanerModel struct {
	*core.Model
	cleaners *Cleaner
}

func newCleanerModel(c *Cleaner, record core.Record) (*CleanerModel, error) {
	model, err := core.NewModel(c, record)
	if err != nil {
		return nil, err
	}
	return &CleanerModel{Model: model, cleaners: c}, nil
}

// InputSeriesWithContext lists the series available to the cleaner, which are
// the output series of its related importer.
func (m *CleanerModel) InputSeriesWithContext(ctx context.Context) (core.RecordSet, error) {
	importerID, err := m.Field("related_importer")
	if err != nil {
		return nil, err
	}
	series := lookup[*Series](m.cleaners.Rest, "Series")
	return series.ListByGeneratorWithContext(ctx, importerID)
}

// InputSeries lists the cleaner's input series using the bound REST context.
func (m *CleanerModel) InputSeries() (core.RecordSet, error) {
	return m.InputSeriesWithContext(m.cleaners.Rest.GetCtx())
}

// OutputSeriesWithContext lists the cleaned series the cleaner has produced.
func (m *CleanerModel) OutputSeriesWithContext(ctx context.Context) (core.RecordSet, error) {
	series := lookup[*Series](m.cleaners.Rest, "Series")
	return series.ListByGeneratorWithContext(ctx, m.ID())
}

// OutputSeries lists the cleaned series using the bound REST context.
func (m *CleanerModel) OutputSeries() (core.RecordSet, error) {
	return m.OutputSeriesWithContext(m.cleaners.Rest.GetCtx())
}

// ListUnitCleanersWithContext lists the configured cleaning rules of the cleaner.
func (m *CleanerModel) ListUnitCleanersWithContext(ctx context.Context) (core.RecordSet, error) {
	unitCleaners := lookup[*UnitCleaner](m.cleaners.Rest, "UnitCleaner")
	return unitCleaners.ListWithContext(ctx, core.Params{"cleaner": m.ID()})
}

// ListUnitCleaners lists the cleaning rules using the bound REST context.
func (m *CleanerModel) ListUnitCleaners() (core.RecordSet, error) {
	return m.ListUnitCleanersWithContext(m.cleaners.Rest.GetCtx())
}

// ConfigureInputWithContext creates the cleaning rule for one input series.
// externalName is the name of the input series as the importer produced it;
// config carries the unitcleaner fields ("name", "freq", "unit", "clock",
// "resample_rule", "interpolate_limit", "wait_offset", ...).
func (m *CleanerModel) ConfigureInputWithContext(ctx context.Context, externalName string, config core.Params) (core.Record, error) {
	body := core.Params{
		"cleaner":       m.ID(),
		"external_name": externalName,
	}
	body.Update(config, false)
	unitCleaners := lookup[*UnitCleaner](m.cleaners.Rest, "UnitCleaner")
	return unitCleaners.CreateWithContext(ctx, body)
}

// ConfigureInput creates the cleaning rule for one input series using the
// bound REST context.
func (m *CleanerModel) ConfigureInput(externalName string, config core.Params) (core.Record, error) {
	return m.ConfigureInputWithContext(m.cleaners.Rest.GetCtx(), externalName, config)
}
