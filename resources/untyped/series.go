package untyped

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openergy/go-ovbp-client/core"
)

// Series is the read-only collection of timeseries produced by gates,
// importers, cleaners and analyses. A series points at its producer through
// the "generator" field, which is how output readiness is counted.
type Series struct {
	*core.OvbpResource
}

func init() {
	core.RegisterExtraMethod(
		"Series",
		"SeriesData_GET",
		http.MethodGet,
		"/odata/series/{id}/data/",
		"Download the data points of a series",
	)
	core.RegisterExtraMethod(
		"Series",
		"SeriesSelect_POST",
		http.MethodPost,
		"/odata/series/{id}/select/",
		"Select a sub-range of a series by time window",
	)
}

// ListByGeneratorWithContext lists the series produced by a given generator
// (importer, cleaner or analysis odata id).
func (s *Series) ListByGeneratorWithContext(ctx context.Context, generatorID any) (core.RecordSet, error) {
	return s.ListWithContext(ctx, core.Params{"generator": generatorID})
}

// ListByGenerator lists the series of a generator using the bound REST context.
func (s *Series) ListByGenerator(generatorID any) (core.RecordSet, error) {
	return s.ListByGeneratorWithContext(s.Rest.GetCtx(), generatorID)
}

// DataWithContext downloads the data points of a series. Bulk point payloads
// are served msgpack-encoded, which is both smaller and faster to decode than
// the JSON rendering; the Accept header negotiates that representation.
//
// Supported params: "start", "end" (ISO timestamps) and "max_rows".
func (s *Series) DataWithContext(ctx context.Context, id any, params core.Params) (core.Record, error) {
	path := core.BuildResourcePathWithID(s.GetResourcePath(), id, "data")
	headers := []http.Header{{core.HeaderAccept: []string{core.ContentTypeMsgpack}}}
	return core.RequestWithHeaders[core.Record](ctx, s, http.MethodGet, path, params, nil, headers)
}

// Data downloads the data points of a series using the bound REST context.
func (s *Series) Data(id any, params core.Params) (core.Record, error) {
	return s.DataWithContext(s.Rest.GetCtx(), id, params)
}

// WaitForCountWithContext polls the series of a generator until at least
// minimum of them exist or the timeout elapses. A nil waitConfig polls every
// 15 seconds for up to 3 minutes. Importers and analyses use this to await
// their first run producing outputs.
func (s *Series) WaitForCountWithContext(ctx context.Context, generatorID any, minimum int, waitConfig *core.WaitConfig) (core.RecordSet, error) {
	if waitConfig == nil {
		waitConfig = &core.WaitConfig{Timeout: 3 * time.Minute, Interval: 15 * time.Second}
	}
	condition := fmt.Sprintf("generator '%v' produced %d series", generatorID, minimum)
	return core.WaitFor(ctx, s.GetResourcePath(), condition, waitConfig,
		func(pollCtx context.Context) (core.RecordSet, bool, string, error) {
			records, err := s.ListByGeneratorWithContext(pollCtx, generatorID)
			if err != nil {
				return nil, false, "", fmt.Errorf("waiting for series failed: %w", err)
			}
			return records, len(records) >= minimum, fmt.Sprintf("%d series", len(records)), nil
		})
}

// WaitForCount polls the series of a generator using the bound REST context.
func (s *Series) WaitForCount(generatorID any, minimum int, waitConfig *core.WaitConfig) (core.RecordSet, error) {
	return s.WaitForCountWithContext(s.Rest.GetCtx(), generatorID, minimum, waitConfig)
}

// SelectWithContext asks the platform to materialize a sub-range of a series.
func (s *Series) SelectWithContext(ctx context.Context, id any, body core.Params) (core.Record, error) {
	return s.DetailActionWithContext(ctx, id, "select", http.MethodPost, body)
}

// Select materializes a sub-range of a series using the bound REST context.
func (s *Series) Select(id any, body core.Params) (core.Record, error) {
	return s.SelectWithContext(s.Rest.GetCtx(), id, body)
}
