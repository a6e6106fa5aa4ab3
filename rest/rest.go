// Package rest assembles the platform resource collections behind a single
// client value. NewPlatformRest validates the configuration, opens the HTTP
// session and registers every collection in the shared resource map.
package rest

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/openergy/go-ovbp-client/api"
	"github.com/openergy/go-ovbp-client/core"
	"github.com/openergy/go-ovbp-client/resources/untyped"
)

// PlatformRest is the client for the platform REST API. Each field is one
// resource collection; they all share the same session and context.
type PlatformRest struct {
	ctx         context.Context
	Session     core.RESTSession
	resourceMap map[string]core.OvbpResourceAPIWithContext

	Organizations *untyped.Organization
	Projects      *untyped.Project
	OdataProjects *untyped.OdataProject

	// +apiall:extraMethod:GET=/odata/gates/{id}/last_files/
	Gates        *untyped.Gate
	Importers    *untyped.Importer
	Cleaners     *untyped.Cleaner
	UnitCleaners *untyped.UnitCleaner

	Analyses        *untyped.Analysis
	AnalysisInputs  *untyped.AnalysisInput
	AnalysisConfigs *untyped.AnalysisConfig
	AnalysisOutputs *untyped.AnalysisOutput

	// +apiall:extraMethod:GET=/odata/series/{id}/data/
	// +apiall:extraMethod:POST=/odata/series/{id}/select/
	Series *untyped.Series

	BaseFeeders         *untyped.BaseFeeder
	GenericBasicFeeders *untyped.GenericBasicFeeder
	OftpAccounts        *untyped.OftpAccount

	Versions *untyped.Version
}

func (rest *PlatformRest) GetSession() core.RESTSession {
	return rest.Session
}

func (rest *PlatformRest) GetResourceMap() map[string]core.OvbpResourceAPIWithContext {
	return rest.resourceMap
}

// GetCtx returns the context bound to the client. Bound-context method
// variants (List, Get, ...) use it for every request.
func (rest *PlatformRest) GetCtx() context.Context {
	if rest.ctx == nil {
		return context.Background()
	}
	return rest.ctx
}

// SetCtx rebinds the client context used by bound-context method variants.
func (rest *PlatformRest) SetCtx(ctx context.Context) {
	rest.ctx = ctx
}

// NewPlatformRest creates a PlatformRest client from the given config.
// Missing config values fall back to client defaults.
func NewPlatformRest(config *core.PlatformConfig) (*PlatformRest, error) {
	config.Validate(
		core.WithAuth,
		core.WithHost,
		core.WithUserAgent,
		core.WithFillFn,
		core.WithApiVersion("v1"),
		core.WithTimeout(30*time.Second),
		core.WithMaxConnections(10),
		core.WithPort(443),
		core.WithPageSize(200),
	)
	session, err := core.NewPlatformSession(config)
	if err != nil {
		return nil, err
	}
	rest := &PlatformRest{
		Session:     session,
		resourceMap: make(map[string]core.OvbpResourceAPIWithContext),
	}
	if config.Context != nil {
		rest.SetCtx(config.Context)
	} else {
		rest.SetCtx(context.Background())
	}

	rest.Organizations = newUntypedResource[untyped.Organization](rest, "oteams/organizations", core.C, core.L, core.R, core.U, core.D)
	rest.Projects = newUntypedResource[untyped.Project](rest, "oteams/projects", core.C, core.L, core.R, core.U, core.D)
	rest.OdataProjects = newUntypedResource[untyped.OdataProject](rest, "odata/projects", core.L, core.R)

	rest.Gates = newUntypedResource[untyped.Gate](rest, "odata/gates", core.C, core.L, core.R, core.U, core.D)
	rest.Importers = newUntypedResource[untyped.Importer](rest, "odata/importers", core.C, core.L, core.R, core.U, core.D)
	rest.Cleaners = newUntypedResource[untyped.Cleaner](rest, "odata/cleaners", core.L, core.R, core.U)
	rest.UnitCleaners = newUntypedResource[untyped.UnitCleaner](rest, "odata/unitcleaners", core.C, core.L, core.R, core.U, core.D)

	rest.Analyses = newUntypedResource[untyped.Analysis](rest, "odata/analyses", core.C, core.L, core.R, core.U, core.D)
	rest.AnalysisInputs = newUntypedResource[untyped.AnalysisInput](rest, "odata/analysis_inputs", core.C, core.L, core.R, core.U, core.D)
	rest.AnalysisConfigs = newUntypedResource[untyped.AnalysisConfig](rest, "odata/analysis_configs", core.C, core.L, core.R, core.U, core.D)
	rest.AnalysisOutputs = newUntypedResource[untyped.AnalysisOutput](rest, "odata/analysis_outputs", core.C, core.L, core.R, core.U, core.D)

	rest.Series = newUntypedResource[untyped.Series](rest, "odata/series", core.L, core.R)

	rest.BaseFeeders = newUntypedResource[untyped.BaseFeeder](rest, "odata/base_feeders", core.C, core.L, core.R, core.U)
	rest.GenericBasicFeeders = newUntypedResource[untyped.GenericBasicFeeder](rest, "odata/generic_basic_feeders", core.C, core.L, core.R, core.U)
	rest.OftpAccounts = newUntypedResource[untyped.OftpAccount](rest, "oftp/accounts", core.C, core.L, core.R, core.D)

	rest.Versions = newUntypedResource[untyped.Version](rest, "versions", core.L)

	return rest, nil
}

// SearchableParams returns the query parameters a collection's List call can
// filter on, according to the embedded OpenAPI schema snapshot.
func (rest *PlatformRest) SearchableParams(resource core.OvbpResourceAPI) ([]string, error) {
	return api.SearchableQueryParams(resource.GetResourcePath())
}

// newUntypedResource builds a resource collection of type T, wires its
// embedded *core.OvbpResource and registers it in the shared resource map
// under T's type name.
func newUntypedResource[T any](rest *PlatformRest, resourcePath string, ops ...core.ResourceOps) *T {
	var zero T
	resourceType := reflect.TypeOf(zero).Name()

	instance := reflect.New(reflect.TypeOf(zero))
	base := core.NewOvbpResource(resourcePath, resourceType, rest, core.NewResourceOps(ops...), instance.Interface())

	field := instance.Elem().FieldByName("OvbpResource")
	if !field.IsValid() || field.Type() != reflect.TypeOf((*core.OvbpResource)(nil)) {
		panic(fmt.Sprintf("resource type %s does not embed *core.OvbpResource", resourceType))
	}
	field.Set(reflect.ValueOf(base))

	typed := instance.Interface().(*T)
	api, ok := instance.Interface().(core.OvbpResourceAPIWithContext)
	if !ok {
		panic(fmt.Sprintf("resource type %s does not implement the resource API", resourceType))
	}
	rest.resourceMap[resourceType] = api
	return typed
}
