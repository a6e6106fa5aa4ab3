package untyped

import (
	"context"
	"fmt"
	"net/http"
	urlpkg "net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/openergy/go-ovbp-client/core"
)

// sessionCall records one HTTP call issued through the mock session.
type sessionCall struct {
	verb string
	path string
	body core.Params
}

// mockRoute matches a verb and a URL path and produces a canned response.
type mockRoute struct {
	verb    string
	path    string // URL path without the /api/v1 prefix, e.g. "/odata/gates"
	handler func(query urlpkg.Values, body core.Params) (core.Renderable, error)
}

// mockPlatformSession routes requests to registered handlers and records every
// call. Unrouted requests fail loudly so tests never silently skip a step.
type mockPlatformSession struct {
	mu     sync.Mutex
	config *core.PlatformConfig
	routes []mockRoute
	calls  []sessionCall
}

func newMockSession() *mockPlatformSession {
	return &mockPlatformSession{
		config: &core.PlatformConfig{
			Host:       "test.example.com",
			Port:       443,
			ApiVersion: "v1",
			PageSize:   100,
		},
	}
}

func (s *mockPlatformSession) on(verb, path string, handler func(query urlpkg.Values, body core.Params) (core.Renderable, error)) {
	s.routes = append(s.routes, mockRoute{verb: verb, path: path, handler: handler})
}

// reply registers a fixed response for a verb and path.
func (s *mockPlatformSession) reply(verb, path string, response core.Renderable) {
	s.on(verb, path, func(urlpkg.Values, core.Params) (core.Renderable, error) {
		return response, nil
	})
}

func (s *mockPlatformSession) do(verb, rawURL string, body core.Params) (core.Renderable, error) {
	parsed, err := urlpkg.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	path := strings.TrimSuffix(strings.TrimPrefix(parsed.Path, "/api/v1"), "/")

	s.mu.Lock()
	s.calls = append(s.calls, sessionCall{verb: verb, path: path, body: body})
	s.mu.Unlock()

	for _, route := range s.routes {
		if route.verb == verb && route.path == path {
			return route.handler(parsed.Query(), body)
		}
	}
	return nil, fmt.Errorf("no route for %s %s", verb, path)
}

// callsTo returns the recorded calls matching a verb and path.
func (s *mockPlatformSession) callsTo(verb, path string) []sessionCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sessionCall
	for _, call := range s.calls {
		if call.verb == verb && call.path == path {
			out = append(out, call)
		}
	}
	return out
}

func (s *mockPlatformSession) Get(ctx context.Context, url string, body core.Params, headers []http.Header) (core.Renderable, error) {
	return s.do(http.MethodGet, url, body)
}

func (s *mockPlatformSession) Post(ctx context.Context, url string, body core.Params, headers []http.Header) (core.Renderable, error) {
	return s.do(http.MethodPost, url, body)
}

func (s *mockPlatformSession) Put(ctx context.Context, url string, body core.Params, headers []http.Header) (core.Renderable, error) {
	return s.do(http.MethodPut, url, body)
}

func (s *mockPlatformSession) Patch(ctx context.Context, url string, body core.Params, headers []http.Header) (core.Renderable, error) {
	return s.do(http.MethodPatch, url, body)
}

func (s *mockPlatformSession) Delete(ctx context.Context, url string, body core.Params, headers []http.Header) (core.Renderable, error) {
	return s.do(http.MethodDelete, url, body)
}

func (s *mockPlatformSession) GetConfig() *core.PlatformConfig { return s.config }

func (s *mockPlatformSession) GetAuthenticator() core.Authenticator { return nil }

// listOf wraps records in the list response envelope.
func listOf(records ...core.Record) core.Record {
	data := make([]any, 0, len(records))
	for _, record := range records {
		data = append(data, map[string]any(record))
	}
	return core.Record{"data": data, "count": len(records)}
}

// testRest binds the mock session to a resource map, standing in for the full
// rest client inside resource tests.
type testRest struct {
	ctx       context.Context
	session   core.RESTSession
	resources map[string]core.OvbpResourceAPIWithContext
}

func (r *testRest) GetSession() core.RESTSession { return r.session }

func (r *testRest) GetResourceMap() map[string]core.OvbpResourceAPIWithContext {
	return r.resources
}

func (r *testRest) GetCtx() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

func (r *testRest) SetCtx(ctx context.Context) { r.ctx = ctx }

func addCollection[T any](rest *testRest, resourcePath string, ops ...core.ResourceOps) *T {
	var zero T
	resourceType := reflect.TypeOf(zero).Name()

	instance := reflect.New(reflect.TypeOf(zero))
	base := core.NewOvbpResource(resourcePath, resourceType, rest, core.NewResourceOps(ops...), instance.Interface())
	instance.Elem().FieldByName("OvbpResource").Set(reflect.ValueOf(base))

	typed := instance.Interface().(*T)
	rest.resources[resourceType] = instance.Interface().(core.OvbpResourceAPIWithContext)
	return typed
}

// newHarness builds a testRest with every collection registered against a
// fresh mock session, mirroring the production wiring.
func newHarness() (*testRest, *mockPlatformSession) {
	session := newMockSession()
	rest := &testRest{
		session:   session,
		resources: make(map[string]core.OvbpResourceAPIWithContext),
	}

	addCollection[Organization](rest, "oteams/organizations", core.C, core.L, core.R, core.U, core.D)
	addCollection[Project](rest, "oteams/projects", core.C, core.L, core.R, core.U, core.D)
	addCollection[OdataProject](rest, "odata/projects", core.L, core.R)
	addCollection[Gate](rest, "odata/gates", core.C, core.L, core.R, core.U, core.D)
	addCollection[Importer](rest, "odata/importers", core.C, core.L, core.R, core.U, core.D)
	addCollection[Cleaner](rest, "odata/cleaners", core.L, core.R, core.U)
	addCollection[UnitCleaner](rest, "odata/unitcleaners", core.C, core.L, core.R, core.U, core.D)
	addCollection[Analysis](rest, "odata/analyses", core.C, core.L, core.R, core.U, core.D)
	addCollection[AnalysisInput](rest, "odata/analysis_inputs", core.C, core.L, core.R, core.U, core.D)
	addCollection[AnalysisConfig](rest, "odata/analysis_configs", core.C, core.L, core.R, core.U, core.D)
	addCollection[AnalysisOutput](rest, "odata/analysis_outputs", core.C, core.L, core.R, core.U, core.D)
	addCollection[Series](rest, "odata/series", core.L, core.R)
	addCollection[BaseFeeder](rest, "odata/base_feeders", core.C, core.L, core.R, core.U)
	addCollection[GenericBasicFeeder](rest, "odata/generic_basic_feeders", core.C, core.L, core.R, core.U)
	addCollection[OftpAccount](rest, "oftp/accounts", core.C, core.L, core.R, core.D)
	addCollection[Version](rest, "versions", core.L)

	return rest, session
}
