package untyped

import (
	"net/http"
	urlpkg "net/url"
	"reflect"
	"testing"

	"github.com/openergy/go-ovbp-client/core"
)

func newProjectFixture(t *testing.T, rest *testRest) *ProjectModel {
	t.Helper()
	projects := lookup[*Project](rest, "Project")
	model, err := newProjectModel(projects, core.Record{
		"id":    "p-1",
		"name":  "boiler-room",
		"odata": "od-1",
	})
	if err != nil {
		t.Fatalf("newProjectModel() error: %v", err)
	}
	return model
}

func TestProjectModel_OdataFromSnapshot(t *testing.T) {
	rest, _ := newHarness()
	project := newProjectFixture(t, rest)

	odata, err := project.Odata()
	if err != nil {
		t.Fatalf("Odata() error: %v", err)
	}
	if odata != "od-1" {
		t.Errorf("Odata() = %q, want \"od-1\"", odata)
	}
}

func TestProjectModel_OdataReverseLookup(t *testing.T) {
	rest, session := newHarness()
	projects := lookup[*Project](rest, "Project")
	// An older record without the embedded odata id.
	project, err := newProjectModel(projects, core.Record{"id": "p-1", "name": "boiler-room"})
	if err != nil {
		t.Fatalf("newProjectModel() error: %v", err)
	}

	session.on(http.MethodGet, "/odata/projects", func(query urlpkg.Values, _ core.Params) (core.Renderable, error) {
		if query.Get("base") != "p-1" {
			t.Errorf("base = %q, want \"p-1\"", query.Get("base"))
		}
		return listOf(core.Record{"id": "od-1", "base": "p-1"}), nil
	})

	odata, err := project.Odata()
	if err != nil {
		t.Fatalf("Odata() error: %v", err)
	}
	if odata != "od-1" {
		t.Errorf("Odata() = %q, want \"od-1\"", odata)
	}
}

func TestProjectModel_GetResource(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.on(http.MethodGet, "/odata/gates", func(query urlpkg.Values, _ core.Params) (core.Renderable, error) {
		if query.Get("project") != "od-1" {
			t.Errorf("project = %q, want \"od-1\"", query.Get("project"))
		}
		switch query.Get("name") {
		case "pump":
			return listOf(core.Record{"id": "g-1", "name": "pump", "active": true}), nil
		case "duplicated":
			return listOf(
				core.Record{"id": "g-1", "name": "duplicated"},
				core.Record{"id": "g-2", "name": "duplicated"},
			), nil
		default:
			return listOf(), nil
		}
	})

	t.Run("match", func(t *testing.T) {
		model, err := project.GetResource(CategoryGate, "pump")
		if err != nil {
			t.Fatalf("GetResource() error: %v", err)
		}
		if model == nil || model.ID() != "g-1" {
			t.Errorf("GetResource() = %v", model)
		}
	})

	t.Run("miss is soft", func(t *testing.T) {
		model, err := project.GetResource(CategoryGate, "absent")
		if err != nil {
			t.Fatalf("GetResource() error: %v", err)
		}
		if model != nil {
			t.Errorf("GetResource() = %v, want nil", model)
		}
	})

	t.Run("multiple matches", func(t *testing.T) {
		_, err := project.GetResource(CategoryGate, "duplicated")
		if !core.IsTooManyRecordsErr(err) {
			t.Errorf("GetResource() error = %v, want TooManyRecordsError", err)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := project.GetResource("feeder", "pump")
		if !core.IsValidationErr(err) {
			t.Errorf("GetResource() error = %v, want ValidationError", err)
		}
	})
}

func TestProjectModel_GetGateTyped(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf(
		core.Record{"id": "g-1", "name": "pump", "active": false},
	))

	gate, err := project.GetGate("pump")
	if err != nil {
		t.Fatalf("GetGate() error: %v", err)
	}
	if gate.Name() != "pump" {
		t.Errorf("Name() = %q", gate.Name())
	}
	if active, _ := gate.IsActive(); active {
		t.Errorf("gate unexpectedly active")
	}
}

func TestProjectModel_ListResources(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf(
		core.Record{"id": "g-1", "name": "pump"},
		core.Record{"id": "g-2", "name": "meter"},
	))
	session.reply(http.MethodGet, "/odata/importers", listOf(
		core.Record{"id": "i-1", "name": "pump-parser"},
	))

	resources, err := project.ListResources(CategoryGate, CategoryImporter)
	if err != nil {
		t.Fatalf("ListResources() error: %v", err)
	}
	if len(resources[CategoryGate]) != 2 {
		t.Errorf("gates = %d, want 2", len(resources[CategoryGate]))
	}
	if len(resources[CategoryImporter]) != 1 {
		t.Errorf("importers = %d, want 1", len(resources[CategoryImporter]))
	}
	if name := resources[CategoryGate][0].Name(); name != "pump" {
		t.Errorf("first gate = %q", name)
	}
}

func TestCreateInternalGate(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf())
	session.on(http.MethodPost, "/odata/gates", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		if body["project"] != "od-1" || body["name"] != "pump" {
			t.Errorf("gate body = %v", body)
		}
		return core.Record{"id": "g-1", "name": "pump", "active": false}, nil
	})
	session.on(http.MethodPost, "/oftp/accounts", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		if body["gate"] != "g-1" {
			t.Errorf("oftp body = %v", body)
		}
		return core.Record{"id": "ftp-1", "gate": "g-1"}, nil
	})
	session.on(http.MethodPost, "/odata/base_feeders", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		if body["gate"] != "g-1" || body["timezone"] != "Europe/Paris" || body["crontab"] != "0 6 * * *" {
			t.Errorf("base feeder body = %v", body)
		}
		return core.Record{"id": "bf-1", "gate": "g-1"}, nil
	})
	session.on(http.MethodPost, "/odata/generic_basic_feeders", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		if body["base_feeder"] != "bf-1" || body["script"] != "fetch()" {
			t.Errorf("basic feeder body = %v", body)
		}
		return core.Record{"id": "gbf-1"}, nil
	})
	session.reply(http.MethodPatch, "/odata/gates/g-1/active",
		core.Record{"id": "g-1", "name": "pump", "active": true})

	gate, report, err := project.CreateInternalGate(InternalGateParams{
		Name:     "pump",
		Crontab:  "0 6 * * *",
		Script:   "fetch()",
		Activate: true,
	})
	if err != nil {
		t.Fatalf("CreateInternalGate() error: %v\nreport: %s", err, report)
	}
	if active, _ := gate.IsActive(); !active {
		t.Errorf("gate not active after workflow")
	}
	wantSteps := []string{
		"checked existing",
		"created gate",
		"created oftp account",
		"created base feeder",
		"attached feeder script",
		"activated",
	}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
}

func TestCreateInternalGate_PassiveNeverActivates(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf())
	session.reply(http.MethodPost, "/odata/gates",
		core.Record{"id": "g-1", "name": "pump", "active": false})
	session.reply(http.MethodPost, "/oftp/accounts", core.Record{"id": "ftp-1"})

	gate, report, err := project.CreateInternalGate(InternalGateParams{
		Name:        "pump",
		Passive:     true,
		Activate:    true,
		WaitForFile: true,
	})
	if err != nil {
		t.Fatalf("CreateInternalGate() error: %v\nreport: %s", err, report)
	}
	if active, _ := gate.IsActive(); active {
		t.Errorf("passive gate was activated")
	}
	wantSteps := []string{"checked existing", "created gate", "created oftp account"}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
	if calls := session.callsTo(http.MethodPatch, "/odata/gates/g-1/active"); len(calls) != 0 {
		t.Errorf("workflow patched a passive gate active")
	}
	if calls := session.callsTo(http.MethodGet, "/odata/gates/g-1/last_files"); len(calls) != 0 {
		t.Errorf("workflow polled files on an inactive gate")
	}
}

func TestCreateImporter_WaitsRequireActivation(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/importers", listOf())
	session.reply(http.MethodPost, "/odata/importers",
		core.Record{"id": "i-1", "name": "pump-parser", "active": false})
	session.reply(http.MethodPatch, "/odata/importers/i-1",
		core.Record{"id": "i-1", "name": "pump-parser", "active": false})

	importer, report, err := project.CreateImporter(ImporterParams{
		Name:          "pump-parser",
		GateName:      "pump",
		ParseScript:   "parse()",
		OutputsLength: 2,
	})
	if err != nil {
		t.Fatalf("CreateImporter() error: %v\nreport: %s", err, report)
	}
	if importer == nil {
		t.Fatalf("importer = nil")
	}
	wantSteps := []string{"checked existing", "created importer", "configured"}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
	if calls := session.callsTo(http.MethodGet, "/odata/series"); len(calls) != 0 {
		t.Errorf("workflow awaited outputs of an inactive importer")
	}
}

func TestCreateInternalGate_AbortsOnExisting(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf(
		core.Record{"id": "g-0", "name": "pump"},
	))

	gate, report, err := project.CreateInternalGate(InternalGateParams{Name: "pump"})
	if !core.IsAlreadyExistsErr(err) {
		t.Fatalf("CreateInternalGate() error = %v, want AlreadyExistsError", err)
	}
	if gate != nil {
		t.Errorf("gate = %v, want nil", gate)
	}
	if !reflect.DeepEqual(report.Completed(), []string{"checked existing"}) {
		t.Errorf("steps = %v", report.Completed())
	}
	if calls := session.callsTo(http.MethodPost, "/odata/gates"); len(calls) != 0 {
		t.Errorf("workflow created a gate despite the abort")
	}
}

func TestCreateInternalGate_ReplacesExisting(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf(
		core.Record{"id": "g-0", "name": "pump"},
	))
	session.reply(http.MethodDelete, "/odata/gates/g-0", core.Record{})
	session.reply(http.MethodPost, "/odata/gates",
		core.Record{"id": "g-1", "name": "pump", "active": false})
	session.reply(http.MethodPost, "/oftp/accounts", core.Record{"id": "ftp-1"})

	// Passive gate: files are pushed by the sender, no feeder to schedule.
	gate, report, err := project.CreateInternalGate(InternalGateParams{
		Name:    "pump",
		Replace: true,
		Passive: true,
	})
	if err != nil {
		t.Fatalf("CreateInternalGate() error: %v\nreport: %s", err, report)
	}
	if gate.ID() != "g-1" {
		t.Errorf("gate id = %q", gate.ID())
	}
	wantSteps := []string{"checked existing", "deleted previous", "created gate", "created oftp account"}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
	if calls := session.callsTo(http.MethodDelete, "/odata/gates/g-0"); len(calls) != 1 {
		t.Errorf("previous gate not deleted")
	}
}

func TestCreateInternalGate_PartialFailureKeepsReport(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf())
	session.reply(http.MethodPost, "/odata/gates",
		core.Record{"id": "g-1", "name": "pump", "active": false})
	session.on(http.MethodPost, "/oftp/accounts", func(_ urlpkg.Values, _ core.Params) (core.Renderable, error) {
		return nil, &core.ApiError{StatusCode: 500, Body: "storage unavailable"}
	})

	gate, report, err := project.CreateInternalGate(InternalGateParams{Name: "pump"})
	if err == nil {
		t.Fatalf("CreateInternalGate() swallowed the failure")
	}
	// The gate was created before the failure: the caller gets the partial
	// model and the report shows how far the workflow went. Nothing is rolled back.
	if gate == nil || gate.ID() != "g-1" {
		t.Errorf("partial gate = %v", gate)
	}
	wantSteps := []string{"checked existing", "created gate"}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
	if calls := session.callsTo(http.MethodDelete, "/odata/gates/g-1"); len(calls) != 0 {
		t.Errorf("workflow rolled the gate back")
	}
}

func TestCreateExternalGate(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf())
	session.reply(http.MethodPost, "/odata/gates",
		core.Record{"id": "g-1", "name": "remote", "active": false})
	session.on(http.MethodPatch, "/odata/gates/g-1", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		want := core.Params{
			"custom_host":     "ftp.customer.example",
			"custom_port":     21,
			"custom_protocol": "ftp",
			"custom_login":    "openergy",
			"password":        "secret",
		}
		if !reflect.DeepEqual(body, want) {
			t.Errorf("update body = %v", body)
		}
		return core.Record{"id": "g-1", "name": "remote", "active": false, "custom_host": "ftp.customer.example"}, nil
	})

	gate, report, err := project.CreateExternalGate(ExternalGateParams{
		Name:     "remote",
		Host:     "ftp.customer.example",
		Port:     21,
		Protocol: "ftp",
		Login:    "openergy",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("CreateExternalGate() error: %v\nreport: %s", err, report)
	}
	if host, _ := gate.Field("custom_host"); host != "ftp.customer.example" {
		t.Errorf("custom_host = %v", host)
	}
	wantSteps := []string{"checked existing", "created gate", "configured remote server"}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
}

func TestCreateImporter(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/importers", listOf())
	session.reply(http.MethodPost, "/odata/importers",
		core.Record{"id": "i-1", "name": "pump-parser", "active": false})
	session.on(http.MethodPatch, "/odata/importers/i-1", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		want := core.Params{
			"gate_name":        "pump",
			"parse_script":     "parse()",
			"root_dir_path":    "/",
			"crontab":          "0 7 * * *",
			"re_run_last_file": false,
			"activate":         false,
		}
		if !reflect.DeepEqual(body, want) {
			t.Errorf("configure body = %v", body)
		}
		return core.Record{"id": "i-1", "name": "pump-parser", "active": false, "gate_name": "pump"}, nil
	})
	session.reply(http.MethodPatch, "/odata/importers/i-1/active",
		core.Record{"id": "i-1", "name": "pump-parser", "active": true})
	session.on(http.MethodGet, "/odata/series", func(query urlpkg.Values, _ core.Params) (core.Renderable, error) {
		if query.Get("generator") != "i-1" {
			t.Errorf("generator = %q, want \"i-1\"", query.Get("generator"))
		}
		return listOf(
			core.Record{"id": "s-1", "name": "temperature"},
			core.Record{"id": "s-2", "name": "pressure"},
		), nil
	})
	session.reply(http.MethodGet, "/odata/cleaners", listOf(
		core.Record{"id": "c-1", "name": "pump-parser-cleaner", "related_importer": "i-1"},
	))

	importer, report, err := project.CreateImporter(ImporterParams{
		Name:                "pump-parser",
		GateName:            "pump",
		ParseScript:         "parse()",
		Crontab:             "0 7 * * *",
		Activate:            true,
		OutputsLength:       2,
		CleanerInputsLength: 2,
	})
	if err != nil {
		t.Fatalf("CreateImporter() error: %v\nreport: %s", err, report)
	}
	if importer.ID() != "i-1" {
		t.Errorf("importer id = %q", importer.ID())
	}
	wantSteps := []string{
		"checked existing",
		"created importer",
		"configured",
		"activated",
		"outputs ready",
		"cleaner inputs ready",
	}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
}

func TestCreateAnalysis(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/analyses", listOf())
	session.reply(http.MethodPost, "/odata/analyses",
		core.Record{"id": "a-1", "name": "cop", "active": false})
	session.on(http.MethodPost, "/odata/analysis_inputs", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		if body["analysis"] != "a-1" {
			t.Errorf("input body = %v", body)
		}
		return core.Record{"id": "ai-1"}, nil
	})
	session.on(http.MethodPost, "/odata/analysis_configs", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		if body["analysis"] != "a-1" || body["script_method"] != "array" || body["script"] != "compute()" {
			t.Errorf("config body = %v", body)
		}
		return core.Record{"id": "ac-1"}, nil
	})
	session.on(http.MethodPost, "/odata/analysis_outputs", func(_ urlpkg.Values, body core.Params) (core.Renderable, error) {
		if body["analysis"] != "a-1" {
			t.Errorf("output body = %v", body)
		}
		return core.Record{"id": "ao-1"}, nil
	})
	session.reply(http.MethodPatch, "/odata/analyses/a-1/active",
		core.Record{"id": "a-1", "name": "cop", "active": true})

	analysis, report, err := project.CreateAnalysis(AnalysisParams{
		Name: "cop",
		Inputs: []core.Params{
			{"input_series_name": "temperature"},
			{"input_series_name": "pressure"},
		},
		Config: core.Params{
			"script":          "compute()",
			"input_freq":      "1H",
			"output_freq":     "1H",
			"clock":           "tzt",
			"output_timezone": "Europe/Paris",
		},
		Outputs:  []core.Params{{"name": "cop"}},
		Activate: true,
	})
	if err != nil {
		t.Fatalf("CreateAnalysis() error: %v\nreport: %s", err, report)
	}
	if analysis.ID() != "a-1" {
		t.Errorf("analysis id = %q", analysis.ID())
	}
	wantSteps := []string{
		"checked existing",
		"created analysis",
		"bound 2 inputs",
		"configured",
		"declared 1 outputs",
		"activated",
	}
	if !reflect.DeepEqual(report.Completed(), wantSteps) {
		t.Errorf("steps = %v, want %v", report.Completed(), wantSteps)
	}
	if calls := session.callsTo(http.MethodPost, "/odata/analysis_inputs"); len(calls) != 2 {
		t.Errorf("inputs created = %d, want 2", len(calls))
	}
}

func TestProjectModel_DeactivateAll(t *testing.T) {
	rest, session := newHarness()
	project := newProjectFixture(t, rest)

	session.reply(http.MethodGet, "/odata/gates", listOf(
		core.Record{"id": "g-1", "name": "pump", "active": true},
		core.Record{"id": "g-2", "name": "meter", "active": false},
	))
	session.reply(http.MethodGet, "/odata/importers", listOf(
		core.Record{"id": "i-1", "name": "pump-parser", "active": true},
	))
	session.reply(http.MethodGet, "/odata/cleaners", listOf())
	session.reply(http.MethodGet, "/odata/analyses", listOf())
	session.reply(http.MethodPatch, "/odata/gates/g-1/active",
		core.Record{"id": "g-1", "name": "pump", "active": false})
	session.reply(http.MethodPatch, "/odata/importers/i-1/active",
		core.Record{"id": "i-1", "name": "pump-parser", "active": false})

	if err := project.DeactivateAll(); err != nil {
		t.Fatalf("DeactivateAll() error: %v", err)
	}
	if calls := session.callsTo(http.MethodPatch, "/odata/gates/g-1/active"); len(calls) != 1 {
		t.Errorf("active gate not deactivated")
	}
	// The inactive gate is left alone.
	if calls := session.callsTo(http.MethodPatch, "/odata/gates/g-2/active"); len(calls) != 0 {
		t.Errorf("inactive gate deactivated")
	}
}

func TestStepReport_String(t *testing.T) {
	report := newStepReport("create importer", "pump-parser")
	report.mark("checked existing")
	report.mark("created importer")

	want := "create importer 'pump-parser': [checked existing, created importer]"
	if report.String() != want {
		t.Errorf("String() = %q, want %q", report.String(), want)
	}
}
