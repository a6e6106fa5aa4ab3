package untyped

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openergy/go-ovbp-client/core"
)

// Gate is the entry point of data into a project. Internal gates receive files
// on platform storage through an oftp account and fetch them on a feeder
// schedule; external gates point at a customer-hosted ftp server instead.
type Gate struct {
	*core.OvbpResource
}

func init() {
	core.RegisterExtraMethod(
		"Gate",
		"GateLastFiles_GET",
		http.MethodGet,
		"/odata/gates/{id}/last_files/",
		"List the files most recently received by a gate",
	)
}

// CreateForProjectWithContext creates a bare gate attached to an odata project.
// Feeder and credentials configuration happen in separate calls.
func (g *Gate) CreateForProjectWithContext(ctx context.Context, odataProjectID any, name, comment string) (core.Record, error) {
	return g.CreateWithContext(ctx, core.Params{
		"project": odataProjectID,
		"name":    name,
		"comment": comment,
	})
}

// CreateForProject creates a bare gate using the bound REST context.
func (g *Gate) CreateForProject(odataProjectID any, name, comment string) (core.Record, error) {
	return g.CreateForProjectWithContext(g.Rest.GetCtx(), odataProjectID, name, comment)
}

// LastFilesWithContext lists the files most recently received by a gate.
// Params may carry "path" (directory to inspect, default "/") and "limit".
func (g *Gate) LastFilesWithContext(ctx context.Context, id any, params core.Params) (core.RecordSet, error) {
	path := core.BuildResourcePathWithID(g.GetResourcePath(), id, "last_files")
	return core.Request[core.RecordSet](ctx, g, http.MethodGet, path, params, nil)
}

// LastFiles lists the most recent gate files using the bound REST context.
func (g *Gate) LastFiles(id any, params core.Params) (core.RecordSet, error) {
	return g.LastFilesWithContext(g.Rest.GetCtx(), id, params)
}

// GateModel is a record-bound view of a gate.
type GateModel struct {
	*core.Model
	gates *Gate
}

func newGateModel(g *Gate, record core.Record) (*GateModel, error) {
	model, err := core.NewModel(g, record)
	if err != nil {
		return nil, err
	}
	return &GateModel{Model: model, gates: g}, nil
}

// CreateOftpAccountWithContext provisions the ftp credentials of an internal gate.
func (m *GateModel) CreateOftpAccountWithContext(ctx context.Context) (core.Record, error) {
	accounts := lookup[*OftpAccount](m.gates.Rest, "OftpAccount")
	return accounts.CreateForGateWithContext(ctx, m.ID())
}

// CreateOftpAccount provisions the ftp credentials using the bound REST context.
func (m *GateModel) CreateOftpAccount() (core.Record, error) {
	return m.CreateOftpAccountWithContext(m.gates.Rest.GetCtx())
}

// CreateBaseFeederWithContext creates the download schedule of an internal gate.
func (m *GateModel) CreateBaseFeederWithContext(ctx context.Context, timezone, crontab string) (core.Record, error) {
	feeders := lookup[*BaseFeeder](m.gates.Rest, "BaseFeeder")
	return feeders.CreateForGateWithContext(ctx, m.ID(), timezone, crontab)
}

// CreateBaseFeeder creates the download schedule using the bound REST context.
func (m *GateModel) CreateBaseFeeder(timezone, crontab string) (core.Record, error) {
	return m.CreateBaseFeederWithContext(m.gates.Rest.GetCtx(), timezone, crontab)
}

// UpdateExternalWithContext points an external gate at a customer-hosted server.
func (m *GateModel) UpdateExternalWithContext(ctx context.Context, host string, port int, protocol, login, password string) error {
	return m.Model.UpdateWithContext(ctx, core.Params{
		"custom_host":     host,
		"custom_port":     port,
		"custom_protocol": protocol,
		"custom_login":    login,
		"password":        password,
	})
}

// UpdateExternal points an external gate at a customer-hosted server using the
// bound REST context.
func (m *GateModel) UpdateExternal(host string, port int, protocol, login, password string) error {
	return m.UpdateExternalWithContext(m.gates.Rest.GetCtx(), host, port, protocol, login, password)
}

// LastFilesWithContext lists the files most recently received by the gate.
func (m *GateModel) LastFilesWithContext(ctx context.Context, params core.Params) (core.RecordSet, error) {
	return m.gates.LastFilesWithContext(ctx, m.ID(), params)
}

// LastFiles lists the most recent gate files using the bound REST context.
func (m *GateModel) LastFiles(params core.Params) (core.RecordSet, error) {
	return m.LastFilesWithContext(m.gates.Rest.GetCtx(), params)
}

// WaitForFileWithContext polls the gate until at least one file has been
// received or the timeout elapses. A nil waitConfig polls every 15 seconds for
// up to 3 minutes, matching the cadence gates deliver files at.
func (m *GateModel) WaitForFileWithContext(ctx context.Context, waitConfig *core.WaitConfig) (core.RecordSet, error) {
	if waitConfig == nil {
		waitConfig = &core.WaitConfig{Timeout: 3 * time.Minute, Interval: 15 * time.Second}
	}
	condition := fmt.Sprintf("gate '%s' received a file", m.Name())
	return core.WaitFor(ctx, m.gates.GetResourcePath(), condition, waitConfig,
		func(pollCtx context.Context) (core.RecordSet, bool, string, error) {
			files, err := m.LastFilesWithContext(pollCtx, nil)
			if err != nil {
				return nil, false, "", fmt.Errorf("waiting for gate file failed: %w", err)
			}
			return files, len(files) > 0, fmt.Sprintf("%d files", len(files)), nil
		})
}

// WaitForFile polls the gate for a received file using the bound REST context.
func (m *GateModel) WaitForFile(waitConfig *core.WaitConfig) (core.RecordSet, error) {
	return m.WaitForFileWithContext(m.gates.Rest.GetCtx(), waitConfig)
}
