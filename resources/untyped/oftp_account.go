package untyped

import (
	"context"

	"github.com/openergy/go-ovbp-client/core"
)

// OftpAccount manages the ftp credentials attached to internal gates. An
// internal gate receives its files on platform storage through exactly one
// oftp account, created right after the gate itself.
type OftpAccount struct {
	*core.OvbpResource
}

// CreateForGateWithContext provisions an ftp account attached to the given gate.
// The platform generates the login and password server side.
func (o *OftpAccount) CreateForGateWithContext(ctx context.Context, gateID any) (core.Record, error) {
	return o.CreateWithContext(ctx, core.Params{"gate": gateID})
}

// CreateForGate provisions an ftp account for a gate using the bound REST context.
func (o *OftpAccount) CreateForGate(gateID any) (core.Record, error) {
	return o.CreateForGateWithContext(o.Rest.GetCtx(), gateID)
}
