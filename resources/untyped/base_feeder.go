package untyped

import (
	"context"

	"github.com/openergy/go-ovbp-client/core"
)

// BaseFeeder schedules the download loop of an internal gate: it fires on a
// crontab, in a timezone, and delegates the actual file retrieval to a child
// generic basic feeder carrying the download script.
type BaseFeeder struct {
	*core.OvbpResource
}

// GenericBasicFeeder holds the user supplied download script of a base feeder.
type GenericBasicFeeder struct {
	*core.OvbpResource
}

// CreateForGateWithContext creates the scheduling feeder for a gate.
func (b *BaseFeeder) CreateForGateWithContext(ctx context.Context, gateID any, timezone, crontab string) (core.Record, error) {
	return b.CreateWithContext(ctx, core.Params{
		"gate":     gateID,
		"timezone": timezone,
		"crontab":  crontab,
	})
}

// CreateForGate creates the scheduling feeder for a gate using the bound REST context.
func (b *BaseFeeder) CreateForGate(gateID any, timezone, crontab string) (core.Record, error) {
	return b.CreateForGateWithContext(b.Rest.GetCtx(), gateID, timezone, crontab)
}

// CreateForFeederWithContext attaches a download script to a base feeder. The
// platform then marks the base feeder's child_model accordingly.
func (g *GenericBasicFeeder) CreateForFeederWithContext(ctx context.Context, baseFeederID any, script string) (core.Record, error) {
	return g.CreateWithContext(ctx, core.Params{
		"base_feeder": baseFeederID,
		"script":      script,
	})
}

// CreateForFeeder attaches a download script to a base feeder using the bound REST context.
func (g *GenericBasicFeeder) CreateForFeeder(baseFeederID any, script string) (core.Record, error) {
	return g.CreateForFeederWithContext(g.Rest.GetCtx(), baseFeederID, script)
}
