package untyped

import (
	"context"

	"github.com/openergy/go-ovbp-client/core"
)

// OdataProject is the data-side twin of an oteams Project. Gates, importers,
// cleaners, analyses and series all link to it through their "project" field,
// while its "base" field points back at the owning oteams project.
type OdataProject struct {
	*core.OvbpResource
}

// GetByBaseWithContext retrieves the odata project linked to the given oteams project id.
func (o *OdataProject) GetByBaseWithContext(ctx context.Context, baseID any) (core.Record, error) {
	return o.GetWithContext(ctx, core.Params{"base": baseID})
}

// GetByBase retrieves the odata project linked to the given oteams project id
// using the bound REST context.
func (o *OdataProject) GetByBase(baseID any) (core.Record, error) {
	return o.GetByBaseWithContext(o.Rest.GetCtx(), baseID)
}

// ResolveBaseWithContext resolves an odata project id back to its oteams project id.
func (o *OdataProject) ResolveBaseWithContext(ctx context.Context, odataID any) (string, error) {
	record, err := o.GetByIdWithContext(ctx, odataID)
	if err != nil {
		return "", err
	}
	base, ok := record["base"]
	if !ok || base == nil {
		return "", &core.AttributeNotFoundError{
			Resource:  o.GetResourceType(),
			Attribute: "base",
		}
	}
	return toStringID(base), nil
}

// ResolveBase resolves an odata project id back to its oteams project id
// using the bound REST context.
func (o *OdataProject) ResolveBase(odataID any) (string, error) {
	return o.ResolveBaseWithContext(o.Rest.GetCtx(), odataID)
}
