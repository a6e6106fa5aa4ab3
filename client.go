package ovbp_client

import (
	"context"

	"github.com/openergy/go-ovbp-client/core"
	"github.com/openergy/go-ovbp-client/resources/untyped"
	"github.com/openergy/go-ovbp-client/rest"
)

type (
	PlatformConfig               = core.PlatformConfig
	Params                       = core.Params
	Record                       = core.Record
	RecordSet                    = core.RecordSet
	Renderable                   = core.Renderable
	Model                        = core.Model
	WaitConfig                   = core.WaitConfig
	PlatformRest                 = rest.PlatformRest
	OvbpResourceAPI              = core.OvbpResourceAPI
	OvbpResourceAPIWithContext   = core.OvbpResourceAPIWithContext
	InterceptableOvbpResourceAPI = core.InterceptableOvbpResourceAPI

	OrganizationModel  = untyped.OrganizationModel
	ProjectModel       = untyped.ProjectModel
	GateModel          = untyped.GateModel
	ImporterModel      = untyped.ImporterModel
	CleanerModel       = untyped.CleanerModel
	AnalysisModel      = untyped.AnalysisModel
	StepReport         = untyped.StepReport
	InternalGateParams = untyped.InternalGateParams
	ExternalGateParams = untyped.ExternalGateParams
	ImporterParams     = untyped.ImporterParams
	AnalysisParams     = untyped.AnalysisParams

	NotFoundError          = core.NotFoundError
	TooManyRecordsError    = core.TooManyRecordsError
	ValidationError        = core.ValidationError
	AttributeNotFoundError = core.AttributeNotFoundError
	DestroyedError         = core.DestroyedError
	TimeoutError           = core.TimeoutError
	AlreadyExistsError     = core.AlreadyExistsError
	ApiError               = core.ApiError
)

func NewPlatformRest(config *PlatformConfig) (*PlatformRest, error) {
	return rest.NewPlatformRest(config)
}

// WaitCondition polls a collection until a condition on its record is met or
// the timeout elapses.
func WaitCondition(
	ctx context.Context,
	caller OvbpResourceAPIWithContext,
	searchParams Params,
	waitConfig *WaitConfig,
	verifyFn func(Record) (bool, error),
) (Record, error) {
	return core.WaitCondition(ctx, caller, searchParams, waitConfig, verifyFn)
}
