package plans

import "errors"

var (
	ErrUnknownPlan              = errors.New("plans: unknown plan")
	ErrUnknownFeature           = errors.New("plans: unknown feature")
	ErrInvalidPlanConfiguration = errors.New("plans: invalid plan configuration")
	ErrFailedToLoadPlans        = errors.New("plans: failed to load plans")
	ErrInvalidQuota             = errors.New("plans: invalid quota")
)
