package limits

import "errors"

var (
	ErrPlanNotFound             = errors.New("limits: plan not found")
	ErrInvalidPlanConfiguration = errors.New("limits: invalid plan configuration")

	ErrLimitExceeded       = errors.New("limits: limit exceeded")
	ErrInvalidResource     = errors.New("limits: resource is not limited by the plan")
	ErrNoCounterRegistered = errors.New("limits: no counter registered for resource")

	ErrFailedToLoadPlans          = errors.New("limits: failed to load plans")
	ErrFailedToCountResourceUsage = errors.New("limits: failed to count resource usage")
)
