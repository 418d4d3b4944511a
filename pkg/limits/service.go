package limits

import (
	"context"
	"errors"
	"fmt"
)

// Service checks usage against plan limits. Plans and counters are read
// only after construction.
type Service struct {
	plans    map[string]Plan
	counters CounterRegistry
}

// NewService loads the plans from src and validates them.
func NewService(ctx context.Context, src Source, counters CounterRegistry) (*Service, error) {
	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if plans == nil {
		plans = make(map[string]Plan)
	}
	if err := validatePlans(plans); err != nil {
		return nil, err
	}
	if counters == nil {
		counters = NewRegistry()
	}
	return &Service{plans: plans, counters: counters}, nil
}

// Plan returns the plan with id.
func (s *Service) Plan(id string) (Plan, error) {
	p, ok := s.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, id)
	}
	return p.clone(), nil
}

// CanCreate reports whether subjectID on planID may consume one more unit
// of res. It returns ErrLimitExceeded at the limit.
func (s *Service) CanCreate(ctx context.Context, planID, subjectID string, res Resource) error {
	info, err := s.Usage(ctx, planID, subjectID, res)
	if err != nil {
		return err
	}
	if info.Limit != Unlimited && info.Current >= info.Limit {
		return ErrLimitExceeded
	}
	return nil
}

// Usage returns the current usage of res and the plan's limit. The counter
// is not called for unlimited resources.
func (s *Service) Usage(ctx context.Context, planID, subjectID string, res Resource) (UsageInfo, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return UsageInfo{}, fmt.Errorf("%w: %q", ErrPlanNotFound, planID)
	}
	limit, ok := plan.Limit(res)
	if !ok {
		return UsageInfo{}, ErrInvalidResource
	}
	if limit == Unlimited {
		return UsageInfo{Limit: Unlimited}, nil
	}

	counter, ok := s.counters[res]
	if !ok {
		return UsageInfo{}, ErrNoCounterRegistered
	}
	current, err := counter(ctx, subjectID)
	if err != nil {
		return UsageInfo{}, errors.Join(ErrFailedToCountResourceUsage, err)
	}
	return UsageInfo{Current: current, Limit: limit}, nil
}

// Limit returns the plan's limit for res.
func (s *Service) Limit(planID string, res Resource) (int64, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrPlanNotFound, planID)
	}
	limit, ok := plan.Limit(res)
	if !ok {
		return 0, ErrInvalidResource
	}
	return limit, nil
}

// HasFeature reports whether planID enables f. Unknown plans enable nothing.
func (s *Service) HasFeature(planID string, f Feature) bool {
	plan, ok := s.plans[planID]
	return ok && plan.HasFeature(f)
}

func validatePlans(plans map[string]Plan) error {
	for id, p := range plans {
		if p.ID != id {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan keyed %q has id %q", id, p.ID))
		}
		for res, l := range p.Limits {
			if l < Unlimited {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s has invalid %s limit: %d", id, res, l))
			}
		}
	}
	return nil
}
