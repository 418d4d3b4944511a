package billing

import "time"

// Access is the derived view of a record at a point in time.
type Access struct {
	Plan        Plan
	Status      Status
	IsActive    bool
	IsPremium   bool
	TrialEndsAt *time.Time
	PaidUntil   *time.Time
}

// IsActive reports whether r grants access at now.
//
// Active and trialing records are active while PaidUntil is unset or in the
// future (trialing additionally while TrialEndsAt is in the future). A
// canceled record keeps access until the end of the period it paid or
// trialed for. Past-due access follows PastDueGraceDays.
func (c Config) IsActive(r Record, now time.Time) bool {
	paid := r.PaidUntil == nil || r.PaidUntil.After(now)

	switch r.Status {
	case StatusActive:
		return paid
	case StatusTrialing:
		return paid && trialRunning(r, now)
	case StatusPastDue:
		if !c.withinGrace(r, now) {
			return false
		}
		if r.Plan == PlanTrial {
			return trialRunning(r, now)
		}
		return paid
	case StatusCanceled:
		end := r.PaidUntil
		if r.Plan == PlanTrial {
			end = r.TrialEndsAt
		}
		return end != nil && end.After(now)
	default:
		return false
	}
}

// IsPremium reports whether r is on a paid or trial plan with access at now.
func (c Config) IsPremium(r Record, now time.Time) bool {
	return (r.Plan == PlanPaid || r.Plan == PlanTrial) && c.IsActive(r, now)
}

// Access evaluates r at now.
func (c Config) Access(r Record, now time.Time) Access {
	return Access{
		Plan:        r.Plan,
		Status:      r.Status,
		IsActive:    c.IsActive(r, now),
		IsPremium:   c.IsPremium(r, now),
		TrialEndsAt: r.TrialEndsAt,
		PaidUntil:   r.PaidUntil,
	}
}

func (c Config) withinGrace(r Record, now time.Time) bool {
	switch {
	case c.PastDueGraceDays < 0:
		return true
	case c.PastDueGraceDays == 0:
		return false
	case r.PastDueSince == nil:
		return true
	default:
		return now.Before(r.PastDueSince.AddDate(0, 0, c.PastDueGraceDays))
	}
}

func trialRunning(r Record, now time.Time) bool {
	return r.TrialEndsAt == nil || r.TrialEndsAt.After(now)
}
