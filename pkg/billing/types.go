package billing

import "time"

// Plan is the internal tier designation.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanTrial Plan = "trial"
	PlanPaid  Plan = "paid"
)

// Status is the lifecycle state layered on top of Plan.
type Status string

const (
	StatusNone     Status = "none"
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

var (
	plans    = []Plan{PlanFree, PlanTrial, PlanPaid}
	statuses = []Status{StatusNone, StatusTrialing, StatusActive, StatusPastDue, StatusCanceled}
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	for _, v := range plans {
		if v == p {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// State is the (plan, status) pair treated as one logical state.
type State struct {
	Plan   Plan
	Status Status
}

func (s State) String() string {
	return string(s.Plan) + "/" + string(s.Status)
}

// Record is a user's subscription record. It is never deleted, only
// transitioned.
type Record struct {
	UserID string
	Plan   Plan
	Status Status

	TrialStartedAt *time.Time
	TrialEndsAt    *time.Time
	PaidUntil      *time.Time
	PastDueSince   *time.Time

	ExternalCustomerID     string
	ExternalSubscriptionID string

	// BonusGranted flips false to true once and never reverts. Credits
	// receives the bonus in the same write.
	BonusGranted bool
	Credits      int

	// LastEventAt is the creation time of the newest provider event applied.
	LastEventAt *time.Time

	Version   int64
	UpdatedAt time.Time
}

// NewRecord returns the initial free record for userID.
func NewRecord(userID string) Record {
	return Record{UserID: userID, Plan: PlanFree, Status: StatusNone}
}

// State returns the record's (plan, status) pair.
func (r Record) State() State {
	return State{Plan: r.Plan, Status: r.Status}
}

// equivalent compares the business fields, ignoring Version and UpdatedAt.
func (r Record) equivalent(o Record) bool {
	return r.UserID == o.UserID &&
		r.Plan == o.Plan &&
		r.Status == o.Status &&
		sameTime(r.TrialStartedAt, o.TrialStartedAt) &&
		sameTime(r.TrialEndsAt, o.TrialEndsAt) &&
		sameTime(r.PaidUntil, o.PaidUntil) &&
		sameTime(r.PastDueSince, o.PastDueSince) &&
		r.ExternalCustomerID == o.ExternalCustomerID &&
		r.ExternalSubscriptionID == o.ExternalSubscriptionID &&
		r.BonusGranted == o.BonusGranted &&
		r.Credits == o.Credits &&
		sameTime(r.LastEventAt, o.LastEventAt)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
