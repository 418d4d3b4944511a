package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/subsync/pkg/statemachine"
)

// Outcome describes the effect of applying one event.
type Outcome struct {
	Before Record
	After  Record
	// Changed is false when the event was a no-op for the record.
	Changed bool
	// BonusGranted is true when this application granted the one-time bonus.
	BonusGranted bool
	// NewPeriod signals that a new billing period has begun.
	NewPeriod bool
}

type input struct {
	rec   Record
	event Event
	now   time.Time
	cfg   Config
}

type guard = statemachine.Guard[State, Kind, input]

// Machine applies domain events to records under a Config.
// It is stateless and safe for concurrent use.
type Machine struct {
	cfg   Config
	table *statemachine.Table[State, Kind, input]
}

// NewMachine builds the transition table for cfg.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg, table: buildTable()}
}

// Config returns the policy the machine applies.
func (m *Machine) Config() Config { return m.cfg }

func buildTable() *statemachine.Table[State, Kind, input] {
	trialEligible := guard{Name: "trial_eligible", Allow: func(_ State, _ Kind, in input) bool {
		r := in.rec
		return r.TrialStartedAt == nil && r.ExternalSubscriptionID == "" && r.PaidUntil == nil && !r.BonusGranted
	}}
	accessActive := guard{Name: "access_active", Allow: func(_ State, _ Kind, in input) bool {
		return in.cfg.IsActive(in.rec, in.now)
	}}
	accessLapsed := guard{Name: "access_lapsed", Allow: func(_ State, _ Kind, in input) bool {
		return !in.cfg.IsActive(in.rec, in.now)
	}}
	cancelAtPeriodEnd := guard{Name: "cancel_at_period_end", Allow: func(_ State, _ Kind, in input) bool {
		e, ok := in.event.(SubscriptionActivated)
		return ok && e.CancelAtPeriodEnd
	}}

	var (
		all             = allStates()
		paidActive      = State{PlanPaid, StatusActive}
		paidCanceled    = State{PlanPaid, StatusCanceled}
		paidPastDue     = State{PlanPaid, StatusPastDue}
		trialTrialing   = State{PlanTrial, StatusTrialing}
		trialCanceled   = State{PlanTrial, StatusCanceled}
		trialPastDue    = State{PlanTrial, StatusPastDue}
		freeNone        = State{PlanFree, StatusNone}
		paidCancelable  = []State{paidActive, {PlanPaid, StatusTrialing}, paidPastDue}
		trialCancelable = []State{trialTrialing, trialPastDue}
		lapsable        = []State{paidCanceled, paidPastDue, trialTrialing, trialCanceled, trialPastDue}
	)

	return statemachine.New[State, Kind, input]().
		Permit(KindStartTrial, trialTrialing, statesOf(PlanFree), trialEligible).
		Permit(KindCancel, paidCanceled, paidCancelable, accessActive).
		Permit(KindCancel, trialCanceled, trialCancelable, accessActive).
		Permit(KindLapse, freeNone, lapsable, accessLapsed).
		Permit(KindCheckoutCompleted, paidActive, all).
		Permit(KindSubscriptionActivated, paidCanceled, all, cancelAtPeriodEnd).
		Permit(KindSubscriptionActivated, paidActive, all).
		Permit(KindPaymentSucceeded, paidCanceled, []State{paidCanceled}).
		Permit(KindPaymentSucceeded, paidActive, all).
		Permit(KindSubscriptionDeleted, freeNone, all).
		Permit(KindPaymentFailed, paidPastDue, statesOf(PlanPaid)).
		Permit(KindPaymentFailed, trialPastDue, statesOf(PlanTrial))
}

var rejectionReasons = map[Kind]error{
	KindStartTrial:    ErrTrialNotAllowed,
	KindCancel:        ErrNotCancelable,
	KindLapse:         ErrAccessNotLapsed,
	KindPaymentFailed: ErrNoSubscription,
}

// Apply computes the record that results from ev at now. It performs no I/O.
func (m *Machine) Apply(rec Record, ev Event, now time.Time) (Outcome, error) {
	out := Outcome{Before: rec, After: rec}
	if ev == nil {
		return out, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	if err := validate(ev); err != nil {
		return out, err
	}

	from := rec.State()
	if pe, ok := ev.(ProviderEvent); ok && m.stale(rec, pe) {
		return out, &PolicyError{Event: ev.Kind(), State: from, Reason: ErrStaleEvent}
	}

	to, err := m.table.Next(from, ev.Kind(), input{rec: rec, event: ev, now: now, cfg: m.cfg})
	if err != nil {
		reason, ok := rejectionReasons[ev.Kind()]
		if !ok {
			reason = ErrTransitionNotAllowed
		}
		return out, &PolicyError{Event: ev.Kind(), State: from, Reason: errors.Join(reason, err)}
	}

	next := rec
	next.Plan, next.Status = to.Plan, to.Status

	switch e := ev.(type) {
	case StartTrial:
		next.TrialStartedAt = timePtr(now)
		next.TrialEndsAt = timePtr(now.AddDate(0, 0, m.cfg.TrialDays))
	case Cancel:
	case Lapse:
		next.PaidUntil = nil
		next.PastDueSince = nil
	case CheckoutCompleted:
		applyReference(&next, e.Reference)
		next.PaidUntil = timePtr(e.PeriodEnd)
		next.PastDueSince = nil
		if !next.BonusGranted {
			next.BonusGranted = true
			next.Credits += m.cfg.BonusCredits
			out.BonusGranted = true
		}
	case SubscriptionActivated:
		applyReference(&next, e.Reference)
		next.PaidUntil = timePtr(e.PeriodEnd)
		next.PastDueSince = nil
	case PaymentSucceeded:
		applyReference(&next, e.Reference)
		next.PaidUntil = timePtr(e.PeriodEnd)
		next.PastDueSince = nil
		out.NewPeriod = !sameTime(rec.PaidUntil, next.PaidUntil)
	case SubscriptionDeleted:
		applyReference(&next, e.Reference)
		next.PaidUntil = nil
		next.PastDueSince = nil
	case PaymentFailed:
		applyReference(&next, e.Reference)
		if next.PastDueSince == nil {
			next.PastDueSince = timePtr(now)
		}
	}

	out.Changed = !next.equivalent(rec)
	if out.Changed {
		next.UpdatedAt = now
	}
	out.After = next
	return out, nil
}

// Commit applies ev to the stored record of userID and persists the result
// with compare-and-set, re-reading and re-applying on version conflicts.
// A no-op application writes nothing.
func (m *Machine) Commit(ctx context.Context, store Store, userID string, ev Event, now time.Time) (Outcome, error) {
	for range max(m.cfg.CommitAttempts, 1) {
		cur, err := store.Get(ctx, userID)
		if err != nil {
			return Outcome{}, err
		}

		out, err := m.Apply(cur, ev, now)
		if err != nil || !out.Changed {
			return out, err
		}

		saved, err := store.Swap(ctx, cur, out.After)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return Outcome{}, err
		}
		out.After = saved
		return out, nil
	}
	return Outcome{}, ErrCommitExhausted
}

// IsActive reports whether r grants access at now under the machine's policy.
func (m *Machine) IsActive(r Record, now time.Time) bool { return m.cfg.IsActive(r, now) }

// IsPremium reports whether r is premium at now under the machine's policy.
func (m *Machine) IsPremium(r Record, now time.Time) bool { return m.cfg.IsPremium(r, now) }

func (m *Machine) stale(rec Record, ev ProviderEvent) bool {
	at := ev.Ref().OccurredAt
	return m.cfg.RejectStaleEvents && rec.LastEventAt != nil && !at.IsZero() && at.Before(*rec.LastEventAt)
}

func validate(ev Event) error {
	var periodEnd time.Time
	switch e := ev.(type) {
	case CheckoutCompleted:
		periodEnd = e.PeriodEnd
	case SubscriptionActivated:
		periodEnd = e.PeriodEnd
	case PaymentSucceeded:
		periodEnd = e.PeriodEnd
	default:
		return nil
	}
	if periodEnd.IsZero() {
		return fmt.Errorf("%w: %s without period end", ErrInvalidEvent, ev.Kind())
	}
	return nil
}

func applyReference(r *Record, ref Reference) {
	if ref.SubscriptionID != "" {
		r.ExternalSubscriptionID = ref.SubscriptionID
	}
	if ref.CustomerID != "" && r.ExternalCustomerID == "" {
		r.ExternalCustomerID = ref.CustomerID
	}
	if !ref.OccurredAt.IsZero() && (r.LastEventAt == nil || ref.OccurredAt.After(*r.LastEventAt)) {
		r.LastEventAt = timePtr(ref.OccurredAt)
	}
}

func allStates() []State {
	out := make([]State, 0, len(plans)*len(statuses))
	for _, p := range plans {
		out = append(out, statesOf(p)...)
	}
	return out
}

func statesOf(p Plan) []State {
	out := make([]State, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, State{Plan: p, Status: s})
	}
	return out
}
