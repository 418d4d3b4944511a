package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/anomaly"
	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/ledger"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/resolver"
)

func checkout(f *fixture, eventID, userID string) {
	f.provider.on(eventID, provider.Translation{
		Event:     billing.CheckoutCompleted{Reference: ref(f.clock.Now()), PeriodEnd: days(30)},
		Identity:  identity(userID),
		SessionID: "cs_1",
		Summary:   map[string]string{"status": "active", "card_last4": "4242"},
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := reconcile.New(reconcile.Deps{})
	assert.ErrorIs(t, err, reconcile.ErrMissingDependency)

	_, err = reconcile.New(reconcile.Deps{
		Registry: provider.NewRegistry(),
		Records:  billing.NewMemoryStore(),
		Ledger:   ledger.NewMemoryStore(),
	})
	assert.ErrorIs(t, err, reconcile.ErrMissingDependency)
}

func TestHandleWebhook(t *testing.T) {
	t.Parallel()

	t.Run("checkout links customer and grants bonus once across redeliveries", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)
		checkout(f, "evt_1", "u1")

		res, err := f.deliver("evt_1", "checkout.session.completed")
		require.NoError(t, err)
		assert.Equal(t, reconcile.OutcomeApplied, res.Outcome)
		assert.Equal(t, "u1", res.UserID)
		assert.True(t, res.Changed)

		for range 2 {
			res, err = f.deliver("evt_1", "checkout.session.completed")
			require.NoError(t, err)
			assert.Equal(t, reconcile.OutcomeDuplicate, res.Outcome)
		}

		rec := f.record(t, "u1")
		assert.Equal(t, billing.PlanPaid, rec.Plan)
		assert.Equal(t, billing.StatusActive, rec.Status)
		assert.Equal(t, "cus_1", rec.ExternalCustomerID)
		assert.Equal(t, 50, rec.Credits)
		assert.Len(t, f.sink.Messages(), 1)

		require.Equal(t, 1, f.ledger.Len())
		entry, ok := f.ledger.Entry("evt_1")
		require.True(t, ok)
		assert.Equal(t, ledger.OutcomeApplied, entry.Outcome)
		assert.Equal(t, "fake", entry.Provider)
		assert.Equal(t, "cs_1", entry.SessionID)
		assert.Equal(t, "u1", entry.UserID)
		assert.Equal(t, "[redacted]", entry.Summary["card_last4"])
	})

	t.Run("concurrent deliveries of one event apply it once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)
		checkout(f, "evt_1", "u1")

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			outcomes []reconcile.Outcome
		)
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := f.deliver("evt_1", "checkout.session.completed")
				if errors.Is(err, reconcile.ErrInFlight) {
					return
				}
				assert.NoError(t, err)
				mu.Lock()
				outcomes = append(outcomes, res.Outcome)
				mu.Unlock()
			}()
		}
		wg.Wait()

		applied := 0
		for _, o := range outcomes {
			if o == reconcile.OutcomeApplied {
				applied++
			}
		}
		assert.Equal(t, 1, applied)
		assert.Equal(t, 1, f.ledger.Len())
		assert.Equal(t, 50, f.record(t, "u1").Credits)
	})

	t.Run("delivery in flight is refused", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)
		checkout(f, "evt_1", "u1")
		unblock := f.provider.block("evt_1")

		done := make(chan error, 1)
		go func() {
			_, err := f.deliver("evt_1", "checkout.session.completed")
			done <- err
		}()
		<-f.provider.entered

		_, err = f.deliver("evt_1", "checkout.session.completed")
		assert.ErrorIs(t, err, reconcile.ErrInFlight)

		unblock()
		require.NoError(t, <-done)

		res, err := f.deliver("evt_1", "checkout.session.completed")
		require.NoError(t, err)
		assert.Equal(t, reconcile.OutcomeDuplicate, res.Outcome)
	})

	t.Run("unattributable event mutates nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)
		f.provider.on("evt_1", provider.Translation{
			Event:    billing.PaymentFailed{Reference: ref(day0)},
			Identity: resolver.Identity{CustomerID: "cus_unknown"},
			Summary:  map[string]string{"customer": "cus_unknown", "customer_email": "jane@example.com"},
		})

		_, err = f.deliver("evt_1", "invoice.payment_failed")
		require.ErrorIs(t, err, reconcile.ErrUnresolved)
		assert.ErrorIs(t, err, resolver.ErrUnresolved)

		assert.Equal(t, 0, f.ledger.Len())
		assert.Equal(t, billing.NewRecord("u1").State(), f.record(t, "u1").State())
		assert.Empty(t, f.sink.Messages())

		reported := f.sink.Anomalies()
		require.Len(t, reported, 1)
		assert.Equal(t, anomaly.KindUnresolvedIdentity, reported[0].Kind)
		assert.Equal(t, "evt_1", reported[0].EventID)
		assert.Equal(t, "fake", reported[0].Provider)
		assert.Equal(t, "cus_unknown", reported[0].Identity.CustomerID)
		assert.Equal(t, map[string]string{"customer": "cus_unknown", "customer_email": "[redacted]"}, reported[0].Summary)
	})

	t.Run("identity mismatch is reported", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		for _, id := range []string{"u1", "u2"} {
			_, err := f.records.Create(ctx, id)
			require.NoError(t, err)
		}
		require.NoError(t, f.records.LinkCustomer(ctx, "u1", "cus_1"))
		checkout(f, "evt_1", "u2")

		_, err := f.deliver("evt_1", "checkout.session.completed")
		require.ErrorIs(t, err, reconcile.ErrUnresolved)

		reported := f.sink.Anomalies()
		require.Len(t, reported, 1)
		assert.Equal(t, anomaly.KindIdentityMismatch, reported[0].Kind)
		assert.Equal(t, billing.PlanFree, f.record(t, "u1").Plan)
		assert.Equal(t, billing.PlanFree, f.record(t, "u2").Plan)
	})

	t.Run("event missing fields is reported as invalid", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.provider.fail("evt_1", errors.Join(provider.ErrMissingField, errors.New("period end")))

		_, err := f.deliver("evt_1", "customer.subscription.updated")
		require.ErrorIs(t, err, reconcile.ErrUnresolved)
		assert.ErrorIs(t, err, provider.ErrMissingField)

		reported := f.sink.Anomalies()
		require.Len(t, reported, 1)
		assert.Equal(t, anomaly.KindInvalidEvent, reported[0].Kind)
		assert.Equal(t, 0, f.ledger.Len())
	})

	t.Run("translation failure leaves event for retry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)
		f.provider.fail("evt_1", provider.ErrAPI)

		_, err = f.deliver("evt_1", "checkout.session.completed")
		require.ErrorIs(t, err, provider.ErrAPI)
		assert.Empty(t, f.sink.Anomalies())
		assert.Equal(t, 0, f.ledger.Len())

		f.provider.fail("evt_1", nil)
		checkout(f, "evt_1", "u1")
		res, err := f.deliver("evt_1", "checkout.session.completed")
		require.NoError(t, err)
		assert.Equal(t, reconcile.OutcomeApplied, res.Outcome)
	})

	t.Run("ignored event is acknowledged and recorded", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res, err := f.deliver("evt_1", "customer.created")
		require.NoError(t, err)
		assert.Equal(t, reconcile.OutcomeIgnored, res.Outcome)

		entry, ok := f.ledger.Entry("evt_1")
		require.True(t, ok)
		assert.Equal(t, ledger.OutcomeIgnored, entry.Outcome)
		assert.Empty(t, entry.UserID)
	})

	t.Run("policy violation is acknowledged as rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)
		f.provider.on("evt_1", provider.Translation{
			Event:    billing.PaymentFailed{Reference: ref(day0)},
			Identity: identity("u1"),
		})

		res, err := f.deliver("evt_1", "invoice.payment_failed")
		require.NoError(t, err)
		assert.Equal(t, reconcile.OutcomeRejected, res.Outcome)

		entry, ok := f.ledger.Entry("evt_1")
		require.True(t, ok)
		assert.Equal(t, ledger.OutcomeRejected, entry.Outcome)
		assert.Equal(t, billing.PlanFree, f.record(t, "u1").Plan)
		assert.Empty(t, f.sink.Messages())
	})

	t.Run("renewal resets today's usage", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.records.Create(ctx, "u1")
		require.NoError(t, err)
		today := f.tracker.Today(day0)
		for range 2 {
			_, err := f.counter.Increment(ctx, "u1", today)
			require.NoError(t, err)
		}

		checkout(f, "evt_1", "u1")
		_, err = f.deliver("evt_1", "checkout.session.completed")
		require.NoError(t, err)
		used, err := f.counter.Get(ctx, "u1", today)
		require.NoError(t, err)
		assert.Equal(t, 2, used)

		f.provider.on("evt_2", provider.Translation{
			Event:    billing.PaymentSucceeded{Reference: ref(day0), PeriodEnd: days(60)},
			Identity: identity("u1"),
		})
		_, err = f.deliver("evt_2", "invoice.paid")
		require.NoError(t, err)
		used, err = f.counter.Get(ctx, "u1", today)
		require.NoError(t, err)
		assert.Zero(t, used)
		assert.Equal(t, days(60), *f.record(t, "u1").PaidUntil)

		_, err = f.counter.Increment(ctx, "u1", today)
		require.NoError(t, err)
		f.provider.on("evt_3", provider.Translation{
			Event:    billing.PaymentSucceeded{Reference: ref(day0), PeriodEnd: days(60)},
			Identity: identity("u1"),
		})
		_, err = f.deliver("evt_3", "invoice.paid")
		require.NoError(t, err)
		used, err = f.counter.Get(ctx, "u1", today)
		require.NoError(t, err)
		assert.Equal(t, 1, used, "a repeated period end is not a renewal")
	})

	t.Run("out of order period ends keep the last applied", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)

		f.provider.on("evt_updated", provider.Translation{
			Event:    billing.SubscriptionActivated{Reference: ref(days(1)), PeriodEnd: days(60)},
			Identity: identity("u1"),
		})
		f.provider.on("evt_checkout", provider.Translation{
			Event:    billing.CheckoutCompleted{Reference: ref(day0), PeriodEnd: days(30)},
			Identity: identity("u1"),
		})
		_, err = f.deliver("evt_updated", "customer.subscription.updated")
		require.NoError(t, err)
		_, err = f.deliver("evt_checkout", "checkout.session.completed")
		require.NoError(t, err)

		rec := f.record(t, "u1")
		assert.Equal(t, days(30), *rec.PaidUntil)
		assert.Equal(t, 50, rec.Credits)
	})

	t.Run("bad signature and unknown registration", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.engine.HandleWebhook(context.Background(), "fake", []byte(`{"id":"evt_1"}`), "forged")
		assert.ErrorIs(t, err, provider.ErrSignature)

		_, err = f.engine.HandleWebhook(context.Background(), "nope", []byte(`{"id":"evt_1"}`), validSignature)
		assert.ErrorIs(t, err, provider.ErrUnknownRegistration)
		assert.Equal(t, 0, f.ledger.Len())
	})

	t.Run("ledger failure leaves event for retry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.records.Create(context.Background(), "u1")
		require.NoError(t, err)
		checkout(f, "evt_1", "u1")

		flaky := &flakyLedger{Store: f.ledger, failures: 1}
		registry := provider.NewRegistry()
		require.NoError(t, registry.Register("fake", f.provider))
		eng, err := reconcile.New(reconcile.Deps{
			Registry: registry,
			Records:  f.records,
			Ledger:   flaky,
			Machine:  billing.NewMachine(billing.DefaultConfig()),
		}, reconcile.WithClock(f.clock.Now))
		require.NoError(t, err)

		payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
		_, err = eng.HandleWebhook(context.Background(), "fake", payload, validSignature)
		require.Error(t, err)
		assert.Equal(t, 0, f.ledger.Len())

		res, err := eng.HandleWebhook(context.Background(), "fake", payload, validSignature)
		require.NoError(t, err)
		assert.Equal(t, reconcile.OutcomeApplied, res.Outcome)
		assert.False(t, res.Changed)
		assert.Equal(t, 50, f.record(t, "u1").Credits)
		assert.Equal(t, 1, f.ledger.Len())
	})
}

type flakyLedger struct {
	ledger.Store
	mu       sync.Mutex
	failures int
}

func (l *flakyLedger) MarkProcessed(ctx context.Context, e ledger.Entry) error {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return ledger.ErrStore
	}
	l.mu.Unlock()
	return l.Store.MarkProcessed(ctx, e)
}
