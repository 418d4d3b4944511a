package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/anomaly"
	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/ledger"
	"github.com/dmitrymomot/subsync/pkg/notify"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/resolver"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

var day0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func days(n int) time.Time { return day0.AddDate(0, 0, n) }

const validSignature = "valid"

// fakeProvider verifies deliveries signed with validSignature and translates
// them from a table keyed by event id.
type fakeProvider struct {
	mu           sync.Mutex
	translations map[string]provider.Translation
	failures     map[string]error
	hold         map[string]chan struct{}
	entered      chan string

	canceled  []string
	cancelErr error
	checkouts []provider.CheckoutRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		translations: make(map[string]provider.Translation),
		failures:     make(map[string]error),
		hold:         make(map[string]chan struct{}),
		entered:      make(chan string, 16),
	}
}

func (f *fakeProvider) Name() string            { return "fake" }
func (f *fakeProvider) SignatureHeader() string { return "Fake-Signature" }

func (f *fakeProvider) Verify(payload []byte, sig string) (provider.Envelope, error) {
	if sig != validSignature {
		return provider.Envelope{}, provider.ErrSignature
	}
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return provider.Envelope{}, errors.Join(provider.ErrMalformed, err)
	}
	return provider.Envelope{ID: raw.ID, Type: raw.Type, Data: payload}, nil
}

func (f *fakeProvider) Translate(_ context.Context, env provider.Envelope) (provider.Translation, error) {
	f.mu.Lock()
	hold := f.hold[env.ID]
	tr, err := f.translations[env.ID], f.failures[env.ID]
	f.mu.Unlock()

	if hold != nil {
		f.entered <- env.ID
		<-hold
	}
	return tr, err
}

func (f *fakeProvider) CreateCheckout(_ context.Context, req provider.CheckoutRequest) (provider.CheckoutLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts = append(f.checkouts, req)
	return provider.CheckoutLink{URL: "https://pay.example.com/cs_1", SessionID: "cs_1"}, nil
}

func (f *fakeProvider) CancelAtPeriodEnd(_ context.Context, subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.canceled = append(f.canceled, subscriptionID)
	return nil
}

func (f *fakeProvider) on(eventID string, tr provider.Translation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.translations[eventID] = tr
}

func (f *fakeProvider) fail(eventID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[eventID] = err
}

// block makes Translate of eventID wait until the returned func is called.
func (f *fakeProvider) block(eventID string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.hold[eventID] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu        sync.Mutex
	messages  []notify.Message
	anomalies []anomaly.Anomaly
}

func (r *recorder) Notify(_ context.Context, _ string, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recorder) Report(_ context.Context, a anomaly.Anomaly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anomalies = append(r.anomalies, a)
	return nil
}

func (r *recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.messages...)
}

func (r *recorder) Anomalies() []anomaly.Anomaly {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]anomaly.Anomaly(nil), r.anomalies...)
}

type fixture struct {
	engine   *reconcile.Engine
	provider *fakeProvider
	records  *billing.MemoryStore
	ledger   *ledger.MemoryStore
	counter  *usage.MemoryCounter
	tracker  *usage.Tracker
	clock    *clock
	sink     *recorder
}

func newFixture(t *testing.T, opts ...reconcile.Option) *fixture {
	t.Helper()

	f := &fixture{
		provider: newFakeProvider(),
		records:  billing.NewMemoryStore(),
		ledger:   ledger.NewMemoryStore(),
		counter:  usage.NewMemoryCounter(),
		clock:    &clock{now: day0},
		sink:     &recorder{},
	}

	tracker, err := usage.NewTracker(context.Background(), f.counter, usage.Config{DailyImageLimit: 3, TimeZone: "UTC"})
	require.NoError(t, err)
	f.tracker = tracker

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register("fake", f.provider))

	base := []reconcile.Option{
		reconcile.WithClock(f.clock.Now),
		reconcile.WithNotifier(f.sink),
		reconcile.WithAnomalyReporter(f.sink),
		reconcile.WithBillingProvider(f.provider),
		reconcile.WithUsage(tracker),
	}
	f.engine, err = reconcile.New(reconcile.Deps{
		Registry: registry,
		Records:  f.records,
		Ledger:   f.ledger,
		Machine:  billing.NewMachine(billing.DefaultConfig()),
	}, append(base, opts...)...)
	require.NoError(t, err)
	return f
}

func (f *fixture) deliver(eventID, eventType string) (reconcile.Result, error) {
	payload, _ := json.Marshal(map[string]string{"id": eventID, "type": eventType})
	return f.engine.HandleWebhook(context.Background(), "fake", payload, validSignature)
}

func (f *fixture) record(t *testing.T, userID string) billing.Record {
	t.Helper()
	rec, err := f.records.Get(context.Background(), userID)
	require.NoError(t, err)
	return rec
}

func ref(at time.Time) billing.Reference {
	return billing.Reference{CustomerID: "cus_1", SubscriptionID: "sub_1", OccurredAt: at}
}

func identity(userID string) resolver.Identity {
	return resolver.Identity{CustomerID: "cus_1", MetadataUserID: userID}
}
