package paddle_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"

	paddlesdk "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/provider/paddle"
)

const secret = "pdl_ntfset_test"

type mockAPI struct{ mock.Mock }

func (m *mockAPI) CreateTransaction(ctx context.Context, req *paddlesdk.CreateTransactionRequest) (*paddlesdk.Transaction, error) {
	args := m.Called(ctx, req)
	tx, _ := args.Get(0).(*paddlesdk.Transaction)
	return tx, args.Error(1)
}

func (m *mockAPI) CancelSubscription(ctx context.Context, req *paddlesdk.CancelSubscriptionRequest) (*paddlesdk.Subscription, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*paddlesdk.Subscription)
	return s, args.Error(1)
}

var (
	occurred  = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	periodEnd = occurred.AddDate(0, 1, 0)
)

func sign(payload []byte) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":"))
	mac.Write(payload)
	return "ts=" + ts + ";h1=" + hex.EncodeToString(mac.Sum(nil))
}

func notification(id, typ, data string) []byte {
	return fmt.Appendf(nil, `{"event_id":%q,"event_type":%q,"occurred_at":%q,"notification_id":"ntf_1","data":%s}`,
		id, typ, occurred.Format(time.RFC3339Nano), data)
}

func subscriptionData(status, scheduled string) string {
	change := "null"
	if scheduled != "" {
		change = fmt.Sprintf(`{"action":%q,"effective_at":%q}`, scheduled, periodEnd.Format(time.RFC3339))
	}
	return fmt.Sprintf(`{"id":"sub_1","status":%q,"customer_id":"ctm_1","transaction_id":"txn_1",
		"custom_data":{"user_id":"u1"},"current_billing_period":{"starts_at":%q,"ends_at":%q},"scheduled_change":%s}`,
		status, occurred.Format(time.RFC3339), periodEnd.Format(time.RFC3339), change)
}

func newAdapter(t *testing.T, api paddle.API) *paddle.Adapter {
	t.Helper()
	a, err := paddle.New(paddle.Config{WebhookSecret: secret, PriceID: "pri_1"}, api)
	require.NoError(t, err)
	return a
}

func translate(t *testing.T, payload []byte) (provider.Translation, error) {
	t.Helper()
	a := newAdapter(t, &mockAPI{})
	env, err := a.Verify(payload, sign(payload))
	require.NoError(t, err)
	return a.Translate(context.Background(), env)
}

func TestVerify(t *testing.T) {
	t.Parallel()
	a := newAdapter(t, &mockAPI{})
	payload := notification("evt_1", "subscription.canceled", subscriptionData("canceled", ""))

	env, err := a.Verify(payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", env.ID)
	assert.Equal(t, "subscription.canceled", env.Type)
	assert.Equal(t, occurred, env.Created)

	_, err = a.Verify(payload, sign([]byte("other")))
	assert.ErrorIs(t, err, provider.ErrSignature)

	_, err = a.Verify(payload, "")
	assert.ErrorIs(t, err, provider.ErrSignature)

	broken := []byte(`{"event_id":"evt_2"}`)
	_, err = a.Verify(broken, sign(broken))
	assert.ErrorIs(t, err, provider.ErrMalformed)
}

func TestTranslate(t *testing.T) {
	t.Parallel()
	ref := billing.Reference{CustomerID: "ctm_1", SubscriptionID: "sub_1", OccurredAt: occurred}
	transaction := func(sub string) string {
		return fmt.Sprintf(`{"id":"txn_2","status":"completed","customer_id":"ctm_1","subscription_id":%q,
			"custom_data":{"user_id":"u1"},"billing_period":{"starts_at":%q,"ends_at":%q}}`,
			sub, occurred.Format(time.RFC3339), periodEnd.Format(time.RFC3339))
	}

	tests := []struct {
		name string
		typ  string
		data string
		want billing.Event
	}{
		{"created active", "subscription.created", subscriptionData("active", ""),
			billing.CheckoutCompleted{Reference: ref, PeriodEnd: periodEnd}},
		{"created trialing", "subscription.created", subscriptionData("trialing", ""),
			billing.CheckoutCompleted{Reference: ref, PeriodEnd: periodEnd}},
		{"updated active", "subscription.updated", subscriptionData("active", ""),
			billing.SubscriptionActivated{Reference: ref, PeriodEnd: periodEnd}},
		{"scheduled cancel", "subscription.updated", subscriptionData("active", "cancel"),
			billing.SubscriptionActivated{Reference: ref, PeriodEnd: periodEnd, CancelAtPeriodEnd: true}},
		{"scheduled pause", "subscription.updated", subscriptionData("active", "pause"),
			billing.SubscriptionActivated{Reference: ref, PeriodEnd: periodEnd}},
		{"updated past due", "subscription.updated", subscriptionData("past_due", ""),
			billing.PaymentFailed{Reference: ref}},
		{"paused", "subscription.updated", subscriptionData("paused", ""), nil},
		{"canceled", "subscription.canceled", subscriptionData("canceled", ""),
			billing.SubscriptionDeleted{Reference: ref}},
		{"past due", "subscription.past_due", subscriptionData("past_due", ""),
			billing.PaymentFailed{Reference: ref}},
		{"renewal paid", "transaction.completed", transaction("sub_1"),
			billing.PaymentSucceeded{Reference: ref, PeriodEnd: periodEnd}},
		{"renewal failed", "transaction.payment_failed", transaction("sub_1"),
			billing.PaymentFailed{Reference: ref}},
		{"one-off transaction", "transaction.completed", transaction(""), nil},
		{"unhandled", "customer.updated", `{"id":"ctm_1"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr, err := translate(t, notification("evt_"+tt.name, tt.typ, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Event)
			if tt.want != nil {
				assert.Equal(t, "u1", tr.Identity.MetadataUserID)
				assert.Equal(t, "ctm_1", tr.Identity.CustomerID)
			}
		})
	}

	t.Run("active without billing period", func(t *testing.T) {
		t.Parallel()
		_, err := translate(t, notification("evt_x", "subscription.activated", `{"id":"sub_1","status":"active","customer_id":"ctm_1"}`))
		assert.ErrorIs(t, err, provider.ErrMissingField)
	})

	t.Run("subscription without id", func(t *testing.T) {
		t.Parallel()
		_, err := translate(t, notification("evt_y", "subscription.canceled", `{"status":"canceled"}`))
		assert.ErrorIs(t, err, provider.ErrMissingField)
	})

	t.Run("malformed data", func(t *testing.T) {
		t.Parallel()
		_, err := translate(t, notification("evt_z", "subscription.created", `{"id":42}`))
		assert.ErrorIs(t, err, provider.ErrMalformed)
	})
}

func TestCreateCheckout(t *testing.T) {
	t.Parallel()
	api := &mockAPI{}
	api.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(req *paddlesdk.CreateTransactionRequest) bool {
		return req.CustomData["user_id"] == "u1" && len(req.Items) == 1 && *req.Checkout.URL == "https://app.test/pay"
	})).Return(&paddlesdk.Transaction{ID: "txn_9", Checkout: &paddlesdk.TransactionCheckout{URL: paddlesdk.PtrTo("https://app.test/pay?_ptxn=txn_9")}}, nil)

	link, err := newAdapter(t, api).CreateCheckout(context.Background(), provider.CheckoutRequest{UserID: "u1", SuccessURL: "https://app.test/pay"})
	require.NoError(t, err)
	assert.Equal(t, "txn_9", link.SessionID)
	assert.Equal(t, "https://app.test/pay?_ptxn=txn_9", link.URL)
	api.AssertExpectations(t)

	empty := &mockAPI{}
	empty.On("CreateTransaction", mock.Anything, mock.Anything).Return(&paddlesdk.Transaction{ID: "txn_10"}, nil)
	_, err = newAdapter(t, empty).CreateCheckout(context.Background(), provider.CheckoutRequest{UserID: "u1"})
	assert.ErrorIs(t, err, paddle.ErrNoCheckoutURL)
}

func TestCancelAtPeriodEnd(t *testing.T) {
	t.Parallel()
	api := &mockAPI{}
	api.On("CancelSubscription", mock.Anything, mock.MatchedBy(func(req *paddlesdk.CancelSubscriptionRequest) bool {
		return req.SubscriptionID == "sub_1" && *req.EffectiveFrom == paddlesdk.EffectiveFromNextBillingPeriod
	})).Return(&paddlesdk.Subscription{ID: "sub_1"}, nil)

	require.NoError(t, newAdapter(t, api).CancelAtPeriodEnd(context.Background(), "sub_1"))
	api.AssertExpectations(t)
}

func TestNewRequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := paddle.New(paddle.Config{}, &mockAPI{})
	assert.ErrorIs(t, err, paddle.ErrMissingWebhookSecret)
}
