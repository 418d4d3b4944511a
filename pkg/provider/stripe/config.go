package stripe

import "time"

// Config configures the adapter.
type Config struct {
	SecretKey     string        `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	PriceID       string        `env:"STRIPE_PRICE_ID"`
	SuccessURL    string        `env:"STRIPE_SUCCESS_URL"`
	CancelURL     string        `env:"STRIPE_CANCEL_URL"`
	Tolerance     time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
}
