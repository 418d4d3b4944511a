package paddle

// Config holds configuration for the Paddle adapter.
type Config struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceID       string `env:"PADDLE_PRICE_ID"`
	// CheckoutURL is the approved page hosting Paddle.js checkout.
	CheckoutURL string `env:"PADDLE_CHECKOUT_URL"`
}
