package billing

import "time"

// Config configures the HTTP surface.
type Config struct {
	// UserHeader carries the authenticated user id, set by the upstream
	// auth layer.
	UserHeader string `env:"AUTH_USER_HEADER" envDefault:"X-User-ID"`
	// MaxWebhookBytes bounds webhook bodies.
	MaxWebhookBytes int64 `env:"BILLING_WEBHOOK_MAX_BYTES" envDefault:"1048576"`
	// HeartbeatInterval keeps idle event streams open through proxies.
	HeartbeatInterval time.Duration `env:"SSE_HEARTBEAT_INTERVAL" envDefault:"25s"`
}

// DefaultConfig returns the defaults of Config.
func DefaultConfig() Config {
	return Config{UserHeader: "X-User-ID", MaxWebhookBytes: 1 << 20, HeartbeatInterval: 25 * time.Second}
}
