package main

import "time"

// Backend names accepted by the *_BACKEND variables.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendMongo    = "mongo"
)

type appConfig struct {
	RecordsBackend string `env:"RECORDS_BACKEND" envDefault:"memory"`
	LedgerBackend  string `env:"LEDGER_BACKEND" envDefault:"memory"`
	UsageBackend   string `env:"USAGE_BACKEND" envDefault:"memory"`
	LockBackend    string `env:"LOCK_BACKEND" envDefault:"memory"`

	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	// WebhookRegistration is the path token under /webhooks/ the provider
	// posts to. Empty uses the provider name.
	WebhookRegistration string `env:"WEBHOOK_REGISTRATION"`

	NotifyRedisChannel string `env:"NOTIFY_REDIS_CHANNEL"`

	LedgerRetention time.Duration `env:"LEDGER_RETENTION" envDefault:"0s"`
	HealthTimeout   time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`
}
