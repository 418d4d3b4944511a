package reconcile

import "time"

// Config tunes the pipeline.
type Config struct {
	// InFlightTTL bounds how long one delivery holds the event lock.
	InFlightTTL time.Duration `env:"RECONCILE_IN_FLIGHT_TTL" envDefault:"30s"`
}
