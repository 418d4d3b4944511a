package notify

// Config sizes the connection hub.
type Config struct {
	// MaxUsers bounds the users with live connections tracked at once.
	MaxUsers int `env:"NOTIFY_MAX_USERS" envDefault:"10000"`
	// BufferSize is the per-connection queue. A connection that falls this
	// far behind is closed.
	BufferSize int `env:"NOTIFY_BUFFER_SIZE" envDefault:"8"`
}

// FromConfig converts cfg into hub options.
func FromConfig(cfg Config) []HubOption {
	return []HubOption{
		WithMaxUsers(cfg.MaxUsers),
		WithBufferSize(cfg.BufferSize),
	}
}
