package billing

// Config is the subscription policy.
type Config struct {
	// TrialDays is the length of the free trial.
	TrialDays int `env:"BILLING_TRIAL_DAYS" envDefault:"5"`

	// PastDueGraceDays controls access after a failed payment. Negative keeps
	// access until PaidUntil lapses, zero revokes it immediately, a positive
	// value keeps it that many days after the first failure.
	PastDueGraceDays int `env:"BILLING_PAST_DUE_GRACE_DAYS" envDefault:"-1"`

	// BonusCredits is added once per user lifetime on the first completed checkout.
	BonusCredits int `env:"BILLING_BONUS_CREDITS" envDefault:"50"`

	// RejectStaleEvents refuses provider events older than the newest one
	// applied. Off means last delivered wins.
	RejectStaleEvents bool `env:"BILLING_REJECT_STALE_EVENTS" envDefault:"false"`

	// CommitAttempts bounds compare-and-set retries on version conflicts.
	CommitAttempts int `env:"BILLING_COMMIT_ATTEMPTS" envDefault:"5"`
}

// DefaultConfig returns the policy used when none is configured.
func DefaultConfig() Config {
	return Config{
		TrialDays:        5,
		PastDueGraceDays: -1,
		BonusCredits:     50,
		CommitAttempts:   5,
	}
}
