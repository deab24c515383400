package bridge

import "time"

// Config tunes the orchestrator's polling and retry behavior. The
// zero value is unusable; start from DefaultConfig.
type Config struct {
	// PollInterval is the cadence of confirmation status checks.
	PollInterval time.Duration

	// MaxPollAttempts bounds confirmation polling per leg. At the
	// default cadence 120 attempts cover a ten minute window.
	MaxPollAttempts int

	// MaxSubmitRetries bounds re-submission after transient chain
	// failures. Permanent rejections are never retried.
	MaxSubmitRetries uint64

	// RetryBaseDelay seeds the exponential backoff between retries.
	RetryBaseDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		PollInterval:     5 * time.Second,
		MaxPollAttempts:  120,
		MaxSubmitRetries: 4,
		RetryBaseDelay:   500 * time.Millisecond,
	}
}
