package config

import (
	"time"
)

// RetryConfig holds the client-side retry settings used by pkg/interviewclient.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first call.
	MaxRetries int
	// Step is multiplied by the attempt number to get the delay before a retry.
	Step time.Duration
}

// GetRetryConfig returns the client retry configuration. Values outside the
// supported range are clamped so a misconfigured client never retries
// unboundedly.
func (c Config) GetRetryConfig() RetryConfig {
	rc := RetryConfig{MaxRetries: c.ClientRetryMaxRetries, Step: c.ClientRetryStep}
	if rc.MaxRetries < 0 {
		rc.MaxRetries = 0
	}
	if rc.MaxRetries > 2 {
		rc.MaxRetries = 2
	}
	if rc.Step <= 0 {
		rc.Step = time.Second
	}
	if c.IsTest() {
		rc.Step = 10 * time.Millisecond
	}
	return rc
}
