// internal/workers/onboarding/review-onboarding-request/config.go
package reviewonboardingrequest

import "time"

type Config struct {
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
