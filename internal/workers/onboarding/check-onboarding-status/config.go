// internal/workers/onboarding/check-onboarding-status/config.go
package checkonboardingstatus

import "time"

type Config struct {
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
