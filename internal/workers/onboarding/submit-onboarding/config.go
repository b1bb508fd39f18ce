// internal/workers/onboarding/submit-onboarding/config.go
package submitonboarding

import (
	"fmt"
	"time"

	"franchise-onboarding/internal/onboarding/tracking"
)

type Config struct {
	Timeout              time.Duration
	TrackingPrefix       string
	TrackingMaxAttempts  int
	LinkRequiresApproval bool
	EstimatedReviewTime  string
	// ReviewProcessID is the BPMN process started for each stored request.
	// Empty disables it.
	ReviewProcessID string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:             30 * time.Second,
		TrackingPrefix:      tracking.DefaultPrefix,
		TrackingMaxAttempts: 5,
		EstimatedReviewTime: "2 dias úteis",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.TrackingMaxAttempts < 1 {
		return fmt.Errorf("tracking_max_attempts must be at least 1")
	}
	return nil
}
