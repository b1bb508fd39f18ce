package notifyfranchiseecreated

import (
	"fmt"
	"time"

	httpclient "franchise-onboarding/internal/common/http"
)

type Config struct {
	WebhookURL string
	Timeout    time.Duration
	Retry      httpclient.RetryPolicy

	// EventsEnabled additionally publishes franchisee.created to TopicARN.
	EventsEnabled bool
	TopicARN      string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Retry:   httpclient.DefaultRetryPolicy(),
	}
}

func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EventsEnabled && c.TopicARN == "" {
		return fmt.Errorf("topic arn is required when events are enabled")
	}
	return nil
}
