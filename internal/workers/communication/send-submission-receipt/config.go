package sendsubmissionreceipt

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool
	FromEmail     string
	EstimatedTime string
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		FromEmail:     "noreply@example.com",
		EstimatedTime: "2 dias úteis",
		Timeout:       10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Enabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when receipts are enabled")
	}
	return nil
}
