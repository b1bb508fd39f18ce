package searchlegacyunits

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout      time.Duration
	Index        string
	DefaultLimit int
	MaxLimit     int
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		Index:        "legacy_units",
		DefaultLimit: 10,
		MaxLimit:     50,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("limits must satisfy 0 < default_limit <= max_limit")
	}
	return nil
}
