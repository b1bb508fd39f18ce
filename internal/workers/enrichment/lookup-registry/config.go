package lookupregistry

import (
	"fmt"
	"time"

	httpclient "franchise-onboarding/internal/common/http"
)

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
	Retry    httpclient.RetryPolicy

	CPF         PersonRegistryConfig
	CNPJBaseURL string
	CEPBaseURL  string
}

// PersonRegistryConfig configures the tax id registry. Without an API key
// the stub person is returned instead of calling upstream.
type PersonRegistryConfig struct {
	BaseURL       string
	APIKey        string
	StubName      string
	StubBirthDate string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		CacheTTL: 24 * time.Hour,
		Retry:    httpclient.DefaultRetryPolicy(),
		CPF: PersonRegistryConfig{
			BaseURL:       "https://api.hubdev.com.br",
			StubName:      "João Silva Santos",
			StubBirthDate: "1985-03-15",
		},
		CNPJBaseURL: "https://brasilapi.com.br",
		CEPBaseURL:  "https://viacep.com.br",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.CPF.BaseURL == "" || c.CNPJBaseURL == "" || c.CEPBaseURL == "" {
		return fmt.Errorf("registry base urls are required")
	}
	return nil
}
