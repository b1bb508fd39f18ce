// internal/common/config/config.go
package config

import "fmt"

// Config is the root configuration of the onboarding manager.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Onboarding    OnboardingConfig        `mapstructure:"onboarding"`
	Enrichment    EnrichmentConfig        `mapstructure:"enrichment"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	AWS           AWSConfig               `mapstructure:"aws"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	BrokerAddress   string `mapstructure:"broker_address"`
	MaxJobsActive   int    `mapstructure:"max_jobs_active"`
	Timeout         int    `mapstructure:"timeout"`           // milliseconds
	RequestTimeout  int    `mapstructure:"request_timeout"`   // milliseconds
	ReviewProcessID string `mapstructure:"review_process_id"` // started for every pending request
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	MaxConnections  int    `mapstructure:"max_connections"`
	MaxIdle         int    `mapstructure:"max_idle"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // milliseconds
	SSLMode         string `mapstructure:"sslmode"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	LegacyIndex string   `mapstructure:"legacy_index"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPConfig configures the API listener and the shared outbound client.
type HTTPConfig struct {
	Port           int         `mapstructure:"port"`
	AllowedOrigins []string    `mapstructure:"allowed_origins"`
	RequestTimeout int         `mapstructure:"request_timeout"` // milliseconds
	Retry          RetryConfig `mapstructure:"retry"`
}

// RetryConfig is the outbound backoff policy.
type RetryConfig struct {
	MaxAttempts  int     `mapstructure:"max_attempts"`
	InitialDelay int     `mapstructure:"initial_delay"` // milliseconds
	MaxDelay     int     `mapstructure:"max_delay"`     // milliseconds
	Multiplier   float64 `mapstructure:"multiplier"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// OnboardingConfig holds the submission and review workflow settings.
type OnboardingConfig struct {
	SubmissionTimeout    int    `mapstructure:"submission_timeout"` // milliseconds
	ReviewTimeout        int    `mapstructure:"review_timeout"`     // milliseconds
	TrackingPrefix       string `mapstructure:"tracking_prefix"`
	TrackingMaxAttempts  int    `mapstructure:"tracking_max_attempts"`
	LinkRequiresApproval bool   `mapstructure:"link_requires_approval"`
	EstimatedReviewTime  string `mapstructure:"estimated_review_time"`
}

// EnrichmentConfig configures the registry lookups used by the wizard.
type EnrichmentConfig struct {
	Timeout  int                  `mapstructure:"timeout"`   // milliseconds
	CacheTTL int                  `mapstructure:"cache_ttl"` // seconds
	CPF      PersonRegistryConfig `mapstructure:"cpf"`
	CNPJ     EndpointConfig       `mapstructure:"cnpj"`
	CEP      EndpointConfig       `mapstructure:"cep"`
}

type EndpointConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type PersonRegistryConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	StubName      string `mapstructure:"stub_name"`
	StubBirthDate string `mapstructure:"stub_birth_date"`
}

// NotificationConfig configures the side channels fired after persistence.
type NotificationConfig struct {
	Webhook struct {
		URL     string `mapstructure:"url"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"webhook"`
	Receipt struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"receipt"`
	Events struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"events"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
