package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Installment   InstallmentConfig       `mapstructure:"installment"`
	Identity      IdentityConfig          `mapstructure:"identity"`
	Payment       PaymentConfig           `mapstructure:"payment"`
	Auth          AuthConfig              `mapstructure:"auth"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	RateLimit     RateLimitConfig         `mapstructure:"rate_limit"`
	Search        SearchConfig            `mapstructure:"search"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	Environment  string `mapstructure:"environment"`
	RegistryPath string `mapstructure:"registry_path"`
}

type CamundaConfig struct {
	BrokerAddress          string `mapstructure:"broker_address"`
	UsePlaintextConnection bool   `mapstructure:"use_plaintext"`
	MaxJobsActive          int    `mapstructure:"max_jobs_active"`
	Timeout                int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout         int    `mapstructure:"request_timeout"` // milliseconds
	PaymentMessageName     string `mapstructure:"payment_message_name"`
	PaymentMessageTTL      int    `mapstructure:"payment_message_ttl"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// --- Domain Configuration ---

// InstallmentConfig is the split-payment business policy. Amounts are
// decimal strings in the configured currency.
type InstallmentConfig struct {
	Currency          string `mapstructure:"currency"`
	FirstPaymentRatio string `mapstructure:"first_payment_ratio"`
	ShortTermMin      string `mapstructure:"short_term_min"`
	ShortTermMax      string `mapstructure:"short_term_max"`
	ShortTermMonths   int    `mapstructure:"short_term_months"`
	LongTermMonths    int    `mapstructure:"long_term_months"`
	MinorUnitPlaces   int    `mapstructure:"minor_unit_places"`
}

// IdentityConfig configures the BVN verification API.
type IdentityConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Timeout  int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// PaymentConfig configures the payment gateway.
type PaymentConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	SecretKey       string `mapstructure:"secret_key"`
	CallbackURL     string `mapstructure:"callback_url"`
	ReferencePrefix string `mapstructure:"reference_prefix"`
	Timeout         int    `mapstructure:"timeout"` // milliseconds
}

// AuthConfig holds the approver directory settings.
type AuthConfig struct {
	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		ApproverRole string `mapstructure:"approver_role"`
		Timeout      int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"keycloak"`
}

// IntegrationConfig holds settings for AWS delivery channels.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// NotificationConfig holds recipient and template settings.
type NotificationConfig struct {
	AdminEmails   []string `mapstructure:"admin_emails"`
	StorefrontURL string   `mapstructure:"storefront_url"`
	SupportEmail  string   `mapstructure:"support_email"`
	Timeout       int      `mapstructure:"timeout"` // milliseconds
}

// RateLimitConfig bounds installment submissions per applicant.
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	MaxSubmissions int  `mapstructure:"max_submissions"`
	Window         int  `mapstructure:"window"` // seconds
}

// SearchConfig names the lifecycle event index.
type SearchConfig struct {
	EventIndex string `mapstructure:"event_index"`
}

// HTTPConfig configures the health, metrics and webhook listener.
type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds tracing settings.
type ObservabilityConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
