package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: renewablezmart
    user: rz
    password: ${TEST_RZ_DB_PASSWORD}
  redis:
    address: localhost:6379
identity:
  base_url: https://identity.example.test
payment:
  base_url: https://gateway.example.test
workers:
  compute-installment-plan:
    enabled: true
  submit-installment-application:
    enabled: false
    timeout: 5000
installment:
  short_term_min: "500000"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_RZ_DB_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)

	// Policy values keep overrides and fill the rest.
	assert.Equal(t, "500000", cfg.Installment.ShortTermMin)
	assert.Equal(t, "1000000", cfg.Installment.ShortTermMax)
	assert.Equal(t, "0.5", cfg.Installment.FirstPaymentRatio)
	assert.Equal(t, 3, cfg.Installment.ShortTermMonths)
	assert.Equal(t, 6, cfg.Installment.LongTermMonths)
	assert.Equal(t, 2, cfg.Installment.MinorUnitPlaces)
	assert.Equal(t, "NGN", cfg.Installment.Currency)

	assert.Equal(t, "installment-payment-received", cfg.Camunda.PaymentMessageName)
	assert.Equal(t, "installment-approver", cfg.Auth.Keycloak.ApproverRole)
	assert.Equal(t, "installment-application-events", cfg.Search.EventIndex)
	assert.Equal(t, ":8080", cfg.HTTP.Address)

	plan := cfg.Workers["compute-installment-plan"]
	assert.True(t, plan.Enabled)
	assert.Equal(t, 5, plan.MaxJobsActive)
	assert.Equal(t, 30000, plan.Timeout)
}

func TestLoadFromFile_SecretOverrides(t *testing.T) {
	t.Setenv("PAYMENT_SECRET_KEY", "sk_test_123")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", cfg.Payment.SecretKey)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing broker",
			content: "database:\n  postgres:\n    host: h\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "missing identity url",
			content: `
camunda: {broker_address: x}
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: r}
payment: {base_url: p}
`,
			wantErr: "identity.base_url is required",
		},
		{
			name: "search enabled without addresses",
			content: `
camunda: {broker_address: x}
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: r}
  elasticsearch: {enabled: true}
`,
			wantErr: "database.elasticsearch.addresses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWorkerConfigHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"approve-installment-application": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "approve-installment-application"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "approve-installment-application").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "unknown").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=require", p.GetDSN())
}
