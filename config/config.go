package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/* Config é um pacote auxiliar. Poderia ser uma lib externa*/

type Config struct {
	Port        string `mapstructure:"PORT"`
	MetricsPort string `mapstructure:"METRICS_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// INBOX_BACKEND escolhe onde o inbox vive: redis ou postgres
	InboxBackend string `mapstructure:"INBOX_BACKEND"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`

	WebhookSecrets string `mapstructure:"WEBHOOK_SECRETS"`
	WebhookAPIKey  string `mapstructure:"WEBHOOK_API_KEY"`

	ProviderBaseURL             string        `mapstructure:"PROVIDER_BASE_URL"`
	ProviderAPIKey              string        `mapstructure:"PROVIDER_API_KEY"`
	ProviderTimeout             time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	ProviderConsecutiveFailures uint32        `mapstructure:"PROVIDER_CONSECUTIVE_FAILURES"`
	ProviderOpenTimeout         time.Duration `mapstructure:"PROVIDER_OPEN_TIMEOUT"`

	BillingURL     string        `mapstructure:"BILLING_URL"`
	BillingToken   string        `mapstructure:"BILLING_TOKEN"`
	BillingTimeout time.Duration `mapstructure:"BILLING_TIMEOUT"`

	WorkerConcurrency int    `mapstructure:"WORKER_CONCURRENCY"`
	PoliciesFile      string `mapstructure:"POLICIES_FILE"`

	// WORKER_STALE_AFTER nunca fica abaixo do dobro do maior timeout das políticas
	WorkerStaleAfter time.Duration `mapstructure:"WORKER_STALE_AFTER"`

	PollURL             string        `mapstructure:"POLL_URL"`
	PollToken           string        `mapstructure:"POLL_TOKEN"`
	PollInitialInterval time.Duration `mapstructure:"POLL_INITIAL_INTERVAL"`
	PollMaxInterval     time.Duration `mapstructure:"POLL_MAX_INTERVAL"`
	PollErrorThreshold  int           `mapstructure:"POLL_ERROR_THRESHOLD"`
}

var defaults = map[string]interface{}{
	"PORT":                          "8080",
	"METRICS_PORT":                  "9090",
	"LOG_LEVEL":                     "info",
	"REDIS_ADDR":                    "localhost:6379",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"INBOX_BACKEND":                 "redis",
	"DATABASE_URL":                  "",
	"WEBHOOK_SECRETS":               "",
	"WEBHOOK_API_KEY":               "",
	"PROVIDER_BASE_URL":             "http://localhost:8081",
	"PROVIDER_API_KEY":              "",
	"PROVIDER_TIMEOUT":              "30s",
	"PROVIDER_CONSECUTIVE_FAILURES": 5,
	"PROVIDER_OPEN_TIMEOUT":         "30s",
	"BILLING_URL":                   "",
	"BILLING_TOKEN":                 "",
	"BILLING_TIMEOUT":               "30s",
	"WORKER_CONCURRENCY":            4,
	"POLICIES_FILE":                 "policies.yaml",
	"WORKER_STALE_AFTER":            "5m",
	"POLL_URL":                      "",
	"POLL_TOKEN":                    "",
	"POLL_INITIAL_INTERVAL":         "5s",
	"POLL_MAX_INTERVAL":             "120s",
	"POLL_ERROR_THRESHOLD":          3,
}

// GetConfig lê o .env do diretório atual (opcional) e as variáveis de ambiente
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load lê a configuração a partir de um diretório específico
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(path)

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// Secrets devolve os segredos HMAC aceitos, o primeiro é o atual
func (c *Config) Secrets() []string {
	var secrets []string
	for _, s := range strings.Split(c.WebhookSecrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// UsePostgres indica se o inbox deve usar o Postgres
func (c *Config) UsePostgres() bool {
	return strings.EqualFold(c.InboxBackend, "postgres")
}
