package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// Config carries settings shared by the API, worker and relay processes. Values come from an
// optional YAML file named by CONFIG_FILE; environment variables override the file.
type Config struct {
	Port                string `yaml:"port"`
	PostgresDSN         string `yaml:"postgresDsn"`
	MySQLDSN            string `yaml:"mysqlDsn"`
	RedisAddr           string `yaml:"redisAddr"`
	KafkaBrokers        string `yaml:"kafkaBrokers"`
	KafkaTopic          string `yaml:"kafkaTopic"`
	TemporalAddress     string `yaml:"temporalAddress"`
	TemporalNamespace   string `yaml:"temporalNamespace"`
	TemporalDisabled    bool   `yaml:"temporalDisabled"`
	TaxRate             string `yaml:"taxRate"`
	IdempotencyTTLHours int    `yaml:"idempotencyTtlHours"`
	OutboxIntervalMS    int    `yaml:"outboxIntervalMs"`
}

const (
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendMemory   = "memory"
)

func defaultConfig() Config {
	return Config{
		Port:                "8080",
		KafkaTopic:          "pos.sales.events",
		TemporalAddress:     client.DefaultHostPort,
		TemporalNamespace:   client.DefaultNamespace,
		TaxRate:             domain.DefaultTaxRate.String(),
		IdempotencyTTLHours: 24,
		OutboxIntervalMS:    1000,
	}
}

// LoadConfig reads the optional config file, applies environment overrides, and validates.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.PostgresDSN, "POSTGRES_DSN")
	overrideString(&cfg.MySQLDSN, "MYSQL_DSN")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	overrideString(&cfg.KafkaTopic, "KAFKA_TOPIC")
	overrideString(&cfg.TemporalAddress, "TEMPORAL_ADDRESS")
	overrideString(&cfg.TemporalNamespace, "TEMPORAL_NAMESPACE")
	overrideString(&cfg.TaxRate, "TAX_RATE")
	if raw, ok := lookup("TEMPORAL_DISABLED"); ok {
		cfg.TemporalDisabled = isTruthy(raw)
	}
	if err := overrideInt(&cfg.IdempotencyTTLHours, "IDEMPOTENCY_TTL_HOURS"); err != nil {
		return Config{}, err
	}
	if err := overrideInt(&cfg.OutboxIntervalMS, "OUTBOX_INTERVAL_MS"); err != nil {
		return Config{}, err
	}

	if _, err := cfg.PricingEngine(); err != nil {
		return Config{}, fmt.Errorf("TAX_RATE: %w", err)
	}
	if cfg.IdempotencyTTLHours <= 0 {
		return Config{}, fmt.Errorf("IDEMPOTENCY_TTL_HOURS must be a positive integer")
	}
	if cfg.OutboxIntervalMS <= 0 {
		return Config{}, fmt.Errorf("OUTBOX_INTERVAL_MS must be a positive integer")
	}
	return cfg, nil
}

// Backend names the storage the process will use: Postgres wins over MySQL, memory is the fallback.
func (c Config) Backend() string {
	switch {
	case c.PostgresDSN != "":
		return BackendPostgres
	case c.MySQLDSN != "":
		return BackendMySQL
	default:
		return BackendMemory
	}
}

// PricingEngine builds the engine for the configured tax rate.
func (c Config) PricingEngine() (domain.PricingEngine, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return domain.PricingEngine{}, err
	}
	return domain.NewPricingEngine(rate)
}

// IdempotencyTTL is the retention of checkout idempotency keys.
func (c Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHours) * time.Hour
}

// OutboxInterval is the relay polling period.
func (c Config) OutboxInterval() time.Duration {
	return time.Duration(c.OutboxIntervalMS) * time.Millisecond
}

func lookup(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

func overrideString(dst *string, key string) {
	if val, ok := lookup(key); ok {
		*dst = val
	}
}

func overrideInt(dst *int, key string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s must be an integer", key)
	}
	*dst = n
	return nil
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
