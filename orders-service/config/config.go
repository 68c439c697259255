package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string     `mapstructure:"service_name"`
	Env         string     `mapstructure:"env"`
	Port        string     `mapstructure:"port"`
	LogLevel    string     `mapstructure:"log_level"`
	Database    Database   `mapstructure:"database"`
	AWS         AWS        `mapstructure:"aws"`
	Redis       Redis      `mapstructure:"redis"`
	Ledger      Backend    `mapstructure:"ledger"`
	Store       Backend    `mapstructure:"store"`
	Downstream  Downstream `mapstructure:"downstream"`
	Saga        Saga       `mapstructure:"saga"`
	Telemetry   Telemetry  `mapstructure:"telemetry"`
	Subscriber  Subscriber `mapstructure:"subscriber"`
}

type Database struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	Migrate  bool   `mapstructure:"migrate"`
}

type AWS struct {
	Enabled     bool   `mapstructure:"enabled"`
	Region      string `mapstructure:"region"`
	EndpointSNS string `mapstructure:"endpoint_sns"`
	EndpointSQS string `mapstructure:"endpoint_sqs"`
	SNSTopicArn string `mapstructure:"sns_topic_arn"`
	SQSQueueURL string `mapstructure:"sqs_queue_url"`
}

type Redis struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	LedgerTTL time.Duration `mapstructure:"ledger_ttl"`
}

// Backend selects the implementation of a storage port
type Backend struct {
	Backend string `mapstructure:"backend"`
}

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Downstream struct {
	InventoryURL string        `mapstructure:"inventory_url"`
	PaymentURL   string        `mapstructure:"payment_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type Saga struct {
	ReturnWindow       time.Duration `mapstructure:"return_window"`
	CASMaxAttempts     uint          `mapstructure:"cas_max_attempts"`
	RefundMaxAttempts  int           `mapstructure:"refund_max_attempts"`
	RefundRetryBackoff time.Duration `mapstructure:"refund_retry_backoff"`
	BulkConcurrency    int           `mapstructure:"bulk_concurrency"`
	TotalEpsilon       string        `mapstructure:"total_epsilon"`
}

type Telemetry struct {
	Enabled        bool   `mapstructure:"enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceVersion string `mapstructure:"service_version"`
}

type Subscriber struct {
	Workers           int32 `mapstructure:"workers"`
	VisibilityTimeout int32 `mapstructure:"visibility_timeout"`
}

// ReadConfig loads <ENVIRONMENT>.json from the config package directory. Every key can be
// overridden with an ORDER_ prefixed variable, dots replaced by underscores.
func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	v := viper.New()
	v.SetConfigName(getConfigName())
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Dir(filename))
	v.AddConfigPath(".")

	v.SetEnvPrefix("ORDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func getConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "order-service")
	v.SetDefault("env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "order_system")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migrate", true)

	v.SetDefault("aws.enabled", false)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint_sns", "")
	v.SetDefault("aws.endpoint_sqs", "")
	v.SetDefault("aws.sns_topic_arn", "arn:aws:sns:us-east-1:000000000000:order-events")
	v.SetDefault("aws.sqs_queue_url", "http://localhost:4566/000000000000/order-inbound-events")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ledger_ttl", "0s")

	v.SetDefault("ledger.backend", BackendPostgres)
	v.SetDefault("store.backend", BackendPostgres)

	v.SetDefault("downstream.inventory_url", "http://localhost:8081")
	v.SetDefault("downstream.payment_url", "http://localhost:8082")
	v.SetDefault("downstream.timeout", "5s")

	v.SetDefault("saga.return_window", "720h")
	v.SetDefault("saga.cas_max_attempts", 5)
	v.SetDefault("saga.refund_max_attempts", 3)
	v.SetDefault("saga.refund_retry_backoff", "200ms")
	v.SetDefault("saga.bulk_concurrency", 8)
	v.SetDefault("saga.total_epsilon", "0.01")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_version", "1.0.0")

	v.SetDefault("subscriber.workers", 16)
	v.SetDefault("subscriber.visibility_timeout", 30)
}

// Validate rejects backend combinations the service cannot run with
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres, BackendMemory:
	default:
		return errors.Errorf("unsupported store backend %q", c.Store.Backend)
	}

	switch c.Ledger.Backend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return errors.Errorf("unsupported ledger backend %q", c.Ledger.Backend)
	}

	if c.Ledger.Backend == BackendMemory && c.Store.Backend != BackendMemory {
		return errors.New("memory ledger requires the memory store")
	}

	return nil
}

// UsesPostgres reports whether any port is backed by the database
func (c *Config) UsesPostgres() bool {
	return c.Store.Backend == BackendPostgres || c.Ledger.Backend == BackendPostgres
}

// GetDatabaseURL returns database.url when set, otherwise builds it from the parts
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
