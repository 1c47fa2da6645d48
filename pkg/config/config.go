package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RecorderClickHouse = "clickhouse"
	RecorderKafka      = "kafka"
	RecorderMemory     = "memory"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		CORS            struct {
			Enabled      bool     `yaml:"enabled"`
			AllowOrigins []string `yaml:"allow_origins"`
			AllowMethods []string `yaml:"allow_methods"`
			AllowHeaders []string `yaml:"allow_headers"`
			MaxAge       int      `yaml:"max_age"`
		} `yaml:"cors"`
	} `yaml:"server"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		// Collect ships aggregated error lines to kafka.logs_topic.
		Collect       bool          `yaml:"collect"`
		FlushInterval time.Duration `yaml:"flush_interval"`
	} `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Recorder struct {
		Backend      string        `yaml:"backend"`
		BufferSize   int           `yaml:"buffer_size"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
		DedupeTTL    time.Duration `yaml:"dedupe_ttl"`
	} `yaml:"recorder"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		DecisionsTopic string   `yaml:"decisions_topic"`
		SignalsTopic   string   `yaml:"signals_topic"`
		LogsTopic      string   `yaml:"logs_topic"`
		RequiredAcks   int      `yaml:"required_acks"`
		Compression    string   `yaml:"compression"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Intake struct {
		DefaultSource     string  `yaml:"default_source"`
		DefaultConfidence float64 `yaml:"default_confidence"`
		RateLimit         struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"intake"`
	Notifier  NotifierConfig `yaml:"notifier"`
	Sentiment struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		Retries    int           `yaml:"retries"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"sentiment"`
	Actions struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		// MinAlertConfidence gates the alert sent for a dispatched signal.
		MinAlertConfidence float64 `yaml:"min_alert_confidence"`
	} `yaml:"actions"`
}

// NotifierConfig is handed to the notifier as a plain value.
type NotifierConfig struct {
	Enabled     bool          `yaml:"enabled"`
	WebhookURL  string        `yaml:"webhook_url"`
	Channel     string        `yaml:"channel"`
	Username    string        `yaml:"username"`
	Timeout     time.Duration `yaml:"timeout"`
	MinPriority string        `yaml:"min_priority"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("SIGNALFORGE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("RECORDER_BACKEND"); v != "" {
		c.Recorder.Backend = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		c.Notifier.WebhookURL = v
		c.Notifier.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(c.Server.CORS.AllowOrigins) == 0 {
		c.Server.CORS.AllowOrigins = []string{"*"}
	}
	if len(c.Server.CORS.AllowMethods) == 0 {
		c.Server.CORS.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if c.Recorder.Backend == "" {
		c.Recorder.Backend = RecorderMemory
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = 1024
	}
	if c.Recorder.DedupeTTL == 0 {
		c.Recorder.DedupeTTL = 24 * time.Hour
	}
	if c.Kafka.DecisionsTopic == "" {
		c.Kafka.DecisionsTopic = "decisions"
	}
	if c.Kafka.SignalsTopic == "" {
		c.Kafka.SignalsTopic = "signals.inbound"
	}
	if c.Kafka.LogsTopic == "" {
		c.Kafka.LogsTopic = "logs.errors"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "signalforge"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "signalforge"
	}
	if c.Intake.DefaultSource == "" {
		c.Intake.DefaultSource = "external"
	}
	if c.Intake.DefaultConfidence == 0 {
		c.Intake.DefaultConfidence = 0.7
	}
	if c.Intake.RateLimit.Capacity == 0 {
		c.Intake.RateLimit.Capacity = 20
	}
	if c.Intake.RateLimit.RefillPerSec == 0 {
		c.Intake.RateLimit.RefillPerSec = 5
	}
	if c.Notifier.Timeout == 0 {
		c.Notifier.Timeout = 5 * time.Second
	}
	if c.Notifier.MinPriority == "" {
		c.Notifier.MinPriority = "normal"
	}
	if c.Sentiment.Timeout == 0 {
		c.Sentiment.Timeout = 3 * time.Second
	}
	if c.Sentiment.CacheTTL == 0 {
		c.Sentiment.CacheTTL = 10 * time.Minute
	}
	if c.Actions.Workers == 0 {
		c.Actions.Workers = 2
	}
	if c.Actions.RetryDelay == 0 {
		c.Actions.RetryDelay = 10 * time.Second
	}
	if c.Actions.MinAlertConfidence == 0 {
		c.Actions.MinAlertConfidence = 0.8
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Recorder.Backend {
	case RecorderClickHouse, RecorderKafka, RecorderMemory:
	default:
		return fmt.Errorf("recorder.backend must be one of clickhouse, kafka, memory, got '%s'", c.Recorder.Backend)
	}
	if c.Recorder.Backend == RecorderKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required for the kafka recorder backend")
	}
	if c.Recorder.Backend == RecorderClickHouse && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse recorder backend")
	}
	if c.Kafka.Consumer.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka.consumer is enabled")
	}
	if c.Server.CORS.MaxAge < 0 {
		return fmt.Errorf("server.cors.max_age must not be negative")
	}
	if c.Intake.DefaultConfidence < 0 || c.Intake.DefaultConfidence > 1 {
		return fmt.Errorf("intake.default_confidence must be within [0,1], got %v", c.Intake.DefaultConfidence)
	}
	if c.Recorder.BufferSize < 0 {
		return fmt.Errorf("recorder.buffer_size must not be negative")
	}
	if c.Notifier.Enabled && c.Notifier.WebhookURL == "" {
		return fmt.Errorf("notifier.webhook_url is required when the notifier is enabled")
	}
	if c.Actions.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("actions require redis to be enabled")
	}
	switch c.Notifier.MinPriority {
	case "low", "normal", "high":
	default:
		return fmt.Errorf("notifier.min_priority must be one of low, normal, high")
	}
	return nil
}
