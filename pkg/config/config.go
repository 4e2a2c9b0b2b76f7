package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Model backends.
const (
	ModelFile = "file"
	ModelHTTP = "http"
)

// Cache and audit backends.
const (
	BackendNone       = "none"
	BackendMemory     = "memory"
	BackendRedis      = "redis"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		// AllowOrigins feeds the CORS middleware; empty allows all.
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps" default:"20"`
		Burst   int     `yaml:"burst" default:"40"`
	} `yaml:"rate_limit"`
	Model struct {
		Type       string        `yaml:"type" default:"file"`
		Path       string        `yaml:"path" default:"config/model.yaml"`
		ServiceURL string        `yaml:"service_url"`
		Name       string        `yaml:"name"`
		Timeout    time.Duration `yaml:"timeout" default:"3s"`
		Retries    int           `yaml:"retries" default:"2"`
		Breaker    struct {
			Failures uint32        `yaml:"failures" default:"5"`
			Cooldown time.Duration `yaml:"cooldown" default:"30s"`
		} `yaml:"breaker"`
		Cache struct {
			Backend       string        `yaml:"backend" default:"none"`
			TTL           time.Duration `yaml:"ttl" default:"10m"`
			SweepInterval time.Duration `yaml:"sweep_interval" default:"1m"`
			Redis         struct {
				Addr     string `yaml:"addr" default:"localhost:6379"`
				Password string `yaml:"password"`
				DB       int    `yaml:"db"`
				Prefix   string `yaml:"prefix" default:"evdemand:"`
			} `yaml:"redis"`
		} `yaml:"cache"`
	} `yaml:"model"`
	Audit struct {
		Backend string `yaml:"backend" default:"none"`
	} `yaml:"audit"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		RequestsTopic string   `yaml:"requests_topic" default:"ev.prediction.requests"`
		ResultsTopic  string   `yaml:"results_topic" default:"ev.prediction.results"`
		AuditTopic    string   `yaml:"audit_topic" default:"ev.prediction.audit"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"snappy"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"evdemand"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"ev.prediction.requests.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"ev_predictions"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("EV_ENV"); ok && v != "" {
		c.Environment = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v, ok := lookup("EV_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("EV_MODEL_PATH"); ok && v != "" {
		c.Model.Type = ModelFile
		c.Model.Path = v
	}
	if v, ok := lookup("EV_MODEL_URL"); ok && v != "" {
		c.Model.Type = ModelHTTP
		c.Model.ServiceURL = v
	}
	if v, ok := lookup("EV_KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := lookup("EV_AUDIT_BACKEND"); ok && v != "" {
		c.Audit.Backend = v
	}
	if v, ok := lookup("EV_REDIS_ADDR"); ok && v != "" {
		c.Model.Cache.Backend = BackendRedis
		c.Model.Cache.Redis.Addr = v
	}
	return nil
}

// KafkaNeeded reports whether any component talks to Kafka.
func (c *Config) KafkaNeeded() bool {
	return c.Kafka.Enabled || c.Audit.Backend == BackendKafka
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Model.Type {
	case ModelFile:
		if c.Model.Path == "" {
			return fmt.Errorf("model.path is required for model.type 'file'")
		}
	case ModelHTTP:
		if c.Model.ServiceURL == "" {
			return fmt.Errorf("model.service_url is required for model.type 'http'")
		}
	default:
		return fmt.Errorf("model.type must be 'file' or 'http', got '%s'", c.Model.Type)
	}
	switch c.Model.Cache.Backend {
	case BackendNone, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("model.cache.backend must be 'none', 'memory' or 'redis', got '%s'", c.Model.Cache.Backend)
	}
	switch c.Audit.Backend {
	case BackendNone, BackendKafka, BackendClickHouse:
	default:
		return fmt.Errorf("audit.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Audit.Backend)
	}
	if c.KafkaNeeded() && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be positive")
	}
	return nil
}
