package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, ModelFile, c.Model.Type)
	assert.Equal(t, 3*time.Second, c.Model.Timeout)
	assert.Equal(t, BackendNone, c.Audit.Backend)
	assert.Equal(t, "ev_predictions", c.ClickHouse.Table)
	assert.NoError(t, c.Validate())
}

func TestParseOverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
model:
  type: http
  service_url: http://model:8000
  cache:
    backend: memory
    ttl: 1m
`))
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, ModelHTTP, c.Model.Type)
	assert.Equal(t, time.Minute, c.Model.Cache.TTL)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad model type":    func(c *Config) { c.Model.Type = "onnx" },
		"file without path": func(c *Config) { c.Model.Path = "" },
		"http without url":  func(c *Config) { c.Model.Type = ModelHTTP },
		"bad cache":         func(c *Config) { c.Model.Cache.Backend = "memcached" },
		"bad audit":         func(c *Config) { c.Audit.Backend = "s3" },
		"kafka no brokers":  func(c *Config) { c.Audit.Backend = BackendKafka },
		"bad port":          func(c *Config) { c.Server.Port = 0 },
		"bad rate limit":    func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.Burst = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EV_ENV":           "staging",
		"PORT":             "7000",
		"EV_MODEL_URL":     "http://model:8000",
		"EV_KAFKA_BROKERS": "k1:9092,k2:9092",
		"EV_AUDIT_BACKEND": "kafka",
		"EV_REDIS_ADDR":    "redis:6379",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	c := Default()
	require.NoError(t, c.ApplyEnv(lookup))
	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, 7000, c.Server.Port)
	assert.Equal(t, ModelHTTP, c.Model.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, BackendRedis, c.Model.Cache.Backend)
	assert.NoError(t, c.Validate())

	env["PORT"] = "eighty"
	assert.Error(t, Default().ApplyEnv(lookup))
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))

	t.Setenv("EV_MODEL_PATH", "/models/ev.yaml")
	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, "/models/ev.yaml", c.Model.Path)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
