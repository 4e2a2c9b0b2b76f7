package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "EVDemand/internal/repository"
	"EVDemand/internal/service/cache"
	"EVDemand/internal/services/model"
	"EVDemand/pkg/config"
	applogger "EVDemand/pkg/logger"
)

const artifact = `
type: linear
name: test
features: [months_since_epoch, county_code, lag1, lag2, lag3, rolling_mean_3, pct_change_1, pct_change_3, growth_slope]
intercept: 1
coefficients: [0, 0, 1, 0, 0, 0, 0, 0, 0]
`

func writeArtifact(t *testing.T) string {
	p := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(p, []byte(artifact), 0o600))
	return p
}

func TestProvideModelFile(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = writeArtifact(t)

	m, err := ProvideModel(cfg, nil, nil, applogger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "test", m.Name())
	_, cached := m.(*model.Cached)
	assert.False(t, cached)
}

func TestProvideModelWithMemoryCache(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = writeArtifact(t)
	cfg.Model.Cache.Backend = config.BackendMemory

	ttl := ProvideTTLCache(cfg)
	require.NotNil(t, ttl)
	m, err := ProvideModel(cfg, ttl, nil, applogger.Nop())
	require.NoError(t, err)
	_, cached := m.(*model.Cached)
	assert.True(t, cached)
}

func TestProvideModelMissingArtifact(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = filepath.Join(t.TempDir(), "absent.yaml")
	_, err := ProvideModel(cfg, nil, nil, applogger.Nop())
	assert.Error(t, err)
}

func TestProvideDisabledInfrastructure(t *testing.T) {
	cfg := config.Default()

	assert.Nil(t, ProvideTTLCache(cfg))
	rc, err := ProvideRedisCache(cfg)
	require.NoError(t, err)
	assert.Nil(t, rc)
	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)
	store, err := ProvidePredictionStore(ch, cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
	p, err := ProvideKafkaProducer(cfg, applogger.Nop())
	require.NoError(t, err)
	assert.Nil(t, p)
	c, err := ProvideKafkaConsumer(cfg, applogger.Nop())
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, ProvideResultPublisher(nil, cfg))
	assert.Nil(t, ProvideRateLimiter(cfg))
	assert.Nil(t, ProvideKafkaRequestsHandler(cfg, nil, nil, nil, applogger.Nop()))
}

func TestProvideRecorderFallsBackToNoop(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, internalrepo.NoopRecorder{}, ProvideRecorder(cfg, nil, nil))

	cfg.Audit.Backend = config.BackendClickHouse
	assert.IsType(t, internalrepo.NoopRecorder{}, ProvideRecorder(cfg, nil, nil))
}

func TestProvideSchedulerJobs(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = true
	s := ProvideScheduler(cfg, cache.NewTTLCache(), ProvideRateLimiter(cfg), applogger.Nop())
	require.NoError(t, s.Start())
	s.Stop()
}
