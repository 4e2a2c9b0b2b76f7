package di

import (
	"context"
	"fmt"
	"time"

	"EVDemand/internal/domain/repository"
	domsvc "EVDemand/internal/domain/service"
	"EVDemand/internal/handler/api"
	internalrepo "EVDemand/internal/repository"
	"EVDemand/internal/scheduler"
	"EVDemand/internal/service/cache"
	"EVDemand/internal/service/ratelimit"
	"EVDemand/internal/services/features"
	"EVDemand/internal/services/model"
	"EVDemand/internal/usecase"
	pkgch "EVDemand/pkg/clickhouse"
	"EVDemand/pkg/config"
	xhttp "EVDemand/pkg/http"
	"EVDemand/pkg/http/middleware"
	pkgkafka "EVDemand/pkg/kafka"
	applogger "EVDemand/pkg/logger"
	"EVDemand/pkg/metrics"
	"EVDemand/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTTLCache creates the in-process model cache when selected.
func ProvideTTLCache(cfg *config.Config) *cache.TTLCache {
	if cfg.Model.Cache.Backend != config.BackendMemory {
		return nil
	}
	return cache.NewTTLCache()
}

// ProvideRedisCache creates the shared model cache when selected.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if cfg.Model.Cache.Backend != config.BackendRedis {
		return nil, nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Model.Cache.Redis.Addr,
		Password: cfg.Model.Cache.Redis.Password,
		DB:       cfg.Model.Cache.Redis.DB,
		Prefix:   cfg.Model.Cache.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideModel builds the configured model, wrapped in the cache decorator
// when a cache backend is enabled.
func ProvideModel(cfg *config.Config, ttl *cache.TTLCache, rc *cache.RedisCache, l *applogger.Logger) (domsvc.Model, error) {
	var (
		m   domsvc.Model
		err error
	)
	switch cfg.Model.Type {
	case config.ModelHTTP:
		m, err = model.NewHTTP(model.HTTPConfig{
			URL:             cfg.Model.ServiceURL,
			Name:            cfg.Model.Name,
			Timeout:         cfg.Model.Timeout,
			Retries:         cfg.Model.Retries,
			BreakerFailures: cfg.Model.Breaker.Failures,
			BreakerCooldown: cfg.Model.Breaker.Cooldown,
		})
	default:
		m, err = model.LoadFile(cfg.Model.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	l.Info("model loaded", applogger.String("type", cfg.Model.Type), applogger.String("name", m.Name()))

	switch {
	case ttl != nil:
		return model.NewCached(m, ttl, cfg.Model.Cache.TTL, l), nil
	case rc != nil:
		return model.NewCached(m, rc, cfg.Model.Cache.TTL, l), nil
	}
	return m, nil
}

// ProvideFeatureBuilder creates the feature builder with the default county catalog.
func ProvideFeatureBuilder() *features.Builder {
	return features.NewBuilder(nil)
}

// ProvidePredictionService creates the prediction use case.
func ProvidePredictionService(b *features.Builder, m domsvc.Model, l *applogger.Logger) *usecase.PredictionService {
	return usecase.NewPredictionService(b, m, l)
}

// ProvideClickHouseClient creates a ClickHouse client when the audit backend needs one.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Audit.Backend != config.BackendClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePredictionStore creates the ClickHouse audit table and store.
func ProvidePredictionStore(ch *pkgch.Client, cfg *config.Config) (repository.PredictionStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseStore(ch.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when any component publishes.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.KafkaNeeded() {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRecorder selects the audit sink named by audit.backend.
func ProvideRecorder(cfg *config.Config, store repository.PredictionStore, producer *pkgkafka.Producer) repository.PredictionRecorder {
	switch cfg.Audit.Backend {
	case config.BackendClickHouse:
		if store != nil {
			return store
		}
	case config.BackendKafka:
		if producer != nil {
			return internalrepo.NewKafkaRecorder(producer, cfg.Kafka.AuditTopic)
		}
	}
	return internalrepo.NoopRecorder{}
}

// ProvideRequestProcessor creates the transport-facing processor.
func ProvideRequestProcessor(
	svc *usecase.PredictionService,
	recorder repository.PredictionRecorder,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.RequestProcessor {
	return usecase.NewRequestProcessor(svc, recorder, cfg.Audit.Backend, m, time.Now, l)
}

// ProvideResultPublisher creates the Kafka results publisher.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil || !cfg.Kafka.Enabled {
		return nil
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook{L: l})
	return consumer, nil
}

// ProvideKafkaRequestsHandler creates the handler for the requests topic.
func ProvideKafkaRequestsHandler(
	cfg *config.Config,
	processor *usecase.RequestProcessor,
	results repository.ResultPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.KafkaRequestsHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.RequestsTopic, processor, results, m, l)
}

// ProvideRateLimiter creates the per-IP limiter when enabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.RPS)
}

// ProvideWSHandler creates the websocket prediction handler.
func ProvideWSHandler(cfg *config.Config, processor *usecase.RequestProcessor, l *applogger.Logger) *api.PredictionsWSHandler {
	return api.NewPredictionsWSHandler(l, processor, 30*time.Second, cfg.Server.AllowOrigins)
}

// ProvideHTTPHandler creates the echo prediction handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	processor *usecase.RequestProcessor,
	store repository.PredictionStore,
	limiter *ratelimit.Limiter,
	ws *api.PredictionsWSHandler,
) *api.PredictionsEchoHandler {
	var allower middleware.Allower
	if limiter != nil {
		allower = limiter
	}
	return api.NewPredictionsEchoHandler(l, processor, store, allower, ws)
}

// ProvideHTTPServer creates the echo server with health checks for the
// enabled infrastructure.
func ProvideHTTPServer(
	cfg *config.Config,
	h *api.PredictionsEchoHandler,
	ch *pkgch.Client,
	rc *cache.RedisCache,
	l *applogger.Logger,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.AllowOrigins...),
		xhttp.WithMetrics(metricsPath),
		xhttp.WithLogger(l),
	}
	if ch != nil {
		opts = append(opts, xhttp.WithHealthCheck("clickhouse", ch.Health))
	}
	if rc != nil {
		opts = append(opts, xhttp.WithHealthCheck("redis", rc.Ping))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideScheduler registers maintenance jobs for in-process state.
func ProvideScheduler(cfg *config.Config, ttl *cache.TTLCache, limiter *ratelimit.Limiter, l *applogger.Logger) *scheduler.Scheduler {
	s := scheduler.New(l)
	if ttl != nil {
		s.Add(scheduler.Job{
			Name:     "model-cache-sweep",
			Interval: cfg.Model.Cache.SweepInterval,
			Run: func(context.Context) error {
				if n := ttl.Sweep(); n > 0 {
					l.Debug("model cache swept", applogger.Int("evicted", n), applogger.Int("size", ttl.Len()))
				}
				return nil
			},
		})
	}
	if limiter != nil {
		s.Add(scheduler.Job{
			Name:     "rate-limit-prune",
			Interval: time.Minute,
			Run: func(context.Context) error {
				limiter.Prune(10 * time.Minute)
				return nil
			},
		})
	}
	return s
}

// ProvideApp creates the application server.
func ProvideApp(
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRequestsHandler,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	rc *cache.RedisCache,
) *server.App {
	var handler pkgkafka.MessageHandler
	if kh != nil {
		handler = kh
	}
	var closers []server.Closer
	if producer != nil {
		closers = append(closers, server.Closer{Name: "kafka producer", Close: producer.Close})
	}
	if ch != nil {
		closers = append(closers, server.Closer{Name: "clickhouse", Close: ch.Close})
	}
	if rc != nil {
		closers = append(closers, server.Closer{Name: "redis", Close: rc.Close})
	}
	return server.New(l, httpServer, sched, consumer, handler, closers...)
}
