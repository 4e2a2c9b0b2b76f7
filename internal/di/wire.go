//go:build wireinject
// +build wireinject

package di

import (
	"EVDemand/pkg/config"
	"EVDemand/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Model and caches
		ProvideTTLCache,
		ProvideRedisCache,
		ProvideModel,

		// Core
		ProvideFeatureBuilder,
		ProvidePredictionService,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvidePredictionStore,
		ProvideRecorder,
		ProvideResultPublisher,

		// Use cases
		ProvideRequestProcessor,
		ProvideKafkaRequestsHandler,

		// Transport
		ProvideRateLimiter,
		ProvideWSHandler,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
