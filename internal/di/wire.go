//go:build wireinject
// +build wireinject

package di

import (
	"SigPipe/pkg/config"
	"SigPipe/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideBarStore,
		ProvideSignalStore,
		ProvideAccuracyStore,
		ProvidePredictionStore,
		ProvideBarStream,
		ProvideClassifier,

		// Use cases
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,
		ProvideSignalGenerator,
		ProvideLabelAssigner,
		ProvideAccuracyAggregator,
		ProvidePredictionRefresh,
		ProvideDailyPipeline,
		ProvidePortfolioAllocator,
		ProvideReporting,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
