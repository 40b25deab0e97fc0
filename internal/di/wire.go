//go:build wireinject
// +build wireinject

package di

import (
	"ContraTrack/pkg/config"
	"ContraTrack/pkg/server"

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
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideCache,

		// Repositories
		ProvideStores,
		ProvideRecorder,
		ProvideHub,
		ProvidePublisher,

		// Use cases
		ProvideAnalysisUseCase,
		ProvideIngestUseCase,
		ProvideRecommendationsHandler,
		ProvideScheduler,

		// Delivery
		ProvideKafkaConsumer,
		ProvideHTTPServer,

		// Application server
		ProvideResources,
		ProvideApp,
	)
	return &server.App{}, nil
}
