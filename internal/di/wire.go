//go:build wireinject
// +build wireinject

package di

import (
	"StakeWatch/pkg/config"
	"StakeWatch/pkg/server"

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
		ProvideIndexerClient,
		ProvideBytesCache,
		ProvideAlertQueue,
		ProvideTelemetryStream,

		// Repositories
		ProvideRiskHistory,
		ProvideAlertPublisher,

		// Use cases
		ProvideRiskParams,
		ProvideRiskEngine,
		ProvideEventDispatcher,
		ProvideTelemetryCollector,
		ProvidePositionEventsHandler,
		ProvideRiskHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
