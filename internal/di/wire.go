//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ChartCast/internal/usecase"
	"ChartCast/pkg/config"
	"ChartCast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisClient,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaConsumer,

		// Repositories
		ProvideArchive,
		ProvideEventPublisher,
		ProvideKlineSource,
		ProvideHistoryStore,

		// External services
		ProvideCaptioner,
		ProvideCastPublisher,
		ProvideBlobStore,
		ProvideFrameRenderer,
		ProvideRateLimiter,

		// Use cases
		ProvideChartUseCase,
		usecase.NewCaptionUseCase,
		ProvideCastUseCase,
		usecase.NewUploadUseCase,
		usecase.NewHistoryUseCase,
		ProvideSnapshotSink,
		ProvideLiveWatcher,
		ProvideSnapshotScheduler,
		ProvideCastArchiver,

		// Application server
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
