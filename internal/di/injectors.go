//go:build wireinject
// +build wireinject

package di

import (
	"chatpulse/internal"
	"chatpulse/internal/controllers"
	"chatpulse/internal/providers"
	"chatpulse/internal/services"
	"chatpulse/internal/structures"
	"chatpulse/internal/tracker"
	"chatpulse/internal/transport"
	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		tracker.NewFileManager,
		tracker.NewBuffer,
		tracker.NewBackupManager,
		tracker.NewZstdCompressor,
		tracker.NewScheduler,
		transport.NewHTTPClient,
		services.NewTrackerService,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,

		wire.Bind(new(providers.DatasetCounter), new(*tracker.Buffer)),
	)

	return nil, nil
}
