package fx

import (
	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/database"
	"leaderboard-sync/internal/device"
	"leaderboard-sync/internal/logger"
	"leaderboard-sync/internal/metrics"
	"leaderboard-sync/internal/registry"
	"leaderboard-sync/internal/repository"
	"leaderboard-sync/internal/scorecache"
	"leaderboard-sync/internal/server"
	"leaderboard-sync/internal/service"

	"go.uber.org/fx"
)

// Core is everything except the transport; the CLI runs on it directly.
var Core = fx.Options(
	logger.Module,
	config.Module,
	database.Module,
	metrics.Module,
	// stores
	fx.Provide(
		fx.Annotate(device.NewStore, fx.As(new(service.DeviceStore))),
		fx.Annotate(scorecache.NewStore, fx.As(new(service.ScoreCache))),
		fx.Annotate(repository.NewAttemptJournal, fx.As(new(service.Journal))),
	),
	// registry client
	fx.Provide(fx.Annotate(registry.NewClient, fx.As(new(service.Registry)))),
	// svc
	fx.Provide(service.NewScoreService),
	fx.Provide(service.NewDailyService),
	fx.Provide(service.NewBadgeService),
	fx.Provide(service.NewOverviewService),
)

var Module = fx.Options(
	Core,
	// server
	fx.Provide(server.NewLeaderboardServer),
)
