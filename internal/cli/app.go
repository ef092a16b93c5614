package cli

import (
	"context"
	"os"

	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"
	fxmodules "leaderboard-sync/internal/fx"
	"leaderboard-sync/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Services is what the commands need from the dependency graph.
type Services struct {
	Config   *config.Config
	Scores   *service.ScoreService
	Daily    *service.DailyService
	Badges   *service.BadgeService
	Overview *service.OverviewService
}

// Loader builds the services and returns a func that releases them.
type Loader func(verbose bool) (*Services, func(), error)

// FxLoader runs the shared core graph with logs sent to stderr so they never
// mix with command output.
func FxLoader(verbose bool) (*Services, func(), error) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	svc := &Services{}
	app := fx.New(
		fxmodules.Core,
		fx.Decorate(func(zerolog.Logger) zerolog.Logger {
			return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().
				Timestamp().
				Logger()
		}),
		fx.NopLogger,
		fx.Populate(&svc.Config, &svc.Scores, &svc.Daily, &svc.Badges, &svc.Overview),
	)
	if err := app.Err(); err != nil {
		return nil, nil, err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, nil, err
	}

	stop := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}
	return svc, stop, nil
}
