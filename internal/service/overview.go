package service

import (
	"context"

	"leaderboard-sync/internal/calendar"
	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// OverviewService fetches the daily status and the badge status for one
// challenge day in parallel.
type OverviewService struct {
	daily  *DailyService
	badges *BadgeService
	logger zerolog.Logger
}

func NewOverviewService(daily *DailyService, badges *BadgeService, logger zerolog.Logger) *OverviewService {
	return &OverviewService{daily: daily, badges: badges, logger: logger}
}

func (s *OverviewService) Fetch(ctx context.Context, remote *config.Remote, challengeKey string) (domain.DailyOverview, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := calendar.Validate(challengeKey); err != nil {
		return domain.DailyOverview{}, err
	}
	// resolved once so both calls share a single device identity
	rc, deviceID, err := s.daily.identity(remote)
	if err != nil {
		return domain.DailyOverview{}, err
	}

	var overview domain.DailyOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := s.daily.status(gctx, rc, deviceID, challengeKey)
		if err != nil {
			return err
		}
		overview.Status = status
		return nil
	})
	g.Go(func() error {
		badges, err := s.badges.status(gctx, rc, deviceID, challengeKey)
		if err != nil {
			return err
		}
		overview.Badges = badges
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("challenge_key", challengeKey).Msg("failed to build daily overview")
		return domain.DailyOverview{}, err
	}
	return overview, nil
}
