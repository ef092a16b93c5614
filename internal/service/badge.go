package service

import (
	"context"
	"fmt"
	"time"

	"leaderboard-sync/internal/calendar"
	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/streak"

	"github.com/rs/zerolog"
)

type BadgeService struct {
	registry Registry
	device   DeviceStore
	now      func() time.Time
	logger   zerolog.Logger
}

func NewBadgeService(reg Registry, dev DeviceStore, logger zerolog.Logger) *BadgeService {
	return &BadgeService{
		registry: reg,
		device:   dev,
		now:      time.Now,
		logger:   logger.With().Str("component", "badges").Logger(),
	}
}

// FetchStatus computes streaks from the registry's accepted completions.
// An empty today means the current UTC day.
func (s *BadgeService) FetchStatus(ctx context.Context, remote *config.Remote, today string) (domain.DailyBadgeStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if today == "" {
		today = calendar.KeyFor(s.now())
	}
	if err := calendar.Validate(today); err != nil {
		return domain.DailyBadgeStatus{}, err
	}
	if remote == nil {
		return domain.DailyBadgeStatus{}, domain.ErrConfigurationRequired
	}
	deviceID, err := s.device.GetOrCreate()
	if err != nil {
		return domain.DailyBadgeStatus{}, fmt.Errorf("failed to resolve device identity: %w", err)
	}
	return s.status(ctx, *remote, deviceID, today)
}

func (s *BadgeService) status(ctx context.Context, rc config.Remote, deviceID, today string) (domain.DailyBadgeStatus, error) {
	keys, err := s.registry.ListCompletedKeys(ctx, rc, deviceID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list completed challenges")
		return domain.DailyBadgeStatus{}, fmt.Errorf("failed to list completed challenges: %w", err)
	}

	status, err := streak.Compute(keys, today)
	if err != nil {
		return domain.DailyBadgeStatus{}, err
	}

	s.logger.Debug().
		Int("completions", len(keys)).
		Int("current_streak", status.CurrentStreak).
		Int("max_streak", status.MaxStreak).
		Msg("badge status computed")
	return status, nil
}
