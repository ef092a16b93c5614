package service

import (
	"context"
	"fmt"

	"leaderboard-sync/internal/calendar"
	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/metrics"
	"leaderboard-sync/internal/registry"
	"leaderboard-sync/internal/scorecache"
	"leaderboard-sync/internal/validation"

	"github.com/rs/zerolog"
)

type SyncOutcome string

const (
	SyncBoth         SyncOutcome = "synced"
	SyncLocalOnly    SyncOutcome = "local_only"
	SyncRemoteFailed SyncOutcome = "remote_failed"
	SyncLocalFailed  SyncOutcome = "local_failed"
)

// SyncResult reports the two phases of a classic submission separately.
// A remote failure never undoes the local commit.
type SyncResult struct {
	Entry         domain.ScoreEntry
	LocalErr      error
	RemoteErr     error
	RemoteSkipped bool
}

func (r SyncResult) Outcome() SyncOutcome {
	switch {
	case r.LocalErr != nil:
		return SyncLocalFailed
	case r.RemoteSkipped:
		return SyncLocalOnly
	case r.RemoteErr != nil:
		return SyncRemoteFailed
	default:
		return SyncBoth
	}
}

type ScoreService struct {
	registry Registry
	cache    ScoreCache
	device   DeviceStore
	metrics  *metrics.Recorder
	logger   zerolog.Logger
}

func NewScoreService(reg Registry, cache ScoreCache, dev DeviceStore, recorder *metrics.Recorder, logger zerolog.Logger) *ScoreService {
	return &ScoreService{
		registry: reg,
		cache:    cache,
		device:   dev,
		metrics:  recorder,
		logger:   logger.With().Str("component", "scores").Logger(),
	}
}

// NormalizeLimit defaults an unset limit and clamps the rest to [1, MaxTopLimit].
func NormalizeLimit(limit int) int {
	switch {
	case limit == 0:
		return constants.DefaultTopLimit
	case limit < 1:
		return 1
	case limit > constants.MaxTopLimit:
		return constants.MaxTopLimit
	default:
		return limit
	}
}

// IsBetterScore reports whether candidate beats current: higher score, or the
// same score at a higher level.
func IsBetterScore(candidate, current domain.ScoreEntry) bool {
	if candidate.Score != current.Score {
		return candidate.Score > current.Score
	}
	return candidate.Level > current.Level
}

// FetchScores returns the classic top list. With a remote it refreshes the
// cache from the registry; without one, or when the registry fails, it serves
// the cache.
func (s *ScoreService) FetchScores(ctx context.Context, remote *config.Remote, limit int) ([]domain.ScoreEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	limit = NormalizeLimit(limit)
	if remote == nil {
		s.logger.Debug().Int("limit", limit).Msg("registry not configured, reading cache")
		return s.cachedTop(limit)
	}

	deviceID, err := s.device.GetOrCreate()
	if err != nil {
		s.logger.Warn().Err(err).Msg("device identity unavailable, isMe will not be marked")
	}

	remoteScores, err := s.registry.FetchScores(ctx, *remote, registry.ScoreQuery{
		Mode:  domain.ModeClassic,
		Limit: limit,
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("limit", limit).Msg("registry fetch failed, serving cached scores")
		s.metrics.RecordCacheFallback()
		return s.cachedTop(limit)
	}

	entries := markOwned(remoteScores, deviceID)
	if _, err := s.cache.MergeAndWrite(entries); err != nil {
		s.logger.Warn().Err(err).Msg("failed to merge remote scores into cache")
	}

	s.logger.Debug().Int("count", len(entries)).Msg("remote scores fetched")
	return entries, nil
}

// FetchDailyScores returns the leaderboard for one challenge day. It has no
// offline mode and is not cached.
func (s *ScoreService) FetchDailyScores(ctx context.Context, remote *config.Remote, challengeKey string, limit int) ([]domain.ScoreEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := calendar.Validate(challengeKey); err != nil {
		return nil, err
	}
	if remote == nil {
		return nil, domain.ErrConfigurationRequired
	}

	deviceID, err := s.device.GetOrCreate()
	if err != nil {
		s.logger.Warn().Err(err).Msg("device identity unavailable, isMe will not be marked")
	}

	remoteScores, err := s.registry.FetchScores(ctx, *remote, registry.ScoreQuery{
		Mode:         domain.ModeDaily,
		ChallengeKey: challengeKey,
		Limit:        NormalizeLimit(limit),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("challenge_key", challengeKey).Msg("failed to fetch daily scores")
		return nil, fmt.Errorf("failed to fetch daily scores: %w", err)
	}
	return markOwned(remoteScores, deviceID), nil
}

// SubmitScore commits a classic score to the cache, then syncs it to the
// registry as a separate step. Only validation failures are returned as err.
func (s *ScoreService) SubmitScore(ctx context.Context, remote *config.Remote, entry domain.ScoreEntry) (SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	sanitized, err := validation.SanitizeEntry(entry)
	if err != nil {
		return SyncResult{}, err
	}

	local := sanitized
	local.IsMe = true
	result := SyncResult{Entry: local}

	if _, err := s.cache.MergeAndWrite([]domain.ScoreEntry{local}); err != nil {
		s.logger.Error().Err(err).Msg("failed to write score to cache")
		result.LocalErr = err
	}

	if remote == nil {
		result.RemoteSkipped = true
		return result, nil
	}

	deviceID, err := s.device.GetOrCreate()
	if err != nil {
		result.RemoteErr = fmt.Errorf("failed to resolve device identity: %w", err)
		s.logger.Warn().Err(err).Msg("classic sync skipped, no device identity")
		return result, nil
	}

	if err := s.syncClassic(ctx, *remote, deviceID, sanitized); err != nil {
		result.RemoteErr = err
		s.logger.Warn().Err(err).Str("device_id", deviceID).Msg("classic score sync failed, kept locally")
	}
	return result, nil
}

// syncClassic upserts the device's single classic row, only replacing it
// with a strictly better score.
func (s *ScoreService) syncClassic(ctx context.Context, remote config.Remote, deviceID string, entry domain.ScoreEntry) error {
	existing, err := s.registry.FetchDeviceScore(ctx, remote, deviceID)
	if err != nil {
		return fmt.Errorf("failed to look up device score: %w", err)
	}

	payload := registry.NewScorePayload(entry, deviceID)
	if existing == nil {
		if err := s.registry.InsertScore(ctx, remote, payload); err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}
		s.logger.Info().Str("device_id", deviceID).Int64("score", entry.Score).Msg("classic score inserted")
		return nil
	}

	if !IsBetterScore(entry, *existing) {
		s.logger.Debug().
			Int64("score", entry.Score).
			Int64("best", existing.Score).
			Msg("remote score already at least as good, not updating")
		return nil
	}

	if err := s.registry.UpdateScore(ctx, remote, payload); err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	s.logger.Info().Str("device_id", deviceID).Int64("score", entry.Score).Msg("classic score updated")
	return nil
}

func (s *ScoreService) cachedTop(limit int) ([]domain.ScoreEntry, error) {
	entries, err := s.cache.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read score cache: %w", err)
	}
	return scorecache.Top(entries, limit), nil
}

func markOwned(scores []domain.RemoteScore, deviceID string) []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(scores))
	for _, sc := range scores {
		e := sc.Entry
		e.IsMe = deviceID != "" && sc.OwnerID == deviceID
		entries = append(entries, e)
	}
	return entries
}
