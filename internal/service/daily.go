package service

import (
	"context"
	"fmt"
	"strings"

	"leaderboard-sync/internal/calendar"
	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/registry"
	"leaderboard-sync/internal/validation"

	"github.com/rs/zerolog"
)

// DailyService drives the daily attempt lifecycle. Counters and tokens are
// owned by the registry; every result is rebuilt from its latest response.
type DailyService struct {
	registry Registry
	device   DeviceStore
	journal  Journal
	logger   zerolog.Logger
}

func NewDailyService(reg Registry, dev DeviceStore, journal Journal, logger zerolog.Logger) *DailyService {
	return &DailyService{
		registry: reg,
		device:   dev,
		journal:  journal,
		logger:   logger.With().Str("component", "daily").Logger(),
	}
}

func (s *DailyService) Status(ctx context.Context, remote *config.Remote, challengeKey string) (domain.DailyStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := calendar.Validate(challengeKey); err != nil {
		return domain.DailyStatus{}, err
	}
	rc, deviceID, err := s.identity(remote)
	if err != nil {
		return domain.DailyStatus{}, err
	}
	return s.status(ctx, rc, deviceID, challengeKey)
}

func (s *DailyService) status(ctx context.Context, rc config.Remote, deviceID, challengeKey string) (domain.DailyStatus, error) {
	resp, err := s.registry.FetchDailyStatus(ctx, rc, deviceID, challengeKey)
	if err != nil {
		s.logger.Error().Err(err).Str("challenge_key", challengeKey).Msg("failed to fetch daily status")
		return domain.DailyStatus{}, fmt.Errorf("failed to fetch daily status: %w", err)
	}

	status := domain.DeriveAttemptState(challengeKey, resp.Counters())
	s.record(ctx, newRecord(deviceID, domain.ActionStatus, status))
	return status, nil
}

func (s *DailyService) Start(ctx context.Context, remote *config.Remote, challengeKey string) (domain.DailyAttemptStartResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := calendar.Validate(challengeKey); err != nil {
		return domain.DailyAttemptStartResult{}, err
	}
	rc, deviceID, err := s.identity(remote)
	if err != nil {
		return domain.DailyAttemptStartResult{}, err
	}

	resp, err := s.registry.StartDailyAttempt(ctx, rc, deviceID, challengeKey)
	if err != nil {
		s.logger.Error().Err(err).Str("challenge_key", challengeKey).Msg("failed to start daily attempt")
		return domain.DailyAttemptStartResult{}, fmt.Errorf("failed to start daily attempt: %w", err)
	}

	result := domain.DailyAttemptStartResult{
		DailyStatus: domain.DeriveAttemptState(challengeKey, resp.Counters()),
		Accepted:    resp.Accepted,
		Resumed:     resp.Resumed,
	}

	rec := newRecord(deviceID, domain.ActionStart, result.DailyStatus)
	rec.Accepted = result.Accepted
	rec.Resumed = result.Resumed
	s.record(ctx, rec)

	s.logger.Info().
		Str("challenge_key", challengeKey).
		Bool("accepted", result.Accepted).
		Bool("resumed", result.Resumed).
		Int("attempts_left", result.AttemptsLeft).
		Msg("daily attempt started")
	return result, nil
}

// Submit validates everything locally before the registry sees it. Whether
// attempts remain is left to the registry.
func (s *DailyService) Submit(ctx context.Context, remote *config.Remote, challengeKey, attemptToken string, entry domain.ScoreEntry, proof domain.DailyReplayProof) (domain.DailySubmitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := calendar.Validate(challengeKey); err != nil {
		return domain.DailySubmitResult{}, err
	}
	token, err := requireToken(attemptToken)
	if err != nil {
		return domain.DailySubmitResult{}, err
	}
	sanitized, err := validation.SanitizeEntry(entry)
	if err != nil {
		return domain.DailySubmitResult{}, err
	}
	cleanProof, err := validation.SanitizeReplayProof(proof)
	if err != nil {
		return domain.DailySubmitResult{}, err
	}
	rc, deviceID, err := s.identity(remote)
	if err != nil {
		return domain.DailySubmitResult{}, err
	}

	resp, err := s.registry.SubmitScore(ctx, rc, registry.NewDailySubmitRequest(challengeKey, token, deviceID, sanitized, cleanProof))
	if err != nil {
		event := s.logger.Error().Err(err).Str("challenge_key", challengeKey)
		if rErr, ok := registry.AsError(err); ok && rErr.Reason != "" {
			event = event.Str("reason", rErr.Reason)
		}
		event.Msg("daily submission failed")
		return domain.DailySubmitResult{}, fmt.Errorf("failed to submit daily score: %w", err)
	}

	result := domain.DailySubmitResult{
		DailyStatus: domain.DeriveAttemptState(challengeKey, resp.Counters()),
		Accepted:    resp.Accepted,
		Improved:    resp.Improved,
		Reason:      strings.TrimSpace(resp.Reason),
	}

	rec := newRecord(deviceID, domain.ActionSubmit, result.DailyStatus)
	rec.Accepted = result.Accepted
	rec.Improved = result.Improved
	rec.Reason = result.Reason
	rec.ProofDigest = validation.ReplayDigest(cleanProof)
	s.record(ctx, rec)

	s.logger.Info().
		Str("challenge_key", challengeKey).
		Bool("accepted", result.Accepted).
		Bool("improved", result.Improved).
		Int64("score", sanitized.Score).
		Msg("daily score submitted")
	return result, nil
}

func (s *DailyService) Forfeit(ctx context.Context, remote *config.Remote, challengeKey, attemptToken string) (domain.DailyForfeitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := calendar.Validate(challengeKey); err != nil {
		return domain.DailyForfeitResult{}, err
	}
	token, err := requireToken(attemptToken)
	if err != nil {
		return domain.DailyForfeitResult{}, err
	}
	rc, deviceID, err := s.identity(remote)
	if err != nil {
		return domain.DailyForfeitResult{}, err
	}

	resp, err := s.registry.ForfeitDailyAttempt(ctx, rc, deviceID, challengeKey, token)
	if err != nil {
		s.logger.Error().Err(err).Str("challenge_key", challengeKey).Msg("failed to forfeit daily attempt")
		return domain.DailyForfeitResult{}, fmt.Errorf("failed to forfeit daily attempt: %w", err)
	}

	result := domain.DailyForfeitResult{
		DailyStatus: domain.DeriveAttemptState(challengeKey, resp.Counters()),
		// a successful call without an explicit flag released the attempt
		Forfeited: resp.Forfeited == nil || *resp.Forfeited,
	}

	rec := newRecord(deviceID, domain.ActionForfeit, result.DailyStatus)
	rec.Accepted = result.Forfeited
	s.record(ctx, rec)

	s.logger.Info().Str("challenge_key", challengeKey).Bool("forfeited", result.Forfeited).Msg("daily attempt forfeited")
	return result, nil
}

// History lists journaled transitions for this device, newest first. An empty
// challengeKey lists every day.
func (s *DailyService) History(ctx context.Context, challengeKey string, limit int) ([]domain.AttemptRecord, error) {
	if challengeKey != "" {
		if err := calendar.Validate(challengeKey); err != nil {
			return nil, err
		}
	}

	deviceID := s.device.Read()
	if deviceID == "" || s.journal == nil {
		return []domain.AttemptRecord{}, nil
	}

	records, err := s.journal.List(ctx, deviceID, challengeKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read attempt history: %w", err)
	}
	return records, nil
}

// identity resolves the remote and device for a daily call. Daily features
// have no offline mode.
func (s *DailyService) identity(remote *config.Remote) (config.Remote, string, error) {
	if remote == nil {
		return config.Remote{}, "", domain.ErrConfigurationRequired
	}
	deviceID, err := s.device.GetOrCreate()
	if err != nil {
		return config.Remote{}, "", fmt.Errorf("failed to resolve device identity: %w", err)
	}
	return *remote, deviceID, nil
}

func (s *DailyService) record(ctx context.Context, rec domain.AttemptRecord) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(ctx, rec); err != nil {
		s.logger.Warn().
			Err(err).
			Str("challenge_key", rec.ChallengeKey).
			Str("action", string(rec.Action)).
			Msg("failed to journal attempt")
	}
}

func requireToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.NewValidationError(domain.CodeMissingAttemptToken, "attempt token is required")
	}
	return token, nil
}

func newRecord(deviceID string, action domain.AttemptAction, status domain.DailyStatus) domain.AttemptRecord {
	return domain.AttemptRecord{
		DeviceID:         deviceID,
		ChallengeKey:     status.ChallengeKey,
		Action:           action,
		AttemptsUsed:     status.AttemptsUsed,
		AttemptsLeft:     status.AttemptsLeft,
		HasActiveAttempt: status.HasActiveAttempt,
	}
}
