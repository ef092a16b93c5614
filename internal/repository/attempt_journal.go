package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// AttemptJournal keeps a local log of registry-confirmed daily transitions.
// It is never read back to derive attempt state.
type AttemptJournal struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

func NewAttemptJournal(sqlDB *sql.DB, logger zerolog.Logger) *AttemptJournal {
	return &AttemptJournal{
		db:     sqlDB,
		logger: logger.With().Str("component", "journal").Logger(),
		now:    time.Now,
	}
}

const insertAttempt = `
INSERT INTO attempt_journal (
	id, device_id, challenge_key, action,
	attempts_used, attempts_left, has_active_attempt,
	accepted, resumed, improved, reason, proof_digest, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectAttempts = `
SELECT id, device_id, challenge_key, action,
	attempts_used, attempts_left, has_active_attempt,
	accepted, resumed, improved, reason, proof_digest, created_at
FROM attempt_journal
WHERE device_id = ? AND (? = '' OR challenge_key = ?)
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

// Record assigns an ID and timestamp when missing and stores the record.
func (j *AttemptJournal) Record(ctx context.Context, rec domain.AttemptRecord) (domain.AttemptRecord, error) {
	if rec.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return rec, fmt.Errorf("failed to generate nanoid: %w", err)
		}
		rec.ID = id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = j.now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	_, err := j.db.ExecContext(ctx, insertAttempt,
		rec.ID,
		rec.DeviceID,
		rec.ChallengeKey,
		string(rec.Action),
		rec.AttemptsUsed,
		rec.AttemptsLeft,
		rec.HasActiveAttempt,
		rec.Accepted,
		rec.Resumed,
		rec.Improved,
		rec.Reason,
		rec.ProofDigest,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return rec, fmt.Errorf("failed to insert attempt record: %w", err)
	}

	j.logger.Debug().
		Str("id", rec.ID).
		Str("challenge_key", rec.ChallengeKey).
		Str("action", string(rec.Action)).
		Msg("attempt recorded")
	return rec, nil
}

// List returns the newest records for a device, optionally narrowed to one challenge key.
func (j *AttemptJournal) List(ctx context.Context, deviceID, challengeKey string, limit int) ([]domain.AttemptRecord, error) {
	if limit <= 0 || limit > constants.HistoryLimit {
		limit = constants.HistoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx, selectAttempts, deviceID, challengeKey, challengeKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempt records: %w", err)
	}
	defer rows.Close()

	records := []domain.AttemptRecord{}
	for rows.Next() {
		var (
			rec       domain.AttemptRecord
			action    string
			createdAt int64
		)
		err := rows.Scan(
			&rec.ID,
			&rec.DeviceID,
			&rec.ChallengeKey,
			&action,
			&rec.AttemptsUsed,
			&rec.AttemptsLeft,
			&rec.HasActiveAttempt,
			&rec.Accepted,
			&rec.Resumed,
			&rec.Improved,
			&rec.Reason,
			&rec.ProofDigest,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt record: %w", err)
		}
		rec.Action = domain.AttemptAction(action)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attempt records: %w", err)
	}
	return records, nil
}
