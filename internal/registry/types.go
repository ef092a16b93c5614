package registry

import (
	"strings"

	"leaderboard-sync/internal/domain"
)

type ScoreQuery struct {
	Mode         domain.Mode
	ChallengeKey string
	Limit        int
}

type scoreRow struct {
	PlayerName string              `json:"player_name"`
	Score      int64               `json:"score"`
	Level      int64               `json:"level"`
	CreatedAt  string              `json:"created_at"`
	SkillUsage []domain.SkillUsage `json:"skill_usage"`
	ClientUUID string              `json:"client_uuid"`
}

func (r scoreRow) toRemote() domain.RemoteScore {
	usage := r.SkillUsage
	if usage == nil {
		usage = []domain.SkillUsage{}
	}
	return domain.RemoteScore{
		Entry: domain.ScoreEntry{
			User:       r.PlayerName,
			Score:      r.Score,
			Level:      r.Level,
			Date:       r.CreatedAt,
			SkillUsage: usage,
		},
		OwnerID: strings.TrimSpace(r.ClientUUID),
	}
}

// ScorePayload is the row written for a classic score.
type ScorePayload struct {
	PlayerName string              `json:"player_name"`
	Score      int64               `json:"score"`
	Level      int64               `json:"level"`
	CreatedAt  string              `json:"created_at"`
	ClientUUID string              `json:"client_uuid"`
	SkillUsage []domain.SkillUsage `json:"skill_usage"`
	Mode       domain.Mode         `json:"mode"`
}

func NewScorePayload(entry domain.ScoreEntry, deviceID string) ScorePayload {
	usage := entry.SkillUsage
	if usage == nil {
		usage = []domain.SkillUsage{}
	}
	return ScorePayload{
		PlayerName: entry.User,
		Score:      entry.Score,
		Level:      entry.Level,
		CreatedAt:  entry.Date,
		ClientUUID: deviceID,
		SkillUsage: usage,
		Mode:       domain.ModeClassic,
	}
}

type attemptParams struct {
	DeviceID     string `json:"p_device_id"`
	ChallengeKey string `json:"p_challenge_key"`
	AttemptToken string `json:"p_attempt_token,omitempty"`
}

// AttemptResponse is the row returned by the attempt procedures.
type AttemptResponse struct {
	Accepted         bool    `json:"accepted"`
	Resumed          bool    `json:"resumed"`
	Forfeited        *bool   `json:"forfeited"`
	AttemptToken     *string `json:"attempt_token"`
	AttemptsUsed     *int    `json:"attempts_used"`
	AttemptsLeft     int     `json:"attempts_left"`
	HasActiveAttempt bool    `json:"has_active_attempt"`
}

// confirmed reports whether the row carries the registry's attempt count.
func (r AttemptResponse) confirmed() bool { return r.AttemptsUsed != nil }

func (r AttemptResponse) Counters() domain.AttemptCounters {
	return domain.AttemptCounters{
		AttemptsUsed:     derefInt(r.AttemptsUsed),
		HasActiveAttempt: r.HasActiveAttempt,
		AttemptToken:     deref(r.AttemptToken),
	}
}

type SubmitEntry struct {
	PlayerName string              `json:"playerName"`
	Score      int64               `json:"score"`
	Level      int64               `json:"level"`
	CreatedAt  string              `json:"createdAt"`
	SkillUsage []domain.SkillUsage `json:"skillUsage"`
}

// SubmitRequest is the body posted to the score submission function.
type SubmitRequest struct {
	Mode         domain.Mode             `json:"mode"`
	ChallengeKey string                  `json:"challengeKey"`
	AttemptToken string                  `json:"attemptToken"`
	DeviceID     string                  `json:"deviceId"`
	Entry        SubmitEntry             `json:"entry"`
	ReplayProof  domain.DailyReplayProof `json:"replayProof"`
}

func NewDailySubmitRequest(challengeKey, attemptToken, deviceID string, entry domain.ScoreEntry, proof domain.DailyReplayProof) SubmitRequest {
	usage := entry.SkillUsage
	if usage == nil {
		usage = []domain.SkillUsage{}
	}
	return SubmitRequest{
		Mode:         domain.ModeDaily,
		ChallengeKey: challengeKey,
		AttemptToken: attemptToken,
		DeviceID:     deviceID,
		Entry: SubmitEntry{
			PlayerName: entry.User,
			Score:      entry.Score,
			Level:      entry.Level,
			CreatedAt:  entry.Date,
			SkillUsage: usage,
		},
		ReplayProof: proof,
	}
}

type SubmitResponse struct {
	Accepted         bool    `json:"accepted"`
	Improved         bool    `json:"improved"`
	Reason           string  `json:"reason"`
	AttemptToken     *string `json:"attemptToken"`
	AttemptsUsed     *int    `json:"attemptsUsed"`
	AttemptsLeft     int     `json:"attemptsLeft"`
	HasActiveAttempt bool    `json:"hasActiveAttempt"`
}

func (r SubmitResponse) confirmed() bool { return r.AttemptsUsed != nil }

func (r SubmitResponse) Counters() domain.AttemptCounters {
	return domain.AttemptCounters{
		AttemptsUsed:     derefInt(r.AttemptsUsed),
		HasActiveAttempt: r.HasActiveAttempt,
		AttemptToken:     deref(r.AttemptToken),
	}
}

type completionRow struct {
	ChallengeKey string `json:"challenge_key"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
