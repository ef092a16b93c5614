package domain

import (
	"time"
)

type Mode string

const (
	ModeClassic Mode = "classic"
	ModeDaily   Mode = "daily"
)

type SkillUsage struct {
	Name    string  `json:"name"`
	Hotkey  *string `json:"hotkey"`
	Command *string `json:"command"`
}

type ScoreEntry struct {
	User       string       `json:"user"`
	Score      int64        `json:"score"`
	Level      int64        `json:"level"`
	Date       string       `json:"date"`
	SkillUsage []SkillUsage `json:"skillUsage"`

	// local annotation, set only for entries owned by this device
	IsMe bool `json:"isMe"`
}

// RemoteScore is a score row as returned by the registry.
type RemoteScore struct {
	Entry   ScoreEntry
	OwnerID string
}

type ReplayInputEvent struct {
	Time int64  `json:"time"`
	Move string `json:"move"`
}

type DailyReplayProof struct {
	Version    int                `json:"version"`
	Difficulty int                `json:"difficulty"`
	Seed       uint32             `json:"seed"`
	FinalTime  int64              `json:"finalTime"`
	FinalScore int64              `json:"finalScore"`
	FinalLevel int64              `json:"finalLevel"`
	Inputs     []ReplayInputEvent `json:"inputs"`
}

type DailyStatus struct {
	ChallengeKey     string       `json:"challengeKey"`
	AttemptsUsed     int          `json:"attemptsUsed"`
	AttemptsLeft     int          `json:"attemptsLeft"`
	MaxAttempts      int          `json:"maxAttempts"`
	CanSubmit        bool         `json:"canSubmit"`
	HasActiveAttempt bool         `json:"hasActiveAttempt"`
	AttemptToken     string       `json:"attemptToken,omitempty"`
	State            AttemptState `json:"state"`
}

type DailyAttemptStartResult struct {
	DailyStatus
	Accepted bool `json:"accepted"`
	Resumed  bool `json:"resumed"`
}

type DailySubmitResult struct {
	DailyStatus
	Accepted bool   `json:"accepted"`
	Improved bool   `json:"improved"`
	Reason   string `json:"reason,omitempty"`
}

type DailyForfeitResult struct {
	DailyStatus
	Forfeited bool `json:"forfeited"`
}

type DailyBadgeStatus struct {
	CurrentStreak     int  `json:"currentStreak"`
	MaxStreak         int  `json:"maxStreak"`
	HighestBadgePower *int `json:"highestBadgePower,omitempty"`
	HighestBadgeDays  *int `json:"highestBadgeDays,omitempty"`
	NextBadgePower    *int `json:"nextBadgePower,omitempty"`
	NextBadgeDays     *int `json:"nextBadgeDays,omitempty"`
	DaysToNextBadge   *int `json:"daysToNextBadge,omitempty"`
}

type DailyOverview struct {
	Status DailyStatus      `json:"status"`
	Badges DailyBadgeStatus `json:"badges"`
}

type AttemptAction string

const (
	ActionStatus  AttemptAction = "status"
	ActionStart   AttemptAction = "start"
	ActionSubmit  AttemptAction = "submit"
	ActionForfeit AttemptAction = "forfeit"
)

// AttemptRecord is a journaled registry response for a daily transition.
type AttemptRecord struct {
	ID               string        `json:"id"` // nanoid
	DeviceID         string        `json:"deviceId"`
	ChallengeKey     string        `json:"challengeKey"`
	Action           AttemptAction `json:"action"`
	AttemptsUsed     int           `json:"attemptsUsed"`
	AttemptsLeft     int           `json:"attemptsLeft"`
	HasActiveAttempt bool          `json:"hasActiveAttempt"`
	Accepted         bool          `json:"accepted"`
	Resumed          bool          `json:"resumed"`
	Improved         bool          `json:"improved"`
	Reason           string        `json:"reason,omitempty"`
	ProofDigest      string        `json:"proofDigest,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}
