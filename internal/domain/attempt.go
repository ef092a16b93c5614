package domain

import (
	"strings"

	"leaderboard-sync/internal/constants"
)

type AttemptPhase string

const (
	PhaseIdle      AttemptPhase = "idle"
	PhaseActive    AttemptPhase = "active"
	PhaseExhausted AttemptPhase = "exhausted"
)

// AttemptState is the client view of a daily attempt: Idle, Active(token) or
// Exhausted. It is rebuilt from every registry response and never mutated.
type AttemptState struct {
	Phase AttemptPhase `json:"phase"`
	Token string       `json:"token,omitempty"`
}

func (s AttemptState) IsActive() bool    { return s.Phase == PhaseActive }
func (s AttemptState) IsExhausted() bool { return s.Phase == PhaseExhausted }

// AttemptCounters are the raw numbers reported by the registry.
type AttemptCounters struct {
	AttemptsUsed     int
	HasActiveAttempt bool
	AttemptToken     string
}

func clampAttempts(n int) int {
	if n < 0 {
		return 0
	}
	if n > constants.MaxDailyAttempts {
		return constants.MaxDailyAttempts
	}
	return n
}

// DeriveAttemptState projects registry counters into a DailyStatus.
// attemptsLeft is recomputed from attemptsUsed and both are clamped to
// [0, MaxDailyAttempts]; the registry count stays authoritative.
func DeriveAttemptState(challengeKey string, c AttemptCounters) DailyStatus {
	used := clampAttempts(c.AttemptsUsed)
	left := clampAttempts(constants.MaxDailyAttempts - used)
	token := strings.TrimSpace(c.AttemptToken)

	state := AttemptState{Phase: PhaseIdle}
	switch {
	case token != "":
		state = AttemptState{Phase: PhaseActive, Token: token}
	case used >= constants.MaxDailyAttempts:
		state = AttemptState{Phase: PhaseExhausted}
	}

	return DailyStatus{
		ChallengeKey:     challengeKey,
		AttemptsUsed:     used,
		AttemptsLeft:     left,
		MaxAttempts:      constants.MaxDailyAttempts,
		CanSubmit:        left > 0,
		HasActiveAttempt: c.HasActiveAttempt || token != "",
		AttemptToken:     token,
		State:            state,
	}
}
