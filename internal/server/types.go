package server

import (
	"encoding/json"

	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/service"
)

// RemoteConfig carries per-request registry settings. Either field empty
// falls back to the server configuration.
type RemoteConfig struct {
	RegistryURL    string `json:"registryUrl,omitempty"`
	RegistryAPIKey string `json:"registryApiKey,omitempty"`
}

type FetchScoresRequest struct {
	RemoteConfig
	Limit int `json:"limit,omitempty"`
}

type ScoresResponse struct {
	Scores []domain.ScoreEntry `json:"scores"`
}

type SubmitScoreRequest struct {
	RemoteConfig
	Entry domain.ScoreEntry `json:"entry"`
}

type SubmitScoreResponse struct {
	Entry       domain.ScoreEntry   `json:"entry"`
	Outcome     service.SyncOutcome `json:"outcome"`
	LocalError  string              `json:"localError,omitempty"`
	RemoteError string              `json:"remoteError,omitempty"`
}

type FetchDailyScoresRequest struct {
	RemoteConfig
	ChallengeKey string `json:"challengeKey"`
	Limit        int    `json:"limit,omitempty"`
}

type DailyRequest struct {
	RemoteConfig
	ChallengeKey string `json:"challengeKey"`
}

type SubmitDailyScoreRequest struct {
	RemoteConfig
	ChallengeKey string            `json:"challengeKey"`
	AttemptToken string            `json:"attemptToken"`
	Entry        domain.ScoreEntry `json:"entry"`
	ReplayProof  json.RawMessage   `json:"replayProof"`
}

type ForfeitDailyAttemptRequest struct {
	RemoteConfig
	ChallengeKey string `json:"challengeKey"`
	AttemptToken string `json:"attemptToken"`
}

type FetchBadgeStatusRequest struct {
	RemoteConfig
	Today string `json:"today,omitempty"`
}

type FetchDailyHistoryRequest struct {
	ChallengeKey string `json:"challengeKey,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type DailyHistoryResponse struct {
	Records []domain.AttemptRecord `json:"records"`
}

type ValidateReplayProofRequest struct {
	ReplayProof json.RawMessage `json:"replayProof"`
}

type ValidateReplayProofResponse struct {
	ReplayProof domain.DailyReplayProof `json:"replayProof"`
	Digest      string                  `json:"digest"`
}
