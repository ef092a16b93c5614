package service

import (
	"context"

	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/device"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/registry"
	"leaderboard-sync/internal/repository"
	"leaderboard-sync/internal/scorecache"
)

// Registry is the subset of the registry client the services rely on.
type Registry interface {
	FetchScores(ctx context.Context, remote config.Remote, q registry.ScoreQuery) ([]domain.RemoteScore, error)
	FetchDeviceScore(ctx context.Context, remote config.Remote, deviceID string) (*domain.ScoreEntry, error)
	InsertScore(ctx context.Context, remote config.Remote, payload registry.ScorePayload) error
	UpdateScore(ctx context.Context, remote config.Remote, payload registry.ScorePayload) error
	StartDailyAttempt(ctx context.Context, remote config.Remote, deviceID, challengeKey string) (*registry.AttemptResponse, error)
	FetchDailyStatus(ctx context.Context, remote config.Remote, deviceID, challengeKey string) (*registry.AttemptResponse, error)
	ForfeitDailyAttempt(ctx context.Context, remote config.Remote, deviceID, challengeKey, attemptToken string) (*registry.AttemptResponse, error)
	SubmitScore(ctx context.Context, remote config.Remote, body registry.SubmitRequest) (*registry.SubmitResponse, error)
	ListCompletedKeys(ctx context.Context, remote config.Remote, deviceID string) ([]string, error)
}

type DeviceStore interface {
	Read() string
	GetOrCreate() (string, error)
}

type ScoreCache interface {
	Read() ([]domain.ScoreEntry, error)
	MergeAndWrite(incoming []domain.ScoreEntry) ([]domain.ScoreEntry, error)
}

type Journal interface {
	Record(ctx context.Context, rec domain.AttemptRecord) (domain.AttemptRecord, error)
	List(ctx context.Context, deviceID, challengeKey string, limit int) ([]domain.AttemptRecord, error)
}

var (
	_ Registry    = (*registry.Client)(nil)
	_ DeviceStore = (*device.Store)(nil)
	_ ScoreCache  = (*scorecache.Store)(nil)
	_ Journal     = (*repository.AttemptJournal)(nil)
)
