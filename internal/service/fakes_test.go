package service

import (
	"context"
	"errors"
	"sync"

	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/registry"
)

var testRemote = &config.Remote{URL: "http://registry.test", APIKey: "anon-key"}

const testDevice = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

type fakeRegistry struct {
	mu sync.Mutex

	scores      []domain.RemoteScore
	scoresErr   error
	deviceScore *domain.ScoreEntry
	deviceErr   error
	writeErr    error
	attempt     *registry.AttemptResponse
	attemptErr  error
	submit      *registry.SubmitResponse
	submitErr   error
	completed   []string
	listErr     error

	queries  []registry.ScoreQuery
	inserted []registry.ScorePayload
	updated  []registry.ScorePayload
	submits  []registry.SubmitRequest
	calls    []string
}

func (f *fakeRegistry) called(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeRegistry) FetchScores(_ context.Context, _ config.Remote, q registry.ScoreQuery) ([]domain.RemoteScore, error) {
	f.called("fetch_scores")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.scores, f.scoresErr
}

func (f *fakeRegistry) FetchDeviceScore(context.Context, config.Remote, string) (*domain.ScoreEntry, error) {
	f.called("fetch_device_score")
	return f.deviceScore, f.deviceErr
}

func (f *fakeRegistry) InsertScore(_ context.Context, _ config.Remote, p registry.ScorePayload) error {
	f.called("insert_score")
	f.inserted = append(f.inserted, p)
	return f.writeErr
}

func (f *fakeRegistry) UpdateScore(_ context.Context, _ config.Remote, p registry.ScorePayload) error {
	f.called("update_score")
	f.updated = append(f.updated, p)
	return f.writeErr
}

func (f *fakeRegistry) StartDailyAttempt(context.Context, config.Remote, string, string) (*registry.AttemptResponse, error) {
	f.called("start_daily_attempt")
	return f.attempt, f.attemptErr
}

func (f *fakeRegistry) FetchDailyStatus(context.Context, config.Remote, string, string) (*registry.AttemptResponse, error) {
	f.called("get_daily_status")
	return f.attempt, f.attemptErr
}

func (f *fakeRegistry) ForfeitDailyAttempt(context.Context, config.Remote, string, string, string) (*registry.AttemptResponse, error) {
	f.called("forfeit_daily_attempt")
	return f.attempt, f.attemptErr
}

func (f *fakeRegistry) SubmitScore(_ context.Context, _ config.Remote, body registry.SubmitRequest) (*registry.SubmitResponse, error) {
	f.called("submit_score")
	f.submits = append(f.submits, body)
	return f.submit, f.submitErr
}

func (f *fakeRegistry) ListCompletedKeys(context.Context, config.Remote, string) ([]string, error) {
	f.called("list_completions")
	return f.completed, f.listErr
}

type fakeDevice struct {
	id  string
	err error
}

func (d *fakeDevice) Read() string { return d.id }

func (d *fakeDevice) GetOrCreate() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return d.id, nil
}

type fakeCache struct {
	entries  []domain.ScoreEntry
	writeErr error
	merged   [][]domain.ScoreEntry
}

func (c *fakeCache) Read() ([]domain.ScoreEntry, error) {
	return c.entries, nil
}

func (c *fakeCache) MergeAndWrite(incoming []domain.ScoreEntry) ([]domain.ScoreEntry, error) {
	c.merged = append(c.merged, incoming)
	if c.writeErr != nil {
		return nil, c.writeErr
	}
	c.entries = append(c.entries, incoming...)
	return c.entries, nil
}

type fakeJournal struct {
	mu      sync.Mutex
	records []domain.AttemptRecord
	err     error
}

func (j *fakeJournal) Record(_ context.Context, rec domain.AttemptRecord) (domain.AttemptRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return rec, j.err
	}
	j.records = append(j.records, rec)
	return rec, nil
}

func (j *fakeJournal) List(_ context.Context, deviceID, challengeKey string, _ int) ([]domain.AttemptRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := []domain.AttemptRecord{}
	for _, rec := range j.records {
		if rec.DeviceID == deviceID && (challengeKey == "" || rec.ChallengeKey == challengeKey) {
			out = append(out, rec)
		}
	}
	return out, nil
}

var errTransport = &registry.Error{Op: "test", Err: errors.New("connection refused")}

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }
