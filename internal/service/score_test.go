package service

import (
	"context"
	"errors"
	"testing"

	"leaderboard-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScoreService(reg *fakeRegistry, cache *fakeCache) *ScoreService {
	return NewScoreService(reg, cache, &fakeDevice{id: testDevice}, nil, zerolog.Nop())
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: 10, -5: 1, 1: 1, 50: 50, 100: 100, 101: 100}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeLimit(in), "limit %d", in)
	}
}

func TestIsBetterScore(t *testing.T) {
	cur := domain.ScoreEntry{Score: 100, Level: 3}
	assert.True(t, IsBetterScore(domain.ScoreEntry{Score: 101, Level: 1}, cur))
	assert.True(t, IsBetterScore(domain.ScoreEntry{Score: 100, Level: 4}, cur))
	assert.False(t, IsBetterScore(domain.ScoreEntry{Score: 100, Level: 3}, cur))
	assert.False(t, IsBetterScore(domain.ScoreEntry{Score: 99, Level: 9}, cur))
}

func TestFetchScoresWithoutRemoteReadsCache(t *testing.T) {
	reg := &fakeRegistry{}
	cache := &fakeCache{entries: []domain.ScoreEntry{{User: "a", Score: 3}, {User: "b", Score: 2}, {User: "c", Score: 1}}}

	got, err := newScoreService(reg, cache).FetchScores(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Empty(t, reg.calls)
}

func TestFetchScoresMarksOwnAndMergesCache(t *testing.T) {
	reg := &fakeRegistry{scores: []domain.RemoteScore{
		{Entry: domain.ScoreEntry{User: "me", Score: 50}, OwnerID: testDevice},
		{Entry: domain.ScoreEntry{User: "other", Score: 40}, OwnerID: "someone-else"},
	}}
	cache := &fakeCache{}

	got, err := newScoreService(reg, cache).FetchScores(context.Background(), testRemote, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsMe)
	assert.False(t, got[1].IsMe)

	require.Len(t, reg.queries, 1)
	assert.Equal(t, 10, reg.queries[0].Limit)
	assert.Equal(t, domain.ModeClassic, reg.queries[0].Mode)
	require.Len(t, cache.merged, 1)
	assert.Equal(t, got, cache.merged[0])
}

func TestFetchScoresFallsBackOnTransportFailure(t *testing.T) {
	reg := &fakeRegistry{scoresErr: errTransport}
	cache := &fakeCache{entries: []domain.ScoreEntry{{User: "cached", Score: 1}}}

	got, err := newScoreService(reg, cache).FetchScores(context.Background(), testRemote, 5)
	require.NoError(t, err)
	assert.Equal(t, cache.entries, got)
	assert.Empty(t, cache.merged)
}

func TestFetchDailyScoresRequiresRemote(t *testing.T) {
	_, err := newScoreService(&fakeRegistry{}, &fakeCache{}).FetchDailyScores(context.Background(), nil, "2024-03-01", 10)
	assert.ErrorIs(t, err, domain.ErrConfigurationRequired)
}

func TestFetchDailyScoresValidatesKeyFirst(t *testing.T) {
	_, err := newScoreService(&fakeRegistry{}, &fakeCache{}).FetchDailyScores(context.Background(), nil, "2024-13-01", 10)
	assert.True(t, domain.HasValidationCode(err, domain.CodeInvalidChallengeKey))
}

func TestFetchDailyScoresPropagatesFailure(t *testing.T) {
	reg := &fakeRegistry{scoresErr: errTransport}
	cache := &fakeCache{entries: []domain.ScoreEntry{{User: "cached"}}}

	_, err := newScoreService(reg, cache).FetchDailyScores(context.Background(), testRemote, "2024-03-01", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, errTransport)
}

func TestFetchDailyScoresQuery(t *testing.T) {
	reg := &fakeRegistry{scores: []domain.RemoteScore{{Entry: domain.ScoreEntry{User: "me"}, OwnerID: testDevice}}}

	got, err := newScoreService(reg, &fakeCache{}).FetchDailyScores(context.Background(), testRemote, "2024-03-01", 500)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsMe)
	assert.Equal(t, domain.ModeDaily, reg.queries[0].Mode)
	assert.Equal(t, "2024-03-01", reg.queries[0].ChallengeKey)
	assert.Equal(t, 100, reg.queries[0].Limit)
}

func TestSubmitScoreRejectsEmptyName(t *testing.T) {
	reg := &fakeRegistry{}
	cache := &fakeCache{}

	_, err := newScoreService(reg, cache).SubmitScore(context.Background(), testRemote, domain.ScoreEntry{User: "   "})
	assert.True(t, domain.HasValidationCode(err, domain.CodeEmptyUserName))
	assert.Empty(t, cache.merged)
	assert.Empty(t, reg.calls)
}

func TestSubmitScoreClampsNegativeLocallyAndRemotely(t *testing.T) {
	reg := &fakeRegistry{}
	cache := &fakeCache{}

	res, err := newScoreService(reg, cache).SubmitScore(context.Background(), testRemote,
		domain.ScoreEntry{User: "Ana", Score: -40, Level: -1, Date: " 2024-03-01 "})
	require.NoError(t, err)
	assert.Equal(t, SyncBoth, res.Outcome())

	require.Len(t, cache.merged, 1)
	assert.Equal(t, int64(0), cache.merged[0][0].Score)
	assert.True(t, cache.merged[0][0].IsMe)

	require.Len(t, reg.inserted, 1)
	assert.Equal(t, int64(0), reg.inserted[0].Score)
	assert.Equal(t, int64(0), reg.inserted[0].Level)
	assert.Equal(t, "2024-03-01", reg.inserted[0].CreatedAt)
	assert.Equal(t, testDevice, reg.inserted[0].ClientUUID)
}

func TestSubmitScoreWithoutRemoteIsLocalOnly(t *testing.T) {
	reg := &fakeRegistry{}

	res, err := newScoreService(reg, &fakeCache{}).SubmitScore(context.Background(), nil, domain.ScoreEntry{User: "Ana", Score: 5})
	require.NoError(t, err)
	assert.Equal(t, SyncLocalOnly, res.Outcome())
	assert.Empty(t, reg.calls)
}

func TestSubmitScoreRemoteFailureKeepsLocal(t *testing.T) {
	reg := &fakeRegistry{deviceErr: errTransport}
	cache := &fakeCache{}

	res, err := newScoreService(reg, cache).SubmitScore(context.Background(), testRemote, domain.ScoreEntry{User: "Ana", Score: 5})
	require.NoError(t, err)
	assert.Equal(t, SyncRemoteFailed, res.Outcome())
	assert.ErrorIs(t, res.RemoteErr, errTransport)
	assert.Len(t, cache.entries, 1)
}

func TestSubmitScoreLocalFailure(t *testing.T) {
	cache := &fakeCache{writeErr: errors.New("disk full")}

	res, err := newScoreService(&fakeRegistry{}, cache).SubmitScore(context.Background(), testRemote, domain.ScoreEntry{User: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, SyncLocalFailed, res.Outcome())
}

func TestSubmitScoreUpdatesOnlyWhenBetter(t *testing.T) {
	tests := []struct {
		name    string
		current domain.ScoreEntry
		entry   domain.ScoreEntry
		updated bool
	}{
		{"higher score", domain.ScoreEntry{Score: 10, Level: 1}, domain.ScoreEntry{User: "a", Score: 11, Level: 1}, true},
		{"same score higher level", domain.ScoreEntry{Score: 10, Level: 1}, domain.ScoreEntry{User: "a", Score: 10, Level: 2}, true},
		{"equal", domain.ScoreEntry{Score: 10, Level: 1}, domain.ScoreEntry{User: "a", Score: 10, Level: 1}, false},
		{"worse", domain.ScoreEntry{Score: 10, Level: 1}, domain.ScoreEntry{User: "a", Score: 3, Level: 9}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := tt.current
			reg := &fakeRegistry{deviceScore: &current}

			res, err := newScoreService(reg, &fakeCache{}).SubmitScore(context.Background(), testRemote, tt.entry)
			require.NoError(t, err)
			assert.Equal(t, SyncBoth, res.Outcome())
			assert.Empty(t, reg.inserted)
			assert.Equal(t, tt.updated, len(reg.updated) == 1)
		})
	}
}
