package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/registry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDailyService(reg *fakeRegistry, journal *fakeJournal) *DailyService {
	return NewDailyService(reg, &fakeDevice{id: testDevice}, journal, zerolog.Nop())
}

func validEntry() domain.ScoreEntry {
	return domain.ScoreEntry{User: "Ana", Score: 900, Level: 4, Date: "2024-03-01T10:00:00Z"}
}

func validDailyProof() domain.DailyReplayProof {
	return domain.DailyReplayProof{
		Version:    1,
		Difficulty: 1,
		Seed:       7,
		FinalTime:  1000,
		FinalScore: 900,
		FinalLevel: 4,
		Inputs:     []domain.ReplayInputEvent{{Time: 10, Move: "LEFT"}, {Time: 20, Move: "down"}},
	}
}

func TestStartProjectsRegistryCounters(t *testing.T) {
	reg := &fakeRegistry{attempt: &registry.AttemptResponse{
		Accepted:         true,
		AttemptToken:     strPtr("  tok-1 "),
		AttemptsUsed:     intPtr(2),
		AttemptsLeft:     7,
		HasActiveAttempt: true,
	}}
	journal := &fakeJournal{}

	res, err := newDailyService(reg, journal).Start(context.Background(), testRemote, "2024-03-01")
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.False(t, res.Resumed)
	assert.Equal(t, 2, res.AttemptsUsed)
	assert.Equal(t, 1, res.AttemptsLeft)
	assert.True(t, res.CanSubmit)
	assert.Equal(t, "tok-1", res.AttemptToken)
	assert.Equal(t, domain.AttemptState{Phase: domain.PhaseActive, Token: "tok-1"}, res.State)

	require.Len(t, journal.records, 1)
	assert.Equal(t, domain.ActionStart, journal.records[0].Action)
	assert.Equal(t, testDevice, journal.records[0].DeviceID)
	assert.True(t, journal.records[0].Accepted)
}

func TestStartResumedAttempt(t *testing.T) {
	reg := &fakeRegistry{attempt: &registry.AttemptResponse{Resumed: true, AttemptToken: strPtr("tok-1"), AttemptsUsed: intPtr(1)}}

	res, err := newDailyService(reg, &fakeJournal{}).Start(context.Background(), testRemote, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.True(t, res.Resumed)
	assert.True(t, res.HasActiveAttempt)
}

func TestStatusExhaustedCannotSubmit(t *testing.T) {
	reg := &fakeRegistry{attempt: &registry.AttemptResponse{AttemptsUsed: intPtr(3), AttemptsLeft: 2}}

	st, err := newDailyService(reg, &fakeJournal{}).Status(context.Background(), testRemote, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, st.AttemptsLeft)
	assert.False(t, st.CanSubmit)
	assert.True(t, st.State.IsExhausted())
}

func TestStatusClampsOutOfRangeCounters(t *testing.T) {
	for _, used := range []int{-4, 9} {
		t.Run(fmt.Sprint(used), func(t *testing.T) {
			reg := &fakeRegistry{attempt: &registry.AttemptResponse{AttemptsUsed: intPtr(used)}}
			st, err := newDailyService(reg, &fakeJournal{}).Status(context.Background(), testRemote, "2024-03-01")
			require.NoError(t, err)
			assert.GreaterOrEqual(t, st.AttemptsUsed, 0)
			assert.LessOrEqual(t, st.AttemptsUsed, 3)
			assert.Equal(t, 3-st.AttemptsUsed, st.AttemptsLeft)
		})
	}
}

func TestDailyOperationsRequireRemote(t *testing.T) {
	s := newDailyService(&fakeRegistry{}, &fakeJournal{})
	ctx := context.Background()

	_, err := s.Status(ctx, nil, "2024-03-01")
	assert.ErrorIs(t, err, domain.ErrConfigurationRequired)
	_, err = s.Start(ctx, nil, "2024-03-01")
	assert.ErrorIs(t, err, domain.ErrConfigurationRequired)
	_, err = s.Submit(ctx, nil, "2024-03-01", "tok", validEntry(), validDailyProof())
	assert.ErrorIs(t, err, domain.ErrConfigurationRequired)
	_, err = s.Forfeit(ctx, nil, "2024-03-01", "tok")
	assert.ErrorIs(t, err, domain.ErrConfigurationRequired)
}

func TestSubmitValidatesBeforeNetwork(t *testing.T) {
	badProof := validDailyProof()
	badProof.Inputs = []domain.ReplayInputEvent{{Time: 5, Move: "left"}, {Time: 3, Move: "left"}}

	tests := []struct {
		name  string
		key   string
		token string
		entry domain.ScoreEntry
		proof domain.DailyReplayProof
		code  domain.ValidationCode
	}{
		{"bad key", "2023-02-29", "tok", validEntry(), validDailyProof(), domain.CodeInvalidChallengeKey},
		{"blank token", "2024-03-01", "  ", validEntry(), validDailyProof(), domain.CodeMissingAttemptToken},
		{"blank user", "2024-03-01", "tok", domain.ScoreEntry{User: " "}, validDailyProof(), domain.CodeEmptyUserName},
		{"non monotonic", "2024-03-01", "tok", validEntry(), badProof, domain.CodeNonMonotonicReplay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &fakeRegistry{}
			// nil remote: validation must win over the configuration check
			_, err := newDailyService(reg, &fakeJournal{}).Submit(context.Background(), nil, tt.key, tt.token, tt.entry, tt.proof)
			assert.True(t, domain.HasValidationCode(err, tt.code), "got %v", err)
			assert.Empty(t, reg.calls)
		})
	}
}

func TestSubmitSendsSanitizedPayload(t *testing.T) {
	reg := &fakeRegistry{submit: &registry.SubmitResponse{Accepted: true, Improved: true, AttemptsUsed: intPtr(1)}}
	journal := &fakeJournal{}

	entry := validEntry()
	entry.Score = -3

	res, err := newDailyService(reg, journal).Submit(context.Background(), testRemote, "2024-03-01", " tok-1 ", entry, validDailyProof())
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.Improved)
	assert.Equal(t, 2, res.AttemptsLeft)
	assert.Equal(t, domain.PhaseIdle, res.State.Phase)

	require.Len(t, reg.submits, 1)
	sent := reg.submits[0]
	assert.Equal(t, domain.ModeDaily, sent.Mode)
	assert.Equal(t, "tok-1", sent.AttemptToken)
	assert.Equal(t, testDevice, sent.DeviceID)
	assert.Equal(t, int64(0), sent.Entry.Score)
	assert.Equal(t, "left", sent.ReplayProof.Inputs[0].Move)

	require.Len(t, journal.records, 1)
	assert.Equal(t, domain.ActionSubmit, journal.records[0].Action)
	assert.Len(t, journal.records[0].ProofDigest, 64)
}

func TestSubmitSurfacesRegistryRejection(t *testing.T) {
	rejection := &registry.Error{Op: "submit_score", StatusCode: 409, Reason: registry.ReasonReplayMismatch, Hint: "replay diverged"}
	reg := &fakeRegistry{submitErr: rejection}
	journal := &fakeJournal{}

	_, err := newDailyService(reg, journal).Submit(context.Background(), testRemote, "2024-03-01", "tok", validEntry(), validDailyProof())
	require.Error(t, err)

	rErr, ok := registry.AsError(err)
	require.True(t, ok)
	assert.Equal(t, registry.ReasonReplayMismatch, rErr.Reason)
	assert.Equal(t, "replay diverged", rErr.Hint)
	assert.Empty(t, journal.records)
}

func TestSubmitDoesNotBlockOnLocalCounters(t *testing.T) {
	// the registry decides whether attempts remain
	reg := &fakeRegistry{submit: &registry.SubmitResponse{Accepted: false, Reason: registry.ReasonAttemptsExhausted, AttemptsUsed: intPtr(3)}}

	res, err := newDailyService(reg, &fakeJournal{}).Submit(context.Background(), testRemote, "2024-03-01", "tok", validEntry(), validDailyProof())
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, registry.ReasonAttemptsExhausted, res.Reason)
	assert.False(t, res.CanSubmit)
}

func TestForfeitRequiresToken(t *testing.T) {
	reg := &fakeRegistry{}
	_, err := newDailyService(reg, &fakeJournal{}).Forfeit(context.Background(), testRemote, "2024-03-01", "")
	assert.True(t, domain.HasValidationCode(err, domain.CodeMissingAttemptToken))
	assert.Empty(t, reg.calls)
}

func TestForfeitReleasesAttempt(t *testing.T) {
	reg := &fakeRegistry{attempt: &registry.AttemptResponse{AttemptsUsed: intPtr(1)}}
	journal := &fakeJournal{}

	res, err := newDailyService(reg, journal).Forfeit(context.Background(), testRemote, "2024-03-01", "tok-1")
	require.NoError(t, err)
	assert.True(t, res.Forfeited)
	assert.False(t, res.HasActiveAttempt)
	assert.Equal(t, 2, res.AttemptsLeft)

	no := false
	reg.attempt = &registry.AttemptResponse{AttemptsUsed: intPtr(1), Forfeited: &no}
	res, err = newDailyService(reg, journal).Forfeit(context.Background(), testRemote, "2024-03-01", "tok-1")
	require.NoError(t, err)
	assert.False(t, res.Forfeited)
}

func TestJournalFailureDoesNotFailOperation(t *testing.T) {
	reg := &fakeRegistry{attempt: &registry.AttemptResponse{Accepted: true, AttemptToken: strPtr("tok")}}
	journal := &fakeJournal{err: errors.New("database is locked")}

	res, err := newDailyService(reg, journal).Start(context.Background(), testRemote, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestDeviceFailureSurfaces(t *testing.T) {
	s := NewDailyService(&fakeRegistry{}, &fakeDevice{err: errors.New("read-only fs")}, &fakeJournal{}, zerolog.Nop())
	_, err := s.Start(context.Background(), testRemote, "2024-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device identity")
}

func TestHistory(t *testing.T) {
	journal := &fakeJournal{records: []domain.AttemptRecord{
		{DeviceID: testDevice, ChallengeKey: "2024-03-01", Action: domain.ActionStart},
		{DeviceID: testDevice, ChallengeKey: "2024-03-02", Action: domain.ActionStart},
	}}
	s := newDailyService(&fakeRegistry{}, journal)

	got, err := s.History(context.Background(), "2024-03-01", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.History(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = s.History(context.Background(), "03-01-2024", 10)
	assert.True(t, domain.HasValidationCode(err, domain.CodeInvalidChallengeKey))

	empty := NewDailyService(&fakeRegistry{}, &fakeDevice{}, journal, zerolog.Nop())
	got, err = empty.History(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
