package server

import (
	"context"
	"net/http"

	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/service"
	"leaderboard-sync/internal/validation"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const ServicePath = "/leaderboard.v1.LeaderboardSync/"

const (
	FetchScoresProcedure         = ServicePath + "FetchScores"
	SubmitScoreProcedure         = ServicePath + "SubmitScore"
	FetchDailyScoresProcedure    = ServicePath + "FetchDailyScores"
	FetchDailyStatusProcedure    = ServicePath + "FetchDailyStatus"
	StartDailyAttemptProcedure   = ServicePath + "StartDailyAttempt"
	SubmitDailyScoreProcedure    = ServicePath + "SubmitDailyScore"
	ForfeitDailyAttemptProcedure = ServicePath + "ForfeitDailyAttempt"
	FetchBadgeStatusProcedure    = ServicePath + "FetchBadgeStatus"
	FetchDailyOverviewProcedure  = ServicePath + "FetchDailyOverview"
	FetchDailyHistoryProcedure   = ServicePath + "FetchDailyHistory"
	ValidateReplayProofProcedure = ServicePath + "ValidateReplayProof"
)

type LeaderboardServer struct {
	cfg         *config.Config
	scoreSvc    *service.ScoreService
	dailySvc    *service.DailyService
	badgeSvc    *service.BadgeService
	overviewSvc *service.OverviewService
	logger      zerolog.Logger
}

func NewLeaderboardServer(
	cfg *config.Config,
	scoreSvc *service.ScoreService,
	dailySvc *service.DailyService,
	badgeSvc *service.BadgeService,
	overviewSvc *service.OverviewService,
	logger zerolog.Logger,
) *LeaderboardServer {
	return &LeaderboardServer{
		cfg:         cfg,
		scoreSvc:    scoreSvc,
		dailySvc:    dailySvc,
		badgeSvc:    badgeSvc,
		overviewSvc: overviewSvc,
		logger:      logger,
	}
}

// Handler mounts every procedure under ServicePath.
func (s *LeaderboardServer) Handler() (string, http.Handler) {
	codec := connect.WithCodec(jsonCodec{})
	mux := http.NewServeMux()

	mux.Handle(FetchScoresProcedure, connect.NewUnaryHandler(FetchScoresProcedure, s.FetchScores, codec))
	mux.Handle(SubmitScoreProcedure, connect.NewUnaryHandler(SubmitScoreProcedure, s.SubmitScore, codec))
	mux.Handle(FetchDailyScoresProcedure, connect.NewUnaryHandler(FetchDailyScoresProcedure, s.FetchDailyScores, codec))
	mux.Handle(FetchDailyStatusProcedure, connect.NewUnaryHandler(FetchDailyStatusProcedure, s.FetchDailyStatus, codec))
	mux.Handle(StartDailyAttemptProcedure, connect.NewUnaryHandler(StartDailyAttemptProcedure, s.StartDailyAttempt, codec))
	mux.Handle(SubmitDailyScoreProcedure, connect.NewUnaryHandler(SubmitDailyScoreProcedure, s.SubmitDailyScore, codec))
	mux.Handle(ForfeitDailyAttemptProcedure, connect.NewUnaryHandler(ForfeitDailyAttemptProcedure, s.ForfeitDailyAttempt, codec))
	mux.Handle(FetchBadgeStatusProcedure, connect.NewUnaryHandler(FetchBadgeStatusProcedure, s.FetchBadgeStatus, codec))
	mux.Handle(FetchDailyOverviewProcedure, connect.NewUnaryHandler(FetchDailyOverviewProcedure, s.FetchDailyOverview, codec))
	mux.Handle(FetchDailyHistoryProcedure, connect.NewUnaryHandler(FetchDailyHistoryProcedure, s.FetchDailyHistory, codec))
	mux.Handle(ValidateReplayProofProcedure, connect.NewUnaryHandler(ValidateReplayProofProcedure, s.ValidateReplayProof, codec))

	return ServicePath, mux
}

func (s *LeaderboardServer) remote(rc RemoteConfig) *config.Remote {
	return s.cfg.ResolveRemote(rc.RegistryURL, rc.RegistryAPIKey)
}

func (s *LeaderboardServer) FetchScores(ctx context.Context, req *connect.Request[FetchScoresRequest]) (*connect.Response[ScoresResponse], error) {
	scores, err := s.scoreSvc.FetchScores(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ScoresResponse{Scores: scores}), nil
}

func (s *LeaderboardServer) SubmitScore(ctx context.Context, req *connect.Request[SubmitScoreRequest]) (*connect.Response[SubmitScoreResponse], error) {
	result, err := s.scoreSvc.SubmitScore(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.Entry)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &SubmitScoreResponse{Entry: result.Entry, Outcome: result.Outcome()}
	if result.LocalErr != nil {
		resp.LocalError = result.LocalErr.Error()
	}
	if result.RemoteErr != nil {
		resp.RemoteError = result.RemoteErr.Error()
	}
	return connect.NewResponse(resp), nil
}

func (s *LeaderboardServer) FetchDailyScores(ctx context.Context, req *connect.Request[FetchDailyScoresRequest]) (*connect.Response[ScoresResponse], error) {
	scores, err := s.scoreSvc.FetchDailyScores(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.ChallengeKey, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ScoresResponse{Scores: scores}), nil
}

func (s *LeaderboardServer) FetchDailyStatus(ctx context.Context, req *connect.Request[DailyRequest]) (*connect.Response[domain.DailyStatus], error) {
	status, err := s.dailySvc.Status(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.ChallengeKey)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&status), nil
}

func (s *LeaderboardServer) StartDailyAttempt(ctx context.Context, req *connect.Request[DailyRequest]) (*connect.Response[domain.DailyAttemptStartResult], error) {
	result, err := s.dailySvc.Start(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.ChallengeKey)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&result), nil
}

func (s *LeaderboardServer) SubmitDailyScore(ctx context.Context, req *connect.Request[SubmitDailyScoreRequest]) (*connect.Response[domain.DailySubmitResult], error) {
	proof, err := validation.DecodeReplayProof(req.Msg.ReplayProof)
	if err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.dailySvc.Submit(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.ChallengeKey, req.Msg.AttemptToken, req.Msg.Entry, proof)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&result), nil
}

func (s *LeaderboardServer) ForfeitDailyAttempt(ctx context.Context, req *connect.Request[ForfeitDailyAttemptRequest]) (*connect.Response[domain.DailyForfeitResult], error) {
	result, err := s.dailySvc.Forfeit(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.ChallengeKey, req.Msg.AttemptToken)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&result), nil
}

func (s *LeaderboardServer) FetchBadgeStatus(ctx context.Context, req *connect.Request[FetchBadgeStatusRequest]) (*connect.Response[domain.DailyBadgeStatus], error) {
	status, err := s.badgeSvc.FetchStatus(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.Today)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&status), nil
}

func (s *LeaderboardServer) FetchDailyOverview(ctx context.Context, req *connect.Request[DailyRequest]) (*connect.Response[domain.DailyOverview], error) {
	overview, err := s.overviewSvc.Fetch(ctx, s.remote(req.Msg.RemoteConfig), req.Msg.ChallengeKey)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&overview), nil
}

func (s *LeaderboardServer) FetchDailyHistory(ctx context.Context, req *connect.Request[FetchDailyHistoryRequest]) (*connect.Response[DailyHistoryResponse], error) {
	records, err := s.dailySvc.History(ctx, req.Msg.ChallengeKey, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DailyHistoryResponse{Records: records}), nil
}

// ValidateReplayProof runs the local proof checks without contacting the registry.
func (s *LeaderboardServer) ValidateReplayProof(_ context.Context, req *connect.Request[ValidateReplayProofRequest]) (*connect.Response[ValidateReplayProofResponse], error) {
	proof, err := validation.DecodeReplayProof(req.Msg.ReplayProof)
	if err != nil {
		return nil, toConnectError(err)
	}
	clean, err := validation.SanitizeReplayProof(proof)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ValidateReplayProofResponse{
		ReplayProof: clean,
		Digest:      validation.ReplayDigest(clean),
	}), nil
}
