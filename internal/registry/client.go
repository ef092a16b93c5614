package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leaderboard-sync/internal/config"
	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	scoresPath      = "/rest/v1/scores"
	completionsPath = "/rest/v1/daily_completions"
	startRPCPath    = "/rest/v1/rpc/start_daily_attempt"
	statusRPCPath   = "/rest/v1/rpc/get_daily_status"
	forfeitRPCPath  = "/rest/v1/rpc/forfeit_daily_attempt"
	submitFnPath    = "/functions/v1/submit-score"

	scoreColumns = "player_name,score,level,created_at,skill_usage,client_uuid"
	scoreOrder   = "score.desc,level.desc,created_at.desc"
)

// Client talks to the remote registry. Each call carries its own endpoint and
// key; a single request is made per call with no retries.
type Client struct {
	client  *fasthttp.Client
	timeout time.Duration
	metrics *metrics.Recorder
	logger  zerolog.Logger
}

func NewClient(recorder *metrics.Recorder, logger zerolog.Logger) *Client {
	return NewClientWithHTTP(&fasthttp.Client{
		MaxConnsPerHost:     16,
		ReadTimeout:         constants.RegistryTimeout,
		WriteTimeout:        constants.RegistryTimeout,
		MaxIdleConnDuration: time.Minute,
	}, recorder, logger)
}

func NewClientWithHTTP(httpClient *fasthttp.Client, recorder *metrics.Recorder, logger zerolog.Logger) *Client {
	return &Client{
		client:  httpClient,
		timeout: constants.RegistryTimeout,
		metrics: recorder,
		logger:  logger.With().Str("component", "registry").Logger(),
	}
}

func (c *Client) FetchScores(ctx context.Context, remote config.Remote, q ScoreQuery) ([]domain.RemoteScore, error) {
	query := url.Values{}
	query.Set("select", scoreColumns)
	query.Set("order", scoreOrder)
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("mode", "eq."+string(q.Mode))
	if q.ChallengeKey != "" {
		query.Set("challenge_key", "eq."+q.ChallengeKey)
	}

	rows, err := doRequest[[]scoreRow](ctx, c, remote, request{
		op:     "fetch_scores",
		method: fasthttp.MethodGet,
		path:   scoresPath,
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	scores := make([]domain.RemoteScore, 0, len(*rows))
	for _, row := range *rows {
		scores = append(scores, row.toRemote())
	}
	return scores, nil
}

// FetchDeviceScore returns the classic score owned by deviceID, or nil.
func (c *Client) FetchDeviceScore(ctx context.Context, remote config.Remote, deviceID string) (*domain.ScoreEntry, error) {
	query := url.Values{}
	query.Set("select", scoreColumns)
	query.Set("client_uuid", "eq."+deviceID)
	query.Set("mode", "eq."+string(domain.ModeClassic))
	query.Set("limit", "1")

	rows, err := doRequest[[]scoreRow](ctx, c, remote, request{
		op:     "fetch_device_score",
		method: fasthttp.MethodGet,
		path:   scoresPath,
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	if len(*rows) == 0 {
		return nil, nil
	}
	entry := (*rows)[0].toRemote().Entry
	return &entry, nil
}

func (c *Client) InsertScore(ctx context.Context, remote config.Remote, payload ScorePayload) error {
	_, err := doRequest[json.RawMessage](ctx, c, remote, request{
		op:     "insert_score",
		method: fasthttp.MethodPost,
		path:   scoresPath,
		body:   payload,
		prefer: "return=minimal",
	})
	return err
}

func (c *Client) UpdateScore(ctx context.Context, remote config.Remote, payload ScorePayload) error {
	query := url.Values{}
	query.Set("client_uuid", "eq."+payload.ClientUUID)
	query.Set("mode", "eq."+string(domain.ModeClassic))

	_, err := doRequest[json.RawMessage](ctx, c, remote, request{
		op:     "update_score",
		method: fasthttp.MethodPatch,
		path:   scoresPath,
		query:  query,
		body:   payload,
		prefer: "return=minimal",
	})
	return err
}

func (c *Client) StartDailyAttempt(ctx context.Context, remote config.Remote, deviceID, challengeKey string) (*AttemptResponse, error) {
	return callRPC[AttemptResponse](ctx, c, remote, "start_daily_attempt", startRPCPath, attemptParams{
		DeviceID:     deviceID,
		ChallengeKey: challengeKey,
	})
}

func (c *Client) FetchDailyStatus(ctx context.Context, remote config.Remote, deviceID, challengeKey string) (*AttemptResponse, error) {
	return callRPC[AttemptResponse](ctx, c, remote, "get_daily_status", statusRPCPath, attemptParams{
		DeviceID:     deviceID,
		ChallengeKey: challengeKey,
	})
}

func (c *Client) ForfeitDailyAttempt(ctx context.Context, remote config.Remote, deviceID, challengeKey, attemptToken string) (*AttemptResponse, error) {
	return callRPC[AttemptResponse](ctx, c, remote, "forfeit_daily_attempt", forfeitRPCPath, attemptParams{
		DeviceID:     deviceID,
		ChallengeKey: challengeKey,
		AttemptToken: attemptToken,
	})
}

func (c *Client) SubmitScore(ctx context.Context, remote config.Remote, body SubmitRequest) (*SubmitResponse, error) {
	return callRPC[SubmitResponse](ctx, c, remote, "submit_score", submitFnPath, body)
}

// ListCompletedKeys returns the challenge keys with an accepted daily run for deviceID.
func (c *Client) ListCompletedKeys(ctx context.Context, remote config.Remote, deviceID string) ([]string, error) {
	query := url.Values{}
	query.Set("select", "challenge_key")
	query.Set("device_id", "eq."+deviceID)
	query.Set("accepted", "eq.true")
	query.Set("order", "challenge_key.asc")

	rows, err := doRequest[[]completionRow](ctx, c, remote, request{
		op:     "list_completions",
		method: fasthttp.MethodGet,
		path:   completionsPath,
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(*rows))
	for _, row := range *rows {
		keys = append(keys, row.ChallengeKey)
	}
	return keys, nil
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	prefer string
}

// confirmedRow is implemented by rows that must carry registry counters.
type confirmedRow interface {
	confirmed() bool
}

// callRPC posts params and decodes a single row. Procedures may answer with
// either an object or a one-element array.
func callRPC[T any](ctx context.Context, c *Client, remote config.Remote, op, path string, params any) (*T, error) {
	raw, err := doRequest[json.RawMessage](ctx, c, remote, request{
		op:     op,
		method: fasthttp.MethodPost,
		path:   path,
		body:   params,
	})
	if err != nil {
		return nil, err
	}
	row, err := decodeRow[T](*raw)
	if err != nil {
		return nil, &Error{Op: op, StatusCode: fasthttp.StatusOK, Message: "malformed response", Err: err}
	}
	if cr, ok := any(row).(confirmedRow); ok && !cr.confirmed() {
		return nil, &Error{Op: op, StatusCode: fasthttp.StatusOK, Message: "malformed response", Err: errMissingCounters}
	}
	return row, nil
}

var (
	errEmptyResult     = errors.New("empty result set")
	errNullRow         = errors.New("null row")
	errMissingCounters = errors.New("attempt counters missing")
)

func decodeRow[T any](raw []byte) (*T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []*T
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, errEmptyResult
		}
		if rows[0] == nil {
			return nil, errNullRow
		}
		return rows[0], nil
	}

	var row *T
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errNullRow
	}
	return row, nil
}

func doRequest[T any](ctx context.Context, client *Client, remote config.Remote, r request) (*T, error) {
	raw, err := client.roundTrip(ctx, remote, r)
	if err != nil {
		return nil, err
	}

	var result T
	if len(bytes.TrimSpace(raw)) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Op: r.op, StatusCode: fasthttp.StatusOK, Message: "malformed response", Err: err}
	}
	return &result, nil
}

func (c *Client) roundTrip(ctx context.Context, remote config.Remote, r request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: r.op, Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := strings.TrimRight(remote.URL, "/") + r.path
	if len(r.query) > 0 {
		uri += "?" + r.query.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(r.method)
	req.Header.Set("apikey", remote.APIKey)
	req.Header.Set("Authorization", "Bearer "+remote.APIKey)
	req.Header.Set("Accept", "application/json")
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}
	if r.body != nil {
		body, err := json.Marshal(r.body)
		if err != nil {
			return nil, &Error{Op: r.op, Message: "failed to encode request", Err: err}
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	// the registry timeout caps every call, a tighter caller deadline wins
	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	start := time.Now()
	err := c.client.DoDeadline(req, resp, deadline)
	elapsed := time.Since(start)

	if err != nil {
		rErr := &Error{Op: r.op, Err: err}
		outcome := metrics.OutcomeError
		if rErr.Timeout() {
			outcome = metrics.OutcomeTimeout
		}
		c.metrics.RecordRequest(r.op, outcome, elapsed)
		c.logger.Warn().Err(err).Str("op", r.op).Dur("elapsed", elapsed).Msg("registry request failed")
		return nil, rErr
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)

	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		rErr := parseError(r.op, status, body)
		c.metrics.RecordRequest(r.op, metrics.OutcomeRejected, elapsed)
		c.logger.Debug().
			Str("op", r.op).
			Int("status", status).
			Str("reason", rErr.Reason).
			Msg("registry rejected request")
		return nil, rErr
	}

	c.metrics.RecordRequest(r.op, metrics.OutcomeOK, elapsed)
	c.logger.Debug().Str("op", r.op).Int("status", status).Dur("elapsed", elapsed).Msgf("%s %s", r.method, r.path)
	return body, nil
}
