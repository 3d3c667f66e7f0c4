// Package client is the HTTP client for the remote game engine. All
// calls are plain request/response JSON; failure responses carry an
// optional human-readable detail field which is surfaced as a
// *ServerError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bchampine/erops/pkg/game/actions"
	"github.com/bchampine/erops/pkg/game/cards"
	"github.com/bchampine/erops/pkg/game/types"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type NewClientOptions struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new game engine client.
func NewClient(opts NewClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DepartmentConfig overrides the starting parameters of one department.
type DepartmentConfig struct {
	Patients    *int `json:"patients,omitempty"`
	Staff       *int `json:"staff,omitempty"`
	BedCapacity *int `json:"bed_capacity,omitempty"`
}

// SessionConfig is the optional custom starting configuration for a new
// session. A nil config plays the standard scenario.
type SessionConfig struct {
	Departments map[types.DepartmentID]DepartmentConfig `json:"departments,omitempty"`
}

// History is the engine's cost history response.
type History struct {
	GameID             string                 `json:"game_id"`
	RoundCosts         []types.RoundCostEntry `json:"round_costs"`
	TotalFinancialCost int                    `json:"total_financial_cost"`
	TotalQualityCost   int                    `json:"total_quality_cost"`
}

// ReplayDepartment is the per-department summary inside a replay round.
type ReplayDepartment struct {
	Patients        int  `json:"patients"`
	BedsAvailable   int  `json:"beds_available"`
	StaffIdle       int  `json:"staff_idle"`
	StaffTotal      int  `json:"staff_total"`
	ArrivalsWaiting int  `json:"arrivals_waiting"`
	RequestsWaiting int  `json:"requests_waiting"`
	IsClosed        bool `json:"is_closed"`
	IsDiverting     bool `json:"is_diverting"`
}

// ReplayCosts is the cost summary for one replay round.
type ReplayCosts struct {
	Financial int            `json:"financial"`
	Quality   int            `json:"quality"`
	Details   map[string]int `json:"details"`
}

// ReplayRound is one completed round in the replay view.
type ReplayRound struct {
	RoundNumber int                                   `json:"round_number"`
	Departments map[types.DepartmentID]ReplayDepartment `json:"departments"`
	Costs       ReplayCosts                           `json:"costs"`
	Events      []string                              `json:"events"`
}

// Replay is the engine's full replay response.
type Replay struct {
	GameID             string        `json:"game_id"`
	Rounds             []ReplayRound `json:"rounds"`
	TotalFinancialCost int           `json:"total_financial_cost"`
	TotalQualityCost   int           `json:"total_quality_cost"`
}

type createSessionResponse struct {
	GameID string            `json:"game_id"`
	State  *types.RoundState `json:"state"`
}

// CreateSession creates a new game session and returns its identifier
// and initial round state.
func (c *Client) CreateSession(ctx context.Context, config *SessionConfig) (string, *types.RoundState, error) {
	var resp createSessionResponse
	var body interface{}
	if config != nil {
		body = config
	}
	if err := c.do(ctx, http.MethodPost, "/api/game/new", body, nil, &resp); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}
	return resp.GameID, resp.State, nil
}

// State fetches the current round state for a session.
func (c *Client) State(ctx context.Context, sessionID string) (*types.RoundState, error) {
	state := &types.RoundState{}
	path := fmt.Sprintf("/api/game/%s/state", url.PathEscape(sessionID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, state); err != nil {
		return nil, fmt.Errorf("failed to fetch state: %w", err)
	}
	return state, nil
}

// SubmitStep submits the action for a step and returns the engine's
// canonical post-step state. A nil action submits a null payload, which
// the paperwork step (and an override-free event step) accept.
func (c *Client) SubmitStep(ctx context.Context, sessionID string, step types.StepType, action actions.Action, query url.Values) (*types.RoundState, error) {
	if action != nil && action.Step() != step {
		return nil, fmt.Errorf("action for step %s submitted to step %s", action.Step(), step)
	}
	state := &types.RoundState{}
	path := fmt.Sprintf("/api/game/%s/step/%s", url.PathEscape(sessionID), url.PathEscape(string(step)))
	var body interface{}
	if action != nil {
		body = action
	}
	if err := c.do(ctx, http.MethodPost, path, body, query, state); err != nil {
		return nil, fmt.Errorf("failed to submit %s step: %w", step, err)
	}
	return state, nil
}

// RoundCards fetches the card defaults for a specific round.
func (c *Client) RoundCards(ctx context.Context, sessionID string, round int) (*cards.RoundCards, error) {
	rc := &cards.RoundCards{}
	path := fmt.Sprintf("/api/game/%s/round-cards/%d", url.PathEscape(sessionID), round)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, rc); err != nil {
		return nil, fmt.Errorf("failed to fetch round cards: %w", err)
	}
	return rc, nil
}

// History fetches the per-round cost history and cumulative totals.
func (c *Client) History(ctx context.Context, sessionID string) (*History, error) {
	history := &History{}
	path := fmt.Sprintf("/api/game/%s/history", url.PathEscape(sessionID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, history); err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return history, nil
}

// Replay fetches the per-round snapshots for the replay view.
func (c *Client) Replay(ctx context.Context, sessionID string) (*Replay, error) {
	replay := &Replay{}
	path := fmt.Sprintf("/api/game/%s/replay", url.PathEscape(sessionID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, replay); err != nil {
		return nil, fmt.Errorf("failed to fetch replay: %w", err)
	}
	return replay, nil
}

// Recommendation fetches the advisory output for a decision step.
func (c *Client) Recommendation(ctx context.Context, sessionID string, step types.StepType) (*types.Recommendation, error) {
	if !step.IsDecision() {
		return nil, fmt.Errorf("step %s has no recommendation", step)
	}
	rec := &types.Recommendation{}
	path := fmt.Sprintf("/api/game/%s/recommend/%s", url.PathEscape(sessionID), url.PathEscape(string(step)))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, rec); err != nil {
		return nil, fmt.Errorf("failed to fetch recommendation: %w", err)
	}
	return rec, nil
}

// ExportCSV streams the engine's CSV scoring worksheet. The caller is
// responsible for closing the returned reader.
func (c *Client) ExportCSV(ctx context.Context, sessionID string) (io.ReadCloser, error) {
	path := fmt.Sprintf("/api/game/%s/export/csv", url.PathEscape(sessionID))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to export csv: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.errorFromResponse(resp)
	}
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to read gzip stream: %v", err)
		}
		return &gzipReadCloser{gz: gzReader, body: resp.Body}, nil
	}
	return resp.Body, nil
}

// gzipReadCloser closes both the gzip reader and the underlying body.
type gzipReadCloser struct {
	gz   *gzip.Reader
	body io.ReadCloser
}

func (r *gzipReadCloser) Read(p []byte) (int, error) {
	return r.gz.Read(p)
}

func (r *gzipReadCloser) Close() error {
	if err := r.gz.Close(); err != nil {
		r.body.Close()
		return err
	}
	return r.body.Close()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, query url.Values) (*http.Request, error) {
	var reqBody io.Reader
	if method == http.MethodPost {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, query url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body, query)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

// errorFromResponse extracts the engine's detail field from a failure
// response, falling back to the HTTP status text.
func (c *Client) errorFromResponse(resp *http.Response) error {
	serverErr := &ServerError{StatusCode: resp.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Detail != "" {
		serverErr.Detail = payload.Detail
	} else {
		serverErr.Detail = http.StatusText(resp.StatusCode)
	}
	return serverErr
}
