// Package game owns the client-side session: the progression through
// round steps, submission of operator actions, reconciliation of the
// engine's canonical post-step state, and the advisory recommendation
// side-channel.
package game

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	apiclient "github.com/bchampine/erops/pkg/api/client"
	"github.com/bchampine/erops/pkg/game/actions"
	"github.com/bchampine/erops/pkg/game/cards"
	"github.com/bchampine/erops/pkg/game/types"
	"github.com/bchampine/erops/pkg/log"
	"github.com/bchampine/erops/pkg/queue"
	"github.com/bchampine/erops/pkg/workers"
)

// GameService is the remote engine surface the session manager needs.
// *client.Client satisfies it; tests substitute fakes.
type GameService interface {
	CreateSession(ctx context.Context, config *apiclient.SessionConfig) (string, *types.RoundState, error)
	SubmitStep(ctx context.Context, sessionID string, step types.StepType, action actions.Action, query url.Values) (*types.RoundState, error)
	RoundCards(ctx context.Context, sessionID string, round int) (*cards.RoundCards, error)
	Recommendation(ctx context.Context, sessionID string, step types.StepType) (*types.Recommendation, error)
}

// SessionManager drives one session against the remote engine. It owns
// the only mutable session state; everything else reads through its
// accessors. Step operations are meant to be invoked serially (callers
// should disable input while Loading() is true); the only concurrency is
// the fire-and-forget recommendation fetch, which is resolved by the
// stale-step discard rule in attachRecommendation.
type SessionManager struct {
	service       GameService
	snapshotQueue queue.Queue
	eventSeed     *int64

	mu             sync.Mutex
	sessionID      string
	state          *types.RoundState
	recommendation *types.Recommendation
	cardForm       *cards.Form
	loading        bool
	errMsg         string
}

type NewSessionManagerOptions struct {
	Service GameService
	// SnapshotQueue receives a workers.SaveSnapshotRequest after every
	// successful transition; nil disables local persistence
	SnapshotQueue queue.Queue
	// EventSeed makes the engine's event draws deterministic; nil uses
	// the engine's own randomness
	EventSeed *int64
}

func NewSessionManager(opts NewSessionManagerOptions) *SessionManager {
	return &SessionManager{
		service:       opts.Service,
		snapshotQueue: opts.SnapshotQueue,
		eventSeed:     opts.EventSeed,
		cardForm:      cards.NewForm(nil),
	}
}

// SessionID returns the active session identifier, or "" before
// CreateSession succeeds.
func (m *SessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// State returns the latest canonical round state. Callers must treat it
// as read-only; it is replaced wholesale on every successful submission.
func (m *SessionManager) State() *types.RoundState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Recommendation returns the advisory output for the current step, or
// nil if none has arrived (or the step has no recommendation).
func (m *SessionManager) Recommendation() *types.Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recommendation
}

// CardForm returns the editable card values for the current round.
func (m *SessionManager) CardForm() *cards.Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cardForm
}

// Loading reports whether a step submission is in flight.
func (m *SessionManager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the last submission failure message, or "".
func (m *SessionManager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// ClearError clears the error field. It never retries anything.
func (m *SessionManager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
}

// CreateSession starts a new session and loads its initial state and
// round-card defaults.
func (m *SessionManager) CreateSession(ctx context.Context, config *apiclient.SessionConfig) {
	m.mu.Lock()
	m.loading = true
	m.errMsg = ""
	m.mu.Unlock()

	sessionID, state, err := m.service.CreateSession(ctx, config)
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.errMsg = errorMessage(err)
		m.mu.Unlock()
		log.Warn("Failed to create session: %v", err)
		return
	}

	m.mu.Lock()
	m.sessionID = sessionID
	m.state = state
	m.recommendation = nil
	m.loading = false
	m.errMsg = ""
	m.mu.Unlock()

	log.Info("Created session %s at round %d", sessionID, state.RoundNumber)
	m.refreshCards(ctx, sessionID, state.RoundNumber)
	m.enqueueSnapshot(sessionID, state.CurrentStep, state, nil)
}

// RunEvent submits the event step with the card form's override patch.
// An unedited form submits no overrides at all.
func (m *SessionManager) RunEvent(ctx context.Context) {
	var action actions.Action
	m.mu.Lock()
	patch := m.cardForm.Patch()
	m.mu.Unlock()
	if !patch.Empty() {
		action = &actions.EventAction{Overrides: *patch}
	}

	var query url.Values
	if m.eventSeed != nil {
		query = url.Values{"event_seed": []string{strconv.FormatInt(*m.eventSeed, 10)}}
	}
	m.submitStep(ctx, types.StepEvent, action, query)
}

// SubmitArrivals builds and submits the arrivals action. The arrival
// override map comes from the card form's reconciler, not the caller.
func (m *SessionManager) SubmitArrivals(ctx context.Context, form actions.ArrivalsForm) {
	if form.ArrivalOverrides == nil {
		m.mu.Lock()
		form.ArrivalOverrides = m.cardForm.ArrivalOverrides()
		m.mu.Unlock()
	}
	m.submitStep(ctx, types.StepArrivals, actions.BuildArrivals(form), nil)
}

// SubmitExits builds and submits the exits action.
func (m *SessionManager) SubmitExits(ctx context.Context, form actions.ExitsForm) {
	m.submitStep(ctx, types.StepExits, actions.BuildExits(form), nil)
}

// SubmitClosed builds and submits the closed/divert action against the
// latest known closed flags.
func (m *SessionManager) SubmitClosed(ctx context.Context, form actions.ClosedForm) {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	m.submitStep(ctx, types.StepClosed, actions.BuildClosed(state, form), nil)
}

// SubmitStaffing builds and submits the staffing action.
func (m *SessionManager) SubmitStaffing(ctx context.Context, form actions.StaffingForm) {
	m.submitStep(ctx, types.StepStaffing, actions.BuildStaffing(form), nil)
}

// SubmitPaperwork submits the paperwork step, which takes no payload.
func (m *SessionManager) SubmitPaperwork(ctx context.Context) {
	m.submitStep(ctx, types.StepPaperwork, nil, nil)
}

// ApplyRecommendation converts the current advisory output into its
// step's action and submits it as-is.
func (m *SessionManager) ApplyRecommendation(ctx context.Context) {
	m.mu.Lock()
	rec := m.recommendation
	m.mu.Unlock()

	action, err := actions.FromRecommendation(rec)
	if err != nil {
		m.mu.Lock()
		m.errMsg = err.Error()
		m.mu.Unlock()
		log.Warn("Cannot apply recommendation: %v", err)
		return
	}
	m.submitStep(ctx, action.Step(), action, nil)
}

// submitStep runs the per-step protocol: mark loading, submit, replace
// the round state wholesale on success, surface the engine's detail on
// failure with the previous state untouched, and kick off the advisory
// fetch for the step just entered.
func (m *SessionManager) submitStep(ctx context.Context, step types.StepType, action actions.Action, query url.Values) {
	m.mu.Lock()
	if m.sessionID == "" {
		// Stale UI callback after a session reset; caller misuse, not
		// a runtime error.
		m.mu.Unlock()
		log.Debug("Ignoring %s submission with no active session", step)
		return
	}
	sessionID := m.sessionID
	previousRound := 0
	if m.state != nil {
		previousRound = m.state.RoundNumber
	}
	m.loading = true
	m.errMsg = ""
	m.mu.Unlock()

	state, err := m.service.SubmitStep(ctx, sessionID, step, action, query)
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.errMsg = errorMessage(err)
		m.mu.Unlock()
		log.Warn("Failed to submit %s step: %v", step, err)
		return
	}

	m.mu.Lock()
	m.state = state
	m.recommendation = nil
	m.loading = false
	m.errMsg = ""
	m.mu.Unlock()

	if state.RoundNumber != previousRound {
		m.refreshCards(ctx, sessionID, state.RoundNumber)
	}
	m.enqueueSnapshot(sessionID, step, state, action)

	if !state.IsFinished && state.CurrentStep.IsDecision() {
		go m.fetchRecommendation(sessionID, state.CurrentStep)
	}
}

// fetchRecommendation is the fire-and-forget advisory fetch. It is keyed
// to the step that was current at issue time; the result is discarded if
// the session has moved on by the time it resolves. Failures never touch
// the session error.
func (m *SessionManager) fetchRecommendation(sessionID string, step types.StepType) {
	rec, err := m.service.Recommendation(context.Background(), sessionID, step)
	if err != nil {
		log.Debug("Recommendation fetch for %s failed: %v", step, err)
		return
	}
	m.attachRecommendation(sessionID, step, rec)
}

func (m *SessionManager) attachRecommendation(sessionID string, step types.StepType, rec *types.Recommendation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sessionID {
		return
	}
	// Compare against the latest state, not the state at issue time: a
	// fast double submission can race the fetch past its step.
	if m.state == nil || m.state.CurrentStep != step {
		log.Debug("Discarding stale recommendation for %s step", step)
		return
	}
	m.recommendation = rec
}

// refreshCards reloads the round-card defaults after a round change and
// resets the card form so a fresh round never inherits stale edits.
// Card data is a display default, so a fetch failure is non-fatal: the
// form resets empty and the operator plays without defaults.
func (m *SessionManager) refreshCards(ctx context.Context, sessionID string, round int) {
	rc, err := m.service.RoundCards(ctx, sessionID, round)
	if err != nil {
		log.Warn("Failed to fetch cards for round %d: %v", round, err)
		rc = nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sessionID {
		return
	}
	m.cardForm.SetDefaults(rc)
}

func (m *SessionManager) enqueueSnapshot(sessionID string, step types.StepType, state *types.RoundState, action actions.Action) {
	if m.snapshotQueue == nil {
		return
	}
	err := m.snapshotQueue.Enqueue(workers.SaveSnapshotRequest{
		SessionID: sessionID,
		Step:      step,
		State:     state,
		Action:    action,
	})
	if err != nil {
		log.Warn("Failed to enqueue snapshot: %v", err)
	}
}

// errorMessage extracts the engine's human-readable detail from a
// submission failure, with a generic fallback for transport errors.
func errorMessage(err error) string {
	if serverErr, ok := apiclient.AsServerError(err); ok && serverErr.Detail != "" {
		return serverErr.Detail
	}
	return "request to the game server failed"
}
