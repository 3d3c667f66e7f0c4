package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchampine/erops/pkg/game/actions"
	"github.com/bchampine/erops/pkg/game/types"
)

// fakeEngine is an httptest stand-in for the remote game engine.
type fakeEngine struct {
	router *mux.Router
	server *httptest.Server

	lastBody   []byte
	lastQuery  url.Values
	lastHeader http.Header
}

func newFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()
	engine := &fakeEngine{router: mux.NewRouter()}
	engine.server = httptest.NewServer(engine.router)
	t.Cleanup(engine.server.Close)
	return engine
}

func (e *fakeEngine) handle(method, path string, status int, response interface{}) {
	e.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		e.lastBody, _ = io.ReadAll(r.Body)
		e.lastQuery = r.URL.Query()
		e.lastHeader = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != nil {
			_ = json.NewEncoder(w).Encode(response)
		}
	}).Methods(method)
}

func (e *fakeEngine) client() *Client {
	return NewClient(NewClientOptions{BaseURL: e.server.URL})
}

func TestClient_CreateSession(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodPost, "/api/game/new", http.StatusOK, map[string]interface{}{
		"game_id": "game-1",
		"state": map[string]interface{}{
			"game_id":      "game-1",
			"round_number": 1,
			"current_step": "event",
		},
	})

	sessionID, state, err := engine.client().CreateSession(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "game-1", sessionID)
	assert.Equal(t, 1, state.RoundNumber)
	assert.Equal(t, types.StepEvent, state.CurrentStep)

	// nil config posts a null body, playing the standard scenario
	assert.Equal(t, "null", string(engine.lastBody))
	assert.NotEmpty(t, engine.lastHeader.Get("X-Request-ID"))
}

func TestClient_CreateSessionWithConfig(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodPost, "/api/game/new", http.StatusOK, map[string]interface{}{
		"game_id": "game-1",
		"state":   map[string]interface{}{"round_number": 1},
	})

	staff := 6
	_, _, err := engine.client().CreateSession(context.Background(), &SessionConfig{
		Departments: map[types.DepartmentID]DepartmentConfig{
			types.DepartmentER: {Staff: &staff},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"departments":{"er":{"staff":6}}}`, string(engine.lastBody))
}

func TestClient_SubmitStep(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodPost, "/api/game/{id}/step/{step}", http.StatusOK, map[string]interface{}{
		"game_id":      "game-1",
		"round_number": 1,
		"current_step": "exits",
	})

	action := &actions.ArrivalsAction{
		Admissions:       []actions.AdmitDecision{{Department: types.DepartmentER, AdmitCount: 2}},
		TransferAccepts:  []actions.AcceptTransferDecision{},
		ArrivalOverrides: map[types.DepartmentID]int{},
	}
	state, err := engine.client().SubmitStep(context.Background(), "game-1", types.StepArrivals, action, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StepExits, state.CurrentStep)
	assert.JSONEq(t, `{"admissions":[{"department":"er","admit_count":2}],"transfer_accepts":[],"arrival_overrides":{}}`, string(engine.lastBody))
}

func TestClient_SubmitStepNilActionPostsNull(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodPost, "/api/game/{id}/step/{step}", http.StatusOK, map[string]interface{}{
		"round_number": 2,
		"current_step": "event",
	})

	_, err := engine.client().SubmitStep(context.Background(), "game-1", types.StepPaperwork, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(engine.lastBody))
}

func TestClient_SubmitStepQueryForwarded(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodPost, "/api/game/{id}/step/{step}", http.StatusOK, map[string]interface{}{
		"round_number": 1,
		"current_step": "arrivals",
	})

	query := url.Values{"event_seed": []string{"42"}}
	_, err := engine.client().SubmitStep(context.Background(), "game-1", types.StepEvent, nil, query)
	require.NoError(t, err)
	assert.Equal(t, "42", engine.lastQuery.Get("event_seed"))
}

func TestClient_SubmitStepMismatchedAction(t *testing.T) {
	engine := newFakeEngine(t)

	action := &actions.ExitsAction{Routings: []actions.ExitRouting{}}
	_, err := engine.client().SubmitStep(context.Background(), "game-1", types.StepArrivals, action, nil)
	assert.ErrorContains(t, err, "action for step exits submitted to step arrivals")
}

func TestClient_ServerErrorDetail(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodPost, "/api/game/{id}/step/{step}", http.StatusBadRequest, map[string]interface{}{
		"detail": "department surgery is closed",
	})

	_, err := engine.client().SubmitStep(context.Background(), "game-1", types.StepPaperwork, nil, nil)
	require.Error(t, err)
	serverErr, ok := AsServerError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, serverErr.StatusCode)
	assert.Equal(t, "department surgery is closed", serverErr.Detail)
}

func TestClient_ServerErrorWithoutDetail(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodGet, "/api/game/{id}/state", http.StatusNotFound, nil)

	_, err := engine.client().State(context.Background(), "missing")
	require.Error(t, err)
	serverErr, ok := AsServerError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusText(http.StatusNotFound), serverErr.Detail)
}

func TestClient_RoundCards(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodGet, "/api/game/{id}/round-cards/{round}", http.StatusOK, map[string]interface{}{
		"round": 3,
		"departments": map[string]interface{}{
			"er": map[string]interface{}{"arrivals": 7, "exits": 4, "walkin": 5, "ambulance": 2},
		},
	})

	rc, err := engine.client().RoundCards(context.Background(), "game-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, rc.Round)
	entry := rc.Departments[types.DepartmentER]
	assert.Equal(t, 7, entry.Arrivals)
	require.NotNil(t, entry.Walkin)
	assert.Equal(t, 5, *entry.Walkin)
}

func TestClient_Recommendation(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodGet, "/api/game/{id}/recommend/{step}", http.StatusOK, map[string]interface{}{
		"step":               "staffing",
		"recommended_action": map[string]interface{}{"extra_staff": map[string]int{"er": 1}},
		"reasoning":          "call one extra for the er",
		"source":             "llm",
		"llm_available":      true,
		"confidence":         0.8,
	})

	rec, err := engine.client().Recommendation(context.Background(), "game-1", types.StepStaffing)
	require.NoError(t, err)
	assert.Equal(t, types.StepStaffing, rec.Step)
	assert.Equal(t, types.RecommendationSourceLLM, rec.Source)
	assert.JSONEq(t, `{"extra_staff":{"er":1}}`, string(rec.RecommendedAction))
}

func TestClient_RecommendationRejectsNonDecisionStep(t *testing.T) {
	engine := newFakeEngine(t)

	_, err := engine.client().Recommendation(context.Background(), "game-1", types.StepPaperwork)
	assert.ErrorContains(t, err, "has no recommendation")
}

func TestClient_ExportCSVGzip(t *testing.T) {
	const worksheet = "round,financial,quality\n1,300,2\n"
	engine := newFakeEngine(t)
	engine.router.HandleFunc("/api/game/{id}/export/csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(worksheet))
		_ = gz.Close()
	}).Methods(http.MethodGet)

	stream, err := engine.client().ExportCSV(context.Background(), "game-1")
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, worksheet, string(data))
}

func TestClient_ExportCSVPlain(t *testing.T) {
	const worksheet = "round,financial,quality\n"
	engine := newFakeEngine(t)
	engine.router.HandleFunc("/api/game/{id}/export/csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(worksheet))
	}).Methods(http.MethodGet)

	stream, err := engine.client().ExportCSV(context.Background(), "game-1")
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, worksheet, string(data))
}

func TestClient_History(t *testing.T) {
	engine := newFakeEngine(t)
	engine.handle(http.MethodGet, "/api/game/{id}/history", http.StatusOK, map[string]interface{}{
		"game_id": "game-1",
		"round_costs": []map[string]interface{}{
			{"round_number": 1, "financial": 300, "quality": 2},
		},
		"total_financial_cost": 300,
		"total_quality_cost":   2,
	})

	history, err := engine.client().History(context.Background(), "game-1")
	require.NoError(t, err)
	require.Len(t, history.RoundCosts, 1)
	assert.Equal(t, 300, history.RoundCosts[0].Financial)
	assert.Equal(t, 300, history.TotalFinancialCost)
}
