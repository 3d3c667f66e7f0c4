package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gametypes "github.com/bchampine/erops/pkg/game/types"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "test.db"), "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(context.Background()) })
	return repo
}

func TestSQLiteRepository_LatestRoundState(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.CreateSession(ctx, "session-1"))

	_, err := repo.LatestRoundState(ctx, "session-1")
	assert.True(t, IsNotFound(err))

	first := &gametypes.RoundState{GameID: "session-1", RoundNumber: 1, CurrentStep: gametypes.StepEvent}
	require.NoError(t, repo.SaveRoundState(ctx, "session-1", gametypes.StepEvent, first))
	time.Sleep(2 * time.Millisecond)
	second := &gametypes.RoundState{GameID: "session-1", RoundNumber: 1, CurrentStep: gametypes.StepArrivals}
	require.NoError(t, repo.SaveRoundState(ctx, "session-1", gametypes.StepArrivals, second))

	state, err := repo.LatestRoundState(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, gametypes.StepArrivals, state.CurrentStep)
	assert.Equal(t, 1, state.RoundNumber)
}

func TestSQLiteRepository_SnapshotUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	state := &gametypes.RoundState{GameID: "session-1", RoundNumber: 2, CurrentStep: gametypes.StepExits}
	require.NoError(t, repo.SaveRoundState(ctx, "session-1", gametypes.StepExits, state))

	// re-saving the same round and step replaces, not duplicates
	state.TotalFinancialCost = 600
	require.NoError(t, repo.SaveRoundState(ctx, "session-1", gametypes.StepExits, state))

	loaded, err := repo.LatestRoundState(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 600, loaded.TotalFinancialCost)
}

func TestSQLiteRepository_SessionsIsolated(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	state := &gametypes.RoundState{GameID: "session-1", RoundNumber: 1}
	require.NoError(t, repo.SaveRoundState(ctx, "session-1", gametypes.StepEvent, state))

	_, err := repo.LatestRoundState(ctx, "session-2")
	assert.True(t, IsNotFound(err))
}

func TestSQLiteRepository_CreateSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.CreateSession(ctx, "session-1"))
	require.NoError(t, repo.CreateSession(ctx, "session-1"))
}

func TestSQLiteRepository_LogAction(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.LogAction(ctx, ActionLogEntry{
		SessionID:   "session-1",
		RoundNumber: 3,
		Step:        gametypes.StepStaffing,
		Payload:     `{"extra_staff":{"er":1}}`,
		Status:      "ok",
	}))
}
