package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchampine/erops/pkg/game/types"
	"github.com/bchampine/erops/pkg/queue"
	"github.com/bchampine/erops/pkg/repositories"
)

type fakeRepository struct {
	sessions   []string
	saves      []*types.RoundState
	saveErr    error
	logEntries []repositories.ActionLogEntry
}

func (f *fakeRepository) Close(ctx context.Context) error { return nil }

func (f *fakeRepository) CreateSession(ctx context.Context, sessionID string) error {
	f.sessions = append(f.sessions, sessionID)
	return nil
}

func (f *fakeRepository) SaveRoundState(ctx context.Context, sessionID string, step types.StepType, state *types.RoundState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, state)
	return nil
}

func (f *fakeRepository) LatestRoundState(ctx context.Context, sessionID string) (*types.RoundState, error) {
	return nil, &repositories.ErrNotFound{}
}

func (f *fakeRepository) LogAction(ctx context.Context, entry repositories.ActionLogEntry) error {
	f.logEntries = append(f.logEntries, entry)
	return nil
}

func TestSaveSessionWorker_Drain(t *testing.T) {
	repo := &fakeRepository{}
	snapshotQueue := queue.NewInMemoryQueue(8)
	worker := NewSaveSessionWorker(NewSaveSessionWorkerOptions{
		Repository:    repo,
		SnapshotQueue: snapshotQueue,
		Interval:      time.Second,
	})

	state := &types.RoundState{GameID: "session-1", RoundNumber: 1, CurrentStep: types.StepArrivals}
	require.NoError(t, snapshotQueue.Enqueue(SaveSnapshotRequest{
		SessionID: "session-1",
		Step:      types.StepEvent,
		State:     state,
		Action:    map[string]int{"n": 1},
	}))

	worker.drain(context.Background())

	assert.Equal(t, []string{"session-1"}, repo.sessions)
	require.Len(t, repo.saves, 1)
	assert.Same(t, state, repo.saves[0])
	require.Len(t, repo.logEntries, 1)
	assert.Equal(t, types.StepEvent, repo.logEntries[0].Step)
	assert.Equal(t, "ok", repo.logEntries[0].Status)
	assert.JSONEq(t, `{"n":1}`, repo.logEntries[0].Payload)
	assert.Equal(t, 0, snapshotQueue.Size())
}

func TestSaveSessionWorker_NilActionLogsEmptyPayload(t *testing.T) {
	repo := &fakeRepository{}
	snapshotQueue := queue.NewInMemoryQueue(8)
	worker := NewSaveSessionWorker(NewSaveSessionWorkerOptions{
		Repository:    repo,
		SnapshotQueue: snapshotQueue,
		Interval:      time.Second,
	})

	require.NoError(t, snapshotQueue.Enqueue(SaveSnapshotRequest{
		SessionID: "session-1",
		Step:      types.StepPaperwork,
		State:     &types.RoundState{RoundNumber: 5},
	}))

	worker.drain(context.Background())

	require.Len(t, repo.logEntries, 1)
	assert.Equal(t, "{}", repo.logEntries[0].Payload)
	assert.Equal(t, 5, repo.logEntries[0].RoundNumber)
}

func TestSaveSessionWorker_SaveFailureStillLogsAction(t *testing.T) {
	repo := &fakeRepository{saveErr: assert.AnError}
	snapshotQueue := queue.NewInMemoryQueue(8)
	worker := NewSaveSessionWorker(NewSaveSessionWorkerOptions{
		Repository:    repo,
		SnapshotQueue: snapshotQueue,
		Interval:      time.Second,
	})

	require.NoError(t, snapshotQueue.Enqueue(SaveSnapshotRequest{
		SessionID: "session-1",
		Step:      types.StepExits,
		State:     &types.RoundState{RoundNumber: 2},
	}))

	worker.drain(context.Background())

	assert.Empty(t, repo.saves)
	require.Len(t, repo.logEntries, 1)
}
