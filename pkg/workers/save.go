package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bchampine/erops/pkg/game/types"
	"github.com/bchampine/erops/pkg/log"
	"github.com/bchampine/erops/pkg/queue"
	"github.com/bchampine/erops/pkg/repositories"
)

// SaveSnapshotRequest is one successful step transition to persist: the
// engine's post-step state plus the action payload that produced it.
type SaveSnapshotRequest struct {
	SessionID string
	Step      types.StepType
	State     *types.RoundState
	Action    interface{}
	Status    string
	Detail    string
}

type SaveSessionWorker struct {
	repository    repositories.Repository
	snapshotQueue queue.Queue
	interval      time.Duration
}

type NewSaveSessionWorkerOptions struct {
	Repository    repositories.Repository
	SnapshotQueue queue.Queue
	Interval      time.Duration
}

// NewSaveSessionWorker creates a new SaveSessionWorker. The worker
// periodically drains the snapshot queue and persists round states and
// action log entries to the repository. Persistence failures are logged
// and skipped; the local session log never blocks or fails gameplay.
func NewSaveSessionWorker(opts NewSaveSessionWorkerOptions) *SaveSessionWorker {
	return &SaveSessionWorker{
		repository:    opts.Repository,
		snapshotQueue: opts.SnapshotQueue,
		interval:      opts.Interval,
	}
}

func (w *SaveSessionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain(context.Background())
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *SaveSessionWorker) drain(ctx context.Context) {
	for _, message := range w.snapshotQueue.ReadAllMessages() {
		request, ok := message.(SaveSnapshotRequest)
		if !ok {
			log.Error("Failed to cast message to SaveSnapshotRequest: %T", message)
			continue
		}
		w.saveSnapshot(ctx, request)
	}
}

func (w *SaveSessionWorker) saveSnapshot(ctx context.Context, request SaveSnapshotRequest) {
	if err := w.repository.CreateSession(ctx, request.SessionID); err != nil {
		log.Error("Failed to record session: %v", err)
	}

	if request.State != nil {
		if err := w.repository.SaveRoundState(ctx, request.SessionID, request.Step, request.State); err != nil {
			log.Error("Failed to save round state: %v", err)
		}
	}

	payload := "{}"
	if request.Action != nil {
		payloadBytes, err := json.Marshal(request.Action)
		if err != nil {
			log.Error("Failed to marshal action payload: %v", err)
		} else {
			payload = string(payloadBytes)
		}
	}

	roundNumber := 0
	if request.State != nil {
		roundNumber = request.State.RoundNumber
	}
	status := request.Status
	if status == "" {
		status = "ok"
	}
	err := w.repository.LogAction(ctx, repositories.ActionLogEntry{
		SessionID:   request.SessionID,
		RoundNumber: roundNumber,
		Step:        request.Step,
		Payload:     payload,
		Status:      status,
		Detail:      request.Detail,
	})
	if err != nil {
		log.Error("Failed to log action: %v", err)
	}
}
