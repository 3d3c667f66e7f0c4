package repositories

import (
	"context"

	gametypes "github.com/bchampine/erops/pkg/game/types"
)

// ActionLogEntry records one submitted step and its outcome.
type ActionLogEntry struct {
	SessionID   string
	RoundNumber int
	Step        gametypes.StepType
	Payload     string
	Status      string
	Detail      string
}

// Repository is the local session log. It is a client-side convenience
// for auditing finished games; the engine remains the source of truth.
type Repository interface {
	Close(ctx context.Context) error
	CreateSession(ctx context.Context, sessionID string) error
	SaveRoundState(ctx context.Context, sessionID string, step gametypes.StepType, state *gametypes.RoundState) error
	// LatestRoundState returns the most recently saved snapshot for a
	// session, or *ErrNotFound if none has been saved yet.
	LatestRoundState(ctx context.Context, sessionID string) (*gametypes.RoundState, error)
	LogAction(ctx context.Context, entry ActionLogEntry) error
}
