package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gametypes "github.com/bchampine/erops/pkg/game/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository creates a new PostgresRepository.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) Repository {
	return &PostgresRepository{
		conn: connectDb(ctx, connStr),
	}
}

func connectDb(ctx context.Context, connStr string) *pgx.Conn {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Unable to connect to database: %v\n", err))
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		panic(fmt.Sprintf("Unable to query database: %v\n", err))
	}

	return conn
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) CreateSession(ctx context.Context, sessionID string) error {
	q := `
	INSERT INTO sessions (run_id, session_id, created_at) VALUES ($1, $2, $3)
	ON CONFLICT (session_id) DO NOTHING;
	`
	_, err := r.conn.Exec(ctx, q, uuid.NewString(), sessionID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert session: %v", err)
	}

	return nil
}

func (r *PostgresRepository) SaveRoundState(ctx context.Context, sessionID string, step gametypes.StepType, state *gametypes.RoundState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal round state: %v", err)
	}

	q := `
	INSERT INTO round_snapshots (session_id, round_number, step, state, saved_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (session_id, round_number, step) DO UPDATE SET state = $4, saved_at = $5;
	`
	_, err = r.conn.Exec(ctx, q, sessionID, state.RoundNumber, string(step), string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert round snapshot: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LatestRoundState(ctx context.Context, sessionID string) (*gametypes.RoundState, error) {
	q := `
	SELECT state FROM round_snapshots
	WHERE session_id = $1
	ORDER BY saved_at DESC
	LIMIT 1;
	`
	var payload string
	if err := r.conn.QueryRow(ctx, q, sessionID).Scan(&payload); err != nil {
		if err == pgx.ErrNoRows || err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan round snapshot: %v", err)
	}

	state := &gametypes.RoundState{}
	if err := json.Unmarshal([]byte(payload), state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round state: %v", err)
	}

	return state, nil
}

func (r *PostgresRepository) LogAction(ctx context.Context, entry ActionLogEntry) error {
	q := `
	INSERT INTO action_log (session_id, round_number, step, payload, status, detail, logged_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.conn.Exec(ctx, q, entry.SessionID, entry.RoundNumber, string(entry.Step), entry.Payload, entry.Status, entry.Detail, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert action log entry: %v", err)
	}

	return nil
}
