package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gametypes "github.com/bchampine/erops/pkg/game/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, sessionID string) error {
	q := `
	INSERT OR IGNORE INTO sessions (run_id, session_id, created_at)
	VALUES (?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, uuid.NewString(), sessionID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert session: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) SaveRoundState(ctx context.Context, sessionID string, step gametypes.StepType, state *gametypes.RoundState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal round state: %v", err)
	}

	q := `
	INSERT OR REPLACE INTO round_snapshots (session_id, round_number, step, state, saved_at)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, q, sessionID, state.RoundNumber, string(step), string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert round snapshot: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LatestRoundState(ctx context.Context, sessionID string) (*gametypes.RoundState, error) {
	q := `
	SELECT state FROM round_snapshots
	WHERE session_id = ?
	ORDER BY saved_at DESC
	LIMIT 1;
	`
	var payload string
	if err := r.db.QueryRowContext(ctx, q, sessionID).Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
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

func (r *SQLiteRepository) LogAction(ctx context.Context, entry ActionLogEntry) error {
	q := `
	INSERT INTO action_log (session_id, round_number, step, payload, status, detail, logged_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, entry.SessionID, entry.RoundNumber, string(entry.Step), entry.Payload, entry.Status, entry.Detail, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert action log entry: %v", err)
	}

	return nil
}
