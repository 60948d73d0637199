package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sortify/internal/shared"
)

// Session is a stored organize run.
type Session struct {
	ID          string     `json:"id"`
	StartOffset int        `json:"start_offset"`
	BatchSize   int        `json:"batch_size"`
	Batches     int        `json:"batches"`
	Tracks      int        `json:"tracks"`
	FinalPhase  string     `json:"final_phase"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// SessionRepository persists organize sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session with a generated ID.
func (r *SessionRepository) Create(ctx context.Context, startOffset, batchSize int) (*Session, error) {
	s := &Session{
		ID:          shared.GenerateID(),
		StartOffset: startOffset,
		BatchSize:   batchSize,
		StartedAt:   time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, start_offset, batch_size, started_at)
		VALUES (?, ?, ?, ?)
	`, s.ID, s.StartOffset, s.BatchSize, s.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return s, nil
}

// Finish stores the final counters and phase of a session.
func (r *SessionRepository) Finish(ctx context.Context, id string, batches, tracks int, finalPhase string, finishedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET batches = ?, tracks = ?, final_phase = ?, finished_at = ?
		WHERE id = ?
	`, batches, tracks, finalPhase, finishedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_offset, batch_size, batches, tracks, final_phase, started_at, finished_at
		FROM sessions
		WHERE id = ?
	`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return s, err
}

// List returns the most recent sessions first. A non-positive limit returns all sessions.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]Session, error) {
	query := `
		SELECT id, start_offset, batch_size, batches, tracks, final_phase, started_at, finished_at
		FROM sessions
		ORDER BY started_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Delete removes a session together with its classifications and filings.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var s Session
	var finished sql.NullTime

	if err := row.Scan(&s.ID, &s.StartOffset, &s.BatchSize, &s.Batches, &s.Tracks, &s.FinalPhase, &s.StartedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if finished.Valid {
		s.FinishedAt = &finished.Time
	}
	return &s, nil
}
