package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
)

// FilingRepository persists filing outcomes.
type FilingRepository struct {
	db *sql.DB
}

// NewFilingRepository creates a new FilingRepository with the given database connection
func NewFilingRepository(db *sql.DB) *FilingRepository {
	return &FilingRepository{db: db}
}

// CreateBatch stores filings for a session in one transaction.
func (r *FilingRepository) CreateBatch(ctx context.Context, sessionID string, filings []models.Filing) error {
	if len(filings) == 0 {
		return nil
	}

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO filings (id, session_id, title, artist, genre, playlist_id, playlist_name, track_uri, outcome, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, f := range filings {
			_, err := stmt.ExecContext(ctx,
				shared.GenerateID(),
				sessionID,
				f.Track.Title,
				f.Track.Artist,
				f.Genre.String(),
				f.PlaylistID,
				f.PlaylistName,
				f.TrackURI,
				f.Outcome.String(),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert filing: %w", err)
			}
		}
		return nil
	})
}

// ListBySession returns a session's filings in insertion order.
func (r *FilingRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Filing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT title, artist, genre, playlist_id, playlist_name, track_uri, outcome
		FROM filings
		WHERE session_id = ?
		ORDER BY rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list filings: %w", err)
	}
	defer rows.Close()

	out := []models.Filing{}
	for rows.Next() {
		var f models.Filing
		var genre, outcome string
		if err := rows.Scan(&f.Track.Title, &f.Track.Artist, &genre, &f.PlaylistID, &f.PlaylistName, &f.TrackURI, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan filing: %w", err)
		}

		f.Genre, _ = models.ParseGenre(genre)
		if f.Outcome, err = models.ParseOutcome(outcome); err != nil {
			return nil, fmt.Errorf("failed to scan filing: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
