package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
)

// ClassificationRepository persists model classifications keyed by normalized title and artist.
type ClassificationRepository struct {
	db *sql.DB
}

// NewClassificationRepository creates a new ClassificationRepository with the given database connection
func NewClassificationRepository(db *sql.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

// CreateBatch stores classifications for a session in one transaction.
func (r *ClassificationRepository) CreateBatch(ctx context.Context, sessionID string, classifications []models.Classification) error {
	if len(classifications) == 0 {
		return nil
	}

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO classifications (id, session_id, track_key, title, artist, genres, reply, reused, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, c := range classifications {
			_, err := stmt.ExecContext(ctx,
				shared.GenerateID(),
				sessionID,
				shared.NormalizeTrackKey(c.Track.Title, c.Track.Artist),
				c.Track.Title,
				c.Track.Artist,
				models.JoinGenres(c.Genres),
				c.Reply,
				c.Reused,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert classification: %w", err)
			}
		}
		return nil
	})
}

// Latest returns the most recent classification of a track, or nil when none is stored.
func (r *ClassificationRepository) Latest(ctx context.Context, title, artist string) (*models.Classification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT title, artist, genres, reply, reused
		FROM classifications
		WHERE track_key = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, shared.NormalizeTrackKey(title, artist))

	c, err := scanClassification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListBySession returns a session's classifications in insertion order.
func (r *ClassificationRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Classification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT title, artist, genres, reply, reused
		FROM classifications
		WHERE session_id = ?
		ORDER BY rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	defer rows.Close()

	out := []models.Classification{}
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanClassification(row scanner) (*models.Classification, error) {
	var c models.Classification
	var genres string

	if err := row.Scan(&c.Track.Title, &c.Track.Artist, &genres, &c.Reply, &c.Reused); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan classification: %w", err)
	}

	c.Genres = models.SplitGenres(genres)
	if len(c.Genres) == 0 {
		c.Genres = []models.Genre{models.Unclassified}
	}
	return &c, nil
}
