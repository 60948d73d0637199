package repositories

import (
	"context"
	"database/sql"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/tasks"
)

// HistoryRecorder implements tasks.Recorder and classifier.Store on top of the history repositories.
type HistoryRecorder struct {
	Sessions        *SessionRepository
	Classifications *ClassificationRepository
	Filings         *FilingRepository
}

// NewHistoryRecorder creates a HistoryRecorder for a migrated database.
func NewHistoryRecorder(db *sql.DB) *HistoryRecorder {
	return &HistoryRecorder{
		Sessions:        NewSessionRepository(db),
		Classifications: NewClassificationRepository(db),
		Filings:         NewFilingRepository(db),
	}
}

func (h *HistoryRecorder) StartSession(ctx context.Context, offset, batchSize int) (string, error) {
	s, err := h.Sessions.Create(ctx, offset, batchSize)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

// RecordClassifications stores every classification of a batch. Reused ones keep their marker.
func (h *HistoryRecorder) RecordClassifications(ctx context.Context, sessionID string, classifications []models.Classification) error {
	return h.Classifications.CreateBatch(ctx, sessionID, classifications)
}

func (h *HistoryRecorder) RecordFilings(ctx context.Context, sessionID string, filings []models.Filing) error {
	return h.Filings.CreateBatch(ctx, sessionID, filings)
}

func (h *HistoryRecorder) FinishSession(ctx context.Context, sessionID string, summary tasks.SessionSummary) error {
	return h.Sessions.Finish(ctx, sessionID, summary.Batches, summary.Tracks, summary.FinalPhase.String(), summary.FinishedAt)
}

// LatestClassification returns the most recent stored classification of a track.
func (h *HistoryRecorder) LatestClassification(ctx context.Context, title, artist string) (*models.Classification, error) {
	return h.Classifications.Latest(ctx, title, artist)
}
