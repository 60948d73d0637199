package classifier

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/models"
)

// Store looks up a previous classification of a track.
// Implementations return (nil, nil) when the track has never been classified.
type Store interface {
	LatestClassification(ctx context.Context, title, artist string) (*models.Classification, error)
}

// ReusingClassifier returns stored classifications when available and falls back to the wrapped [Classifier].
type ReusingClassifier struct {
	inner  Classifier
	store  Store
	logger *log.Logger
}

// NewReusingClassifier wraps inner with lookups against store.
func NewReusingClassifier(inner Classifier, store Store, logger *log.Logger) *ReusingClassifier {
	return &ReusingClassifier{inner: inner, store: store, logger: logger}
}

// Classify returns the stored classification for track, if any; otherwise it asks the wrapped classifier.
// Lookup failures are logged and treated as a miss.
func (r *ReusingClassifier) Classify(ctx context.Context, track models.Track) (models.Classification, error) {
	prev, err := r.store.LatestClassification(ctx, track.Title, track.Artist)
	if err != nil && r.logger != nil {
		r.logger.Warn("classification lookup failed", "track", track.String(), "error", err)
	}

	if err == nil && prev != nil && !prev.Unclassified() {
		return models.Classification{
			Track:  track,
			Genres: prev.Genres,
			Reply:  prev.Reply,
			Reused: true,
		}, nil
	}

	return r.inner.Classify(ctx, track)
}
