package tasks

import (
	"fmt"

	"github.com/desertthunder/sortify/internal/models"
)

// ProgressUpdate represents a progress event during a session.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Session phase
	Batch   int    // One-based batch number
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Reporter receives progress updates synchronously, in order.
type Reporter interface {
	Report(update ProgressUpdate)
}

// ReporterFunc adapts a function to [Reporter].
type ReporterFunc func(ProgressUpdate)

func (f ReporterFunc) Report(update ProgressUpdate) { f(update) }

// Session phase enumeration
type Phase int

const (
	Fetching Phase = iota
	Classifying
	Filing
	PromptContinue
	Done
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Classifying:
		return "classifying"
	case Filing:
		return "filing"
	case PromptContinue:
		return "prompt_continue"
	case Done:
		return "done"
	default:
		return ""
	}
}

// ParsePhase resolves the name produced by [Phase.String].
func ParsePhase(s string) (Phase, bool) {
	for p := Fetching; p <= Done; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

func fetchingUpdate(batch, offset, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Batch:   batch,
		Message: fmt.Sprintf("Fetching %d saved tracks from offset %d...", size, offset),
	}
}

func fetchedUpdate(batch, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Batch:   batch,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Fetched %d tracks", count),
	}
}

func exhaustedUpdate(batch, offset int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Batch:   batch,
		Message: fmt.Sprintf("No more saved tracks after offset %d", offset),
	}
}

func classifiedUpdate(batch, step, total int, c models.Classification) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s: %s", step, total, c.Track.String(), models.JoinGenres(c.Genres))
	if c.Reused {
		msg += " (from history)"
	}
	return ProgressUpdate{
		Phase:   Classifying,
		Batch:   batch,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    c,
	}
}

func filingUpdate(batch, step, total int, f models.Filing) ProgressUpdate {
	var msg string
	switch f.Outcome {
	case models.OutcomeAdded:
		msg = fmt.Sprintf("Added %s to %s", f.Track.String(), f.PlaylistName)
	case models.OutcomeAlreadyPresent:
		msg = fmt.Sprintf("%s is already in %s", f.Track.String(), f.PlaylistName)
	case models.OutcomeNotFound:
		msg = fmt.Sprintf("Track %s not found on Spotify, skipping", f.Track.String())
	case models.OutcomeUnclassified:
		msg = fmt.Sprintf("No genre found for %s, skipping", f.Track.String())
	}
	return ProgressUpdate{
		Phase:   Filing,
		Batch:   batch,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    f,
	}
}

func createdPlaylistUpdate(batch int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Filing,
		Batch:   batch,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func doneUpdate(batch int, result *SessionResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Batch:   batch,
		Step:    result.Tracks,
		Total:   result.Tracks,
		Message: fmt.Sprintf("Session finished after %d batches (%d tracks)", result.Batches, result.Tracks),
		Data:    result,
	}
}
