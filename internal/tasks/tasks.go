// package tasks implements the organize session: fetch a batch of saved tracks, classify it, file it, and ask whether to continue.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/classifier"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
)

const DefaultBatchSize = 5

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Recorder stores an audit trail of a session. Failures are logged and never stop the session.
type Recorder interface {
	StartSession(ctx context.Context, offset, batchSize int) (string, error)
	RecordClassifications(ctx context.Context, sessionID string, classifications []models.Classification) error
	RecordFilings(ctx context.Context, sessionID string, filings []models.Filing) error
	FinishSession(ctx context.Context, sessionID string, summary SessionSummary) error
}

// SessionSummary is what a [Recorder] stores when a session ends.
type SessionSummary struct {
	Batches    int
	Tracks     int
	FinalPhase Phase
	FinishedAt time.Time
}

// SessionOpts controls a single run of [SessionEngine.Run].
type SessionOpts struct {
	Offset       int  // zero-based index of the first saved track
	BatchSize    int  // tracks per batch; defaults to [DefaultBatchSize]
	AutoContinue bool // never prompt; keep going until the library is exhausted
	MaxBatches   int  // stop after this many batches; 0 means unlimited
}

// SessionResult contains everything produced by a session.
type SessionResult struct {
	SessionID   string                  `json:"session_id,omitempty"`
	Assignments []models.Classification `json:"assignments"`
	Filings     []models.Filing         `json:"filings"`
	Created     []models.Playlist       `json:"created_playlists"`
	Batches     int                     `json:"batches"`
	Tracks      int                     `json:"tracks"`
	NextOffset  int                     `json:"next_offset"`
	FinalPhase  Phase                   `json:"-"`
}

// SessionEngine drives the Fetching → Classifying → Filing → PromptContinue loop.
type SessionEngine struct {
	library    services.Library
	classifier classifier.Classifier
	filer      *Filer
	prompter   Prompter
	reporter   Reporter
	recorder   Recorder
	logger     *log.Logger
}

// EngineOpts contains the dependencies of a SessionEngine.
type EngineOpts struct {
	Library         services.Library
	Classifier      classifier.Classifier
	Prompter        Prompter
	Reporter        Reporter
	Recorder        Recorder
	Logger          *log.Logger
	PublicPlaylists bool
}

// NewSessionEngine creates a SessionEngine. Library and Classifier are required.
func NewSessionEngine(opts EngineOpts) (*SessionEngine, error) {
	if opts.Library == nil {
		return nil, fmt.Errorf("%w: streaming service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("%w: classifier not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SessionEngine{
		library:    opts.Library,
		classifier: opts.Classifier,
		filer: NewFiler(opts.Library, FilerOpts{
			PublicPlaylists: opts.PublicPlaylists,
			Reporter:        opts.Reporter,
			Logger:          opts.Logger,
		}),
		prompter: opts.Prompter,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}, nil
}

// ContinueQuestion is asked after every batch.
func ContinueQuestion(batchSize int) string {
	return fmt.Sprintf("Do you want to fetch the next %d songs?", batchSize)
}

// Run processes batches of saved tracks until the library is exhausted, the operator declines,
// the batch cap is reached or ctx is cancelled.
//
// The returned result is never nil; on error it holds everything completed before the failure.
// FinalPhase is [Fetching] when an empty page ended the session and [PromptContinue] when the
// operator declined or the batch cap was reached.
func (e *SessionEngine) Run(ctx context.Context, opts SessionOpts) (*SessionResult, error) {
	if opts.Offset < 0 {
		return &SessionResult{}, fmt.Errorf("%w: offset must not be negative", shared.ErrInvalidArgument)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxBatches < 0 {
		return &SessionResult{}, fmt.Errorf("%w: max batches must not be negative", shared.ErrInvalidArgument)
	}
	if !opts.AutoContinue && e.prompter == nil {
		return &SessionResult{}, fmt.Errorf("%w: a prompter is required unless auto-continue is set", shared.ErrInvalidArgument)
	}

	result := &SessionResult{
		Assignments: []models.Classification{},
		Filings:     []models.Filing{},
		Created:     []models.Playlist{},
		NextOffset:  opts.Offset,
		FinalPhase:  Fetching,
	}

	e.startRecording(ctx, result, opts)
	defer e.finishRecording(ctx, result)

	offset := opts.Offset
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch := result.Batches + 1
		result.FinalPhase = Fetching
		e.report(fetchingUpdate(batch, offset, opts.BatchSize))

		tracks, err := e.library.SavedTracks(ctx, offset, opts.BatchSize)
		if err != nil {
			return result, fmt.Errorf("fetching saved tracks: %w", err)
		}
		if len(tracks) == 0 {
			e.report(exhaustedUpdate(batch, offset))
			break
		}
		e.report(fetchedUpdate(batch, len(tracks)))

		result.FinalPhase = Classifying
		classifications, err := classifier.ClassifyBatch(ctx, e.classifier, tracks)
		if err != nil {
			return result, err
		}
		for i, c := range classifications {
			e.report(classifiedUpdate(batch, i+1, len(classifications), c))
		}
		result.Assignments = append(result.Assignments, classifications...)
		e.record(ctx, result.SessionID, "classifications", func(ctx context.Context) error {
			return e.recorder.RecordClassifications(ctx, result.SessionID, classifications)
		})

		result.FinalPhase = Filing
		filing, err := e.filer.file(ctx, batch, classifications)
		if filing != nil {
			result.Filings = append(result.Filings, filing.Filings...)
			result.Created = append(result.Created, filing.Created...)
			e.record(ctx, result.SessionID, "filings", func(ctx context.Context) error {
				return e.recorder.RecordFilings(ctx, result.SessionID, filing.Filings)
			})
		}
		if err != nil {
			return result, err
		}

		result.Batches++
		result.Tracks += len(tracks)
		offset += len(tracks)
		result.NextOffset = offset

		e.logger.Info("batch complete", "batch", batch, "tracks", len(tracks),
			"added", filing.Added, "present", filing.Present, "not_found", filing.NotFound)

		result.FinalPhase = PromptContinue
		if opts.MaxBatches > 0 && result.Batches >= opts.MaxBatches {
			e.logger.Info("batch limit reached", "batches", result.Batches)
			break
		}
		if opts.AutoContinue {
			continue
		}

		ok, err := e.prompter.Confirm(ctx, ContinueQuestion(opts.BatchSize))
		if err != nil {
			return result, fmt.Errorf("reading answer: %w", err)
		}
		if !ok {
			break
		}
	}

	e.report(doneUpdate(result.Batches, result))
	return result, nil
}

func (e *SessionEngine) report(update ProgressUpdate) {
	if e.reporter != nil {
		e.reporter.Report(update)
	}
}

func (e *SessionEngine) startRecording(ctx context.Context, result *SessionResult, opts SessionOpts) {
	if e.recorder == nil {
		return
	}
	id, err := e.recorder.StartSession(ctx, opts.Offset, opts.BatchSize)
	if err != nil {
		e.logger.Warn("failed to record session start", "error", err)
		return
	}
	result.SessionID = id
	e.logger.Debug("recording session", "id", id)
}

// record runs fn against the recorder, detached from cancellation so an interrupted session is still stored.
func (e *SessionEngine) record(ctx context.Context, sessionID, what string, fn func(context.Context) error) {
	if e.recorder == nil || sessionID == "" {
		return
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		e.logger.Warn("failed to record "+what, "error", err)
	}
}

func (e *SessionEngine) finishRecording(ctx context.Context, result *SessionResult) {
	e.record(ctx, result.SessionID, "session end", func(ctx context.Context) error {
		return e.recorder.FinishSession(ctx, result.SessionID, SessionSummary{
			Batches:    result.Batches,
			Tracks:     result.Tracks,
			FinalPhase: result.FinalPhase,
			FinishedAt: time.Now(),
		})
	})
}
