package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/sortify/internal/formatter"
	"github.com/desertthunder/sortify/internal/repositories"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/urfave/cli/v3"
)

// sessionDetail is the JSON shape of 'history show'.
type sessionDetail struct {
	Session *repositories.Session `json:"session"`
	formatter.Report
}

// HistoryList lists recorded sessions, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	db, err := r.history()
	if err != nil {
		return err
	}

	sessions, err := repositories.NewSessionRepository(db).List(ctx, limit)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(sessions, true)
	}

	if len(sessions) == 0 {
		r.writePlain("No recorded sessions. Run 'sortify organize --record' to keep one.\n")
		return nil
	}

	r.writePlain("Found %d sessions:\n\n", len(sessions))
	for _, s := range sessions {
		finished := "unfinished"
		if s.FinishedAt != nil {
			finished = s.FinishedAt.Local().Format(time.DateTime)
		}
		r.writePlain("%s\n", s.ID)
		r.writePlain("   Started: %s (offset %d, batch size %d)\n", s.StartedAt.Local().Format(time.DateTime), s.StartOffset, s.BatchSize)
		r.writePlain("   Finished: %s\n", finished)
		r.writePlain("   Batches: %d, Tracks: %d, Final phase: %s\n\n", s.Batches, s.Tracks, s.FinalPhase)
	}
	return nil
}

// HistoryShow prints the assignments and filings of one session.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	useJSON := cmd.Bool("json")
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	db, err := r.history()
	if err != nil {
		return err
	}

	session, err := repositories.NewSessionRepository(db).Get(ctx, id)
	if err != nil {
		return err
	}
	assignments, err := repositories.NewClassificationRepository(db).ListBySession(ctx, id)
	if err != nil {
		return err
	}
	filings, err := repositories.NewFilingRepository(db).ListBySession(ctx, id)
	if err != nil {
		return err
	}

	report := formatter.Report{Assignments: assignments, Filings: filings}
	if useJSON {
		return r.writeJSON(sessionDetail{Session: session, Report: report}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Session %s", session.ID))
	r.writePlain("Batches: %d, Tracks: %d, Final phase: %s\n\n", session.Batches, session.Tracks, session.FinalPhase)

	text, err := formatter.ExportToText(report)
	if err != nil {
		return err
	}
	r.writePlain("%s", text)

	if len(filings) > 0 {
		r.writePlain("\nFilings:\n")
		for _, f := range filings {
			target := f.PlaylistName
			if target == "" {
				target = "-"
			}
			r.writePlain("  %-16s %s → %s\n", f.Outcome.String(), f.Track.String(), target)
		}
	}
	return nil
}

// HistoryDelete removes a session and everything recorded for it.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	db, err := r.history()
	if err != nil {
		return err
	}
	if err := repositories.NewSessionRepository(db).Delete(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Deleted session %s\n", id)
	return nil
}
