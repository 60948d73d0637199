package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/sortify/internal/classifier"
	"github.com/desertthunder/sortify/internal/formatter"
	"github.com/desertthunder/sortify/internal/repositories"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/desertthunder/sortify/internal/tasks"
	"github.com/desertthunder/sortify/internal/ui"
	"github.com/urfave/cli/v3"
)

// tuiLogPath receives log output while the full-screen UI owns the terminal.
var tuiLogPath = filepath.Join("tmp", "sortify-tui.log")

// Organize runs the fetch → classify → file → prompt loop over the liked songs.
func (r *Runner) Organize(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.SessionOpts{
		Offset:       cmd.Int("offset"),
		BatchSize:    cmd.Int("batch-size"),
		AutoContinue: cmd.Bool("yes"),
		MaxBatches:   cmd.Int("max-batches"),
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = r.cfg().Session.BatchSize
	}
	record := cmd.Bool("record")
	reuse := cmd.Bool("reuse")
	reportPath := cmd.String("report")
	useTUI := cmd.Bool("tui")
	useJSON := cmd.Bool("json")

	// Injected services carry their own credentials.
	if r.library == nil && r.classifier == nil {
		if err := r.cfg().Validate(); err != nil {
			return err
		}
	}
	if reportPath != "" {
		if _, err := formatter.FormatFromPath(reportPath); err != nil {
			return err
		}
	}

	if useTUI {
		fileLogger, closer, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		fileLogger.SetLevel(r.logger.GetLevel())
		r.addCloser(closer)
		r.SetLogger(fileLogger)
	}

	library, err := r.spotifyLibrary(ctx)
	if err != nil {
		return err
	}
	clf, err := r.modelClassifier()
	if err != nil {
		return err
	}

	var recorder tasks.Recorder
	if record || reuse {
		db, err := r.history()
		if err != nil {
			return err
		}
		history := repositories.NewHistoryRecorder(db)
		if record {
			recorder = history
		}
		if reuse {
			clf = classifier.NewReusingClassifier(clf, history, r.logger)
		}
	}

	newEngine := func(reporter tasks.Reporter, prompter tasks.Prompter) (*tasks.SessionEngine, error) {
		return tasks.NewSessionEngine(tasks.EngineOpts{
			Library:         library,
			Classifier:      clf,
			Prompter:        prompter,
			Reporter:        reporter,
			Recorder:        recorder,
			Logger:          r.logger,
			PublicPlaylists: r.cfg().Session.PublicPlaylists,
		})
	}

	r.logger.Info("starting organize session", "offset", opts.Offset, "batch_size", opts.BatchSize, "auto", opts.AutoContinue)

	var result *tasks.SessionResult
	var runErr error
	if useTUI {
		result, runErr = ui.RunSession(ctx, func(ctx context.Context, reporter tasks.Reporter, prompter tasks.Prompter) (*tasks.SessionResult, error) {
			engine, err := newEngine(reporter, prompter)
			if err != nil {
				return nil, err
			}
			return engine.Run(ctx, opts)
		})
	} else {
		console := ui.NewConsole(r.input, r.output)
		engine, err := newEngine(console, console)
		if err != nil {
			return err
		}
		result, runErr = engine.Run(ctx, opts)
	}

	if result != nil {
		if err := r.writeSessionResult(result, reportPath, useJSON); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if errors.Is(runErr, shared.ErrTokenExpired) {
		return fmt.Errorf("%w: run 'sortify spotify auth' and try again", runErr)
	}
	return runErr
}

// writeSessionResult prints the accumulated assignments and writes the optional report.
func (r *Runner) writeSessionResult(result *tasks.SessionResult, reportPath string, useJSON bool) error {
	report := formatter.Report{Assignments: result.Assignments, Filings: result.Filings}

	if useJSON {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	} else if len(result.Assignments) > 0 {
		text, err := formatter.ExportToText(report)
		if err != nil {
			return err
		}
		r.writePlainln("Genre assignments")
		r.writePlain("%s", text)
		if len(result.Created) > 0 {
			r.writePlain("\nCreated %d playlists\n", len(result.Created))
		}
		r.writePlain("Next offset: %d\n", result.NextOffset)
	}

	if result.SessionID != "" {
		r.logger.Info("session recorded", "id", result.SessionID)
	}

	if reportPath != "" {
		if err := formatter.WriteReport(report, reportPath); err != nil {
			return err
		}
		r.logger.Info("report written", "path", reportPath)
		if !useJSON {
			r.writePlain("✓ Report saved to %s\n", reportPath)
		}
	}
	return nil
}
