package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Classify asks the model for the genres of one song without touching Spotify.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(cmd.String("title"))
	artist := strings.TrimSpace(cmd.String("artist"))
	useJSON := cmd.Bool("json")

	if title == "" || artist == "" {
		return fmt.Errorf("%w: --title and --artist are required", shared.ErrMissingArgument)
	}

	clf, err := r.modelClassifier()
	if err != nil {
		return err
	}

	c, err := clf.Classify(ctx, models.Track{Title: title, Artist: artist})
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(c, true)
	}

	r.writePlain("%s: %s\n", c.Track.String(), models.JoinGenres(c.Genres))
	if c.Unclassified() && c.Reply != "" {
		r.writePlain("Model replied: %q\n", c.Reply)
	}
	return nil
}

// Genres prints the vocabulary in the order genres are matched.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Genres")
	for i, g := range models.Vocabulary() {
		r.writePlain("%2d. %s\n", i+1, g.String())
	}
	return nil
}
