package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/samber/lo"
)

// BatchFiling contains the filings produced for one batch.
type BatchFiling struct {
	Filings  []models.Filing
	Created  []models.Playlist // playlists created while filing
	Added    int
	Present  int
	NotFound int
}

func (b *BatchFiling) add(f models.Filing) {
	b.Filings = append(b.Filings, f)
	switch f.Outcome {
	case models.OutcomeAdded:
		b.Added++
	case models.OutcomeAlreadyPresent:
		b.Present++
	case models.OutcomeNotFound:
		b.NotFound++
	}
}

// Filer places classified tracks into per-genre playlists.
type Filer struct {
	library  services.Library
	public   bool
	reporter Reporter
	logger   *log.Logger
}

// FilerOpts contains configuration options for creating a Filer.
type FilerOpts struct {
	PublicPlaylists bool
	Reporter        Reporter
	Logger          *log.Logger
}

// NewFiler creates a Filer that mutates playlists through library.
func NewFiler(library services.Library, opts FilerOpts) *Filer {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Filer{
		library:  library,
		public:   opts.PublicPlaylists,
		reporter: opts.Reporter,
		logger:   opts.Logger,
	}
}

// File resolves each classified track in the catalog and appends it to the playlist of every assigned genre.
//
// The user's playlists are listed once per call; playlists created here are added to that index.
// Membership is fetched for every track-genre pair so the same track is never appended twice.
func (f *Filer) File(ctx context.Context, classifications []models.Classification) (*BatchFiling, error) {
	return f.file(ctx, 0, classifications)
}

func (f *Filer) file(ctx context.Context, batch int, classifications []models.Classification) (*BatchFiling, error) {
	result := &BatchFiling{}

	var index []models.Playlist
	indexLoaded := false

	for i, c := range classifications {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		step, total := i+1, len(classifications)

		if c.Unclassified() {
			filing := models.Filing{Track: c.Track, Genre: models.Unclassified, Outcome: models.OutcomeUnclassified}
			result.add(filing)
			f.report(filingUpdate(batch, step, total, filing))
			continue
		}

		match, err := f.library.SearchTrack(ctx, c.Track.Title, c.Track.Artist)
		if errors.Is(err, shared.ErrTrackNotFound) {
			filing := models.Filing{Track: c.Track, Genre: models.Unclassified, Outcome: models.OutcomeNotFound}
			result.add(filing)
			f.report(filingUpdate(batch, step, total, filing))
			continue
		}
		if err != nil {
			return result, fmt.Errorf("searching for %s: %w", c.Track.String(), err)
		}

		if !indexLoaded {
			if index, err = f.library.Playlists(ctx); err != nil {
				return result, fmt.Errorf("listing playlists: %w", err)
			}
			indexLoaded = true
		}

		for _, genre := range c.Genres {
			if genre == models.Unclassified {
				continue
			}

			playlist, found := lo.Find(index, func(p models.Playlist) bool { return p.Matches(genre.String()) })
			if !found {
				created, err := f.library.CreatePlaylist(ctx, genre.String(), f.public)
				if err != nil {
					return result, fmt.Errorf("creating playlist %s: %w", genre.String(), err)
				}
				playlist = *created
				index = append(index, playlist)
				result.Created = append(result.Created, playlist)
				f.logger.Info("created playlist", "name", playlist.Name, "id", playlist.ID)
				f.report(createdPlaylistUpdate(batch, created))
			}

			uris, err := f.library.PlaylistTrackURIs(ctx, playlist.ID)
			if err != nil {
				return result, fmt.Errorf("reading playlist %s: %w", playlist.Name, err)
			}

			filing := models.Filing{
				Track:        c.Track,
				TrackURI:     match.URI,
				Genre:        genre,
				PlaylistID:   playlist.ID,
				PlaylistName: playlist.Name,
				Outcome:      models.OutcomeAlreadyPresent,
			}

			if !lo.Contains(uris, match.URI) {
				if err := f.library.AddTrack(ctx, playlist.ID, *match); err != nil {
					return result, fmt.Errorf("adding %s to %s: %w", c.Track.String(), playlist.Name, err)
				}
				filing.Outcome = models.OutcomeAdded
			}

			f.logger.Debug("filed track", "track", c.Track.String(), "playlist", playlist.Name, "outcome", filing.Outcome.String())
			result.add(filing)
			f.report(filingUpdate(batch, step, total, filing))
		}
	}

	return result, nil
}

func (f *Filer) report(update ProgressUpdate) {
	if f.reporter != nil {
		f.reporter.Report(update)
	}
}
