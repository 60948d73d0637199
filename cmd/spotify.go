package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.newSpotifyService()
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.authorizeAndSave(ctx, svc)
	if err != nil {
		return err
	}

	if err := svc.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}
	userID, err := svc.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful (signed in as %s)", userID)
	r.writePlain("You can now use: sortify organize\n")
	return nil
}

// SpotifyLiked lists one page of liked songs.
func (r *Runner) SpotifyLiked(ctx context.Context, cmd *cli.Command) error {
	offset := cmd.Int("offset")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	if offset < 0 || limit <= 0 {
		return fmt.Errorf("%w: offset must be >= 0 and limit > 0", shared.ErrInvalidArgument)
	}

	r.logger.Infof("listing liked songs from offset %v", offset)

	var tracks []models.Track
	err := r.withReauth(ctx, func(library services.Library) error {
		var err error
		tracks, err = library.SavedTracks(ctx, offset, limit)
		return err
	})
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		r.writePlain("No liked songs after offset %d\n", offset)
		return nil
	}

	r.writePlain("Liked songs %d-%d:\n\n", offset+1, offset+len(tracks))
	for i, t := range tracks {
		r.writePlain("%d. %s\n", offset+i+1, t.String())
	}
	return nil
}

// SpotifyPlaylists lists the current user's playlists and marks those named after a genre.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	genresOnly := cmd.Bool("genres-only")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	var playlists []models.Playlist
	err := r.withReauth(ctx, func(library services.Library) error {
		var err error
		playlists, err = library.Playlists(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if genresOnly {
		playlists = lo.Filter(playlists, func(p models.Playlist, _ int) bool {
			_, ok := models.LookupGenre(p.Name)
			return ok
		})
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		marker := ""
		if g, ok := models.LookupGenre(p.Name); ok {
			marker = fmt.Sprintf(" [%s]", g.String())
		}
		r.writePlain("%d. %s%s\n", i+1, p.Name, marker)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("\n")
	}
	return nil
}

// withReauth runs fn against the library and retries once after reauthorizing when the token was rejected.
func (r *Runner) withReauth(ctx context.Context, fn func(services.Library) error) error {
	library, err := r.spotifyLibrary(ctx)
	if err != nil {
		return err
	}

	err = fn(library)
	if reauthed, authErr := r.handleSpotifyAuthError(ctx, err); reauthed {
		if authErr != nil {
			return authErr
		}
		err = fn(r.library)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return nil
}

// handleSpotifyAuthError checks if an error is a token expiration error and triggers reauthorization if needed.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil || !errors.Is(err, shared.ErrTokenExpired) {
		return false, err
	}
	if r.spotify == nil {
		return true, fmt.Errorf("spotify service does not support reauthorization: %w", err)
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")

	token, authErr := r.authorizeAndSave(ctx, r.spotify)
	if authErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", authErr)
	}
	if authErr := r.spotify.OAuthenticate(ctx, token); authErr != nil {
		return true, fmt.Errorf("failed to authenticate with new tokens: %w", authErr)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...")
	return true, nil
}
