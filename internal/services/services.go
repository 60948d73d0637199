// package services defines the interfaces used to talk to the streaming service
package services

import (
	"context"

	"github.com/desertthunder/sortify/internal/models"
	"golang.org/x/oauth2"
)

// Library defines the streaming-service operations needed to sort saved tracks into genre playlists.
type Library interface {
	// SavedTracks returns up to limit of the user's saved tracks starting at offset, most recently saved first.
	// An empty slice means the library is exhausted.
	SavedTracks(ctx context.Context, offset, limit int) ([]models.Track, error)

	// Playlists returns every playlist of the current user.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// CreatePlaylist creates an empty playlist owned by the current user.
	CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error)

	// PlaylistTrackURIs returns the URIs of every track in a playlist.
	PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error)

	// AddTrack appends a single track to a playlist.
	AddTrack(ctx context.Context, playlistID string, track models.Track) error

	// SearchTrack returns the best catalog match for title and artist.
	// Returns [shared.ErrTrackNotFound] when the search has no results.
	SearchTrack(ctx context.Context, title, artist string) (*models.Track, error)
}

// OAuthService is implemented by services that authorize through the OAuth2 authorization code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
