// Spotify Web API implementation of [Library]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	maxSavedTracksPerPage   = 50
	maxPlaylistsPerPage     = 50
	maxPlaylistItemsPerPage = 100
	trackURIPrefix          = "spotify:track:"
)

// Scopes required to read the library and manage the user's playlists.
var spotifyScopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserReadPrivate,
}

// SpotifyService implements [Library] and [OAuthService] on top of the zmb3 Spotify client.
//
// Uses [oauth2] for authentication; expired access tokens are refreshed automatically
// and reported through the callback set with [WithTokenNotifier].
type SpotifyService struct {
	config     *oauth2.Config
	client     *spotify.Client
	httpClient *http.Client
	apiBaseURL string
	rps        float64
	onToken    func(*oauth2.Token)

	mu     sync.Mutex
	userID string
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithRateLimit caps outgoing API requests per second. Zero or negative disables throttling.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) { s.rps = rps }
}

// WithAPIBaseURL points the client at a different Web API root. The URL must end with a slash.
func WithAPIBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.apiBaseURL = u }
}

// WithHTTPClient sets the client used for token exchange and as the base transport.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// WithTokenNotifier registers fn to be called whenever the access token changes.
func WithTokenNotifier(fn func(*oauth2.Token)) SpotifyOption {
	return func(s *SpotifyService) { s.onToken = fn }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 client credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = shared.DefaultConfig().Credentials.Spotify.RedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       spotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration used for the authorization code exchange.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate exchanges an authorization code for a token and authenticates the service with it.
func (s *SpotifyService) Authenticate(ctx context.Context, authCode string) (*oauth2.Token, error) {
	if authCode == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrMissingArgument)
	}

	token, err := s.config.Exchange(context.WithValue(ctx, oauth2.HTTPClient, s.httpClient), authCode)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}

	if err := s.OAuthenticate(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// OAuthenticate authenticates the service with an existing token.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: no token available", shared.ErrNotAuthenticated)
	}

	base := &http.Client{Transport: newThrottledTransport(s.httpClient.Transport, s.rps)}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	var ts oauth2.TokenSource = oauth2.ReuseTokenSource(token, s.config.TokenSource(ctx, token))
	if s.onToken != nil {
		ts = &notifyingTokenSource{src: ts, last: token.AccessToken, notify: s.onToken}
	}

	var opts []spotify.ClientOption
	if s.apiBaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.apiBaseURL))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = spotify.New(oauth2.NewClient(ctx, ts), opts...)
	s.userID = ""
	return nil
}

// Authenticated reports whether a token has been supplied.
func (s *SpotifyService) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)
	}
	return s.client, nil
}

// CurrentUserID returns the ID of the authenticated user. The value is cached per token.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	client, err := s.api()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	cached := s.userID
	s.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return "", wrapAPIError("fetching current user", err)
	}

	s.mu.Lock()
	s.userID = user.ID
	s.mu.Unlock()
	return user.ID, nil
}

// SavedTracks retrieves up to limit saved tracks starting at offset.
// Only the first credited artist of each track is kept.
func (s *SpotifyService) SavedTracks(ctx context.Context, offset, limit int) ([]models.Track, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", shared.ErrInvalidArgument, offset)
	}
	if limit <= 0 {
		return []models.Track{}, nil
	}

	tracks := make([]models.Track, 0, limit)
	for len(tracks) < limit {
		pageSize := min(limit-len(tracks), maxSavedTracksPerPage)

		page, err := client.CurrentUsersTracks(ctx, spotify.Limit(pageSize), spotify.Offset(offset+len(tracks)))
		if err != nil {
			return nil, wrapAPIError("fetching saved tracks", err)
		}

		for _, saved := range page.Tracks {
			tracks = append(tracks, trackFromFull(saved.FullTrack))
		}

		if len(page.Tracks) < pageSize || page.Next == "" {
			break
		}
	}

	return tracks, nil
}

// Playlists retrieves all playlists of the current user, following pagination.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	offset := 0
	for {
		page, err := client.CurrentUsersPlaylists(ctx, spotify.Limit(maxPlaylistsPerPage), spotify.Offset(offset))
		if err != nil {
			return nil, wrapAPIError("fetching playlists", err)
		}

		for _, p := range page.Playlists {
			playlists = append(playlists, models.Playlist{
				ID:         p.ID.String(),
				Name:       p.Name,
				TrackCount: int(p.Tracks.Total),
				Public:     p.IsPublic,
			})
		}

		if page.Next == "" || len(page.Playlists) == 0 {
			break
		}
		offset += len(page.Playlists)
	}

	return playlists, nil
}

// CreatePlaylist creates an empty playlist named name for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name is empty", shared.ErrInvalidArgument)
	}

	userID, err := s.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	created, err := client.CreatePlaylistForUser(ctx, userID, name, "", public, false)
	if err != nil {
		return nil, wrapAPIError("creating playlist", err)
	}

	return &models.Playlist{
		ID:     created.ID.String(),
		Name:   created.Name,
		Public: created.IsPublic,
	}, nil
}

// PlaylistTrackURIs retrieves the URIs of all tracks in a playlist, following pagination.
// Episodes and unavailable items are skipped.
func (s *SpotifyService) PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	uris := []string{}
	offset := 0
	for {
		page, err := client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(maxPlaylistItemsPerPage), spotify.Offset(offset))
		if err != nil {
			return nil, wrapAPIError("fetching playlist items", err)
		}

		for _, item := range page.Items {
			if item.Track.Track != nil && item.Track.Track.URI != "" {
				uris = append(uris, string(item.Track.Track.URI))
			}
		}

		if page.Next == "" || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return uris, nil
}

// AddTrack appends track to the playlist. The track ID is derived from its URI when unset.
func (s *SpotifyService) AddTrack(ctx context.Context, playlistID string, track models.Track) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	id := track.ID
	if id == "" {
		id = strings.TrimPrefix(track.URI, trackURIPrefix)
	}
	if id == "" {
		return fmt.Errorf("%w: track %s has no id", shared.ErrInvalidArgument, track.String())
	}

	if _, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), spotify.ID(id)); err != nil {
		return wrapAPIError("adding track to playlist", err)
	}
	return nil
}

// SearchTrack searches the catalog with a field-filtered query and returns the top result.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	result, err := client.Search(ctx, SearchQuery(title, artist), spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, wrapAPIError("searching tracks", err)
	}

	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s by %s", shared.ErrTrackNotFound, title, artist)
	}

	track := trackFromFull(result.Tracks.Tracks[0])
	return &track, nil
}

// SearchQuery builds the field-filtered catalog query for a track.
func SearchQuery(title, artist string) string {
	return fmt.Sprintf("track:%s artist:%s", title, artist)
}

func trackFromFull(t spotify.FullTrack) models.Track {
	track := models.Track{
		ID:    t.ID.String(),
		URI:   string(t.URI),
		Title: t.Name,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// wrapAPIError maps Spotify API failures onto the shared error values.
func wrapAPIError(op string, err error) error {
	status := apiStatus(err)
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s: %v", shared.ErrAuthFailed, op, err)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %v", shared.ErrPlaylistNotFound, op, err)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

func apiStatus(err error) int {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status
	}
	return 0
}

// notifyingTokenSource reports every new access token handed out by src.
type notifyingTokenSource struct {
	src    oauth2.TokenSource
	notify func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (n *notifyingTokenSource) Token() (*oauth2.Token, error) {
	token, err := n.src.Token()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	changed := token.AccessToken != n.last
	n.last = token.AccessToken
	n.mu.Unlock()

	if changed {
		n.notify(token)
	}
	return token, nil
}
