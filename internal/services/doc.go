// Package services defines the [Library] interface for the streaming service and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] wraps the zmb3 Spotify client. It authorizes with the OAuth2 authorization code
// flow; the [oauth2] client refreshes expired tokens using the refresh token, and
// [WithTokenNotifier] lets callers persist refreshed tokens.
//
// Listing operations follow pagination to the end. Saved tracks keep only their first credited artist.
// Catalog search uses the field-filtered query "track:<title> artist:<artist>" and returns the top hit.
//
// # Throttling
//
// [WithRateLimit] installs a token-bucket limiter on the HTTP transport so every API call,
// including token refreshes, waits for its turn.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : OAuthenticate() not called
//   - [shared.ErrTokenExpired] : API answered 401 or the token refresh failed
//   - [shared.ErrPlaylistNotFound] : API answered 404
//   - [shared.ErrTrackNotFound] : search returned no results
//   - [shared.ErrAPIRequest] : any other failure
package services
