// Package server runs the short-lived local HTTP server that completes the Spotify authorization code flow.
//
// # Routing
//
// The [Router] interface registers handlers behind a [Middleware] stack. [BasicRouter] wraps [http.ServeMux],
// filters by method and applies middleware in reverse order (last added runs first).
//
// # OAuth Callback
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code for a token and publishes
// exactly one [OAuthResult]. Later callbacks are rejected.
//
// [Authorize] ties the pieces together: it starts a [CallbackServer], opens the authorization URL, waits
// for the callback (or a timeout, or cancellation) and shuts the server down before returning the token.
package server
