package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultAuthTimeout bounds how long [Authorize] waits for the browser callback.
const DefaultAuthTimeout = 2 * time.Minute

// CallbackPath is the redirect path registered with Spotify.
const CallbackPath = "/callback"

// OAuthResult contains the outcome of one authorization callback.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler handles the authorization code callback. Only the first request is processed.
type OAuthHandler struct {
	config   *oauth2.Config
	state    string
	results  chan OAuthResult
	once     sync.Once
	mu       sync.Mutex
	consumed bool
}

// NewOAuthHandler creates a handler that accepts callbacks carrying state.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{config: config, state: state, results: make(chan OAuthResult, 1)}
}

func (h *OAuthHandler) Routes() []string {
	return []string{CallbackPath}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.consumed {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.consumed = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(OAuthResult{Err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(OAuthResult{Err: fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.send(OAuthResult{Err: fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, successPage)
}

func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

// AuthorizeOpts configures [Authorize].
type AuthorizeOpts struct {
	// Addr is the host:port to bind. Ignored when Listener is set.
	Addr     string
	Listener net.Listener
	// Open presents the authorization URL to the user. Defaults to [shared.OpenBrowser].
	Open    func(url string) error
	Timeout time.Duration
	Output  io.Writer
	Logger  *log.Logger
}

// Authorize runs the authorization code flow for config and returns the issued token.
func Authorize(ctx context.Context, config *oauth2.Config, opts AuthorizeOpts) (*oauth2.Token, error) {
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAuthTimeout
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := NewOAuthHandler(config, state)
	router := NewBasicRouter()
	router.Use(RequestLogger(opts.Logger))
	router.Handler(handler)

	srv, err := NewCallbackServer(opts.Addr, opts.Listener, router)
	if err != nil {
		return nil, err
	}
	srv.Start()
	defer func() {
		if err := srv.Shutdown(ctx); err != nil {
			opts.Logger.Warn("error shutting down callback server", "error", err)
		}
	}()
	opts.Logger.Info("waiting for spotify callback", "addr", srv.Addr())

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintln(opts.Output, "→ Opening browser for Spotify authorization...")
	if err := opts.Open(authURL); err != nil {
		opts.Logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintf(opts.Output, "Please open this URL in your browser:\n%s\n\n", authURL)
	}
	fmt.Fprintf(opts.Output, "→ Waiting for authorization (%s timeout)...\n", opts.Timeout)

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if result.Err != nil {
			return nil, result.Err
		}
		if result.Token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return result.Token, nil
	case err := <-srv.Errors():
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, opts.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>sortify</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ sortify is authorized</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
