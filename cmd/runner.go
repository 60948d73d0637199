package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/classifier"
	"github.com/desertthunder/sortify/internal/server"
	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Authorizer runs the interactive OAuth flow for a Spotify client configuration.
type Authorizer func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily from the loaded configuration so that commands
// which never touch Spotify or the model (genres, history) work without credentials.
type Runner struct {
	configPath string
	config     *shared.Config
	library    services.Library
	spotify    *services.SpotifyService
	classifier classifier.Classifier
	db         *sql.DB
	httpClient *http.Client
	authorize  Authorizer
	logger     *log.Logger
	input      io.Reader
	output     io.Writer

	mu      sync.Mutex
	closers []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Library, Classifier and DB override the services built from Config.
type RunnerOpts struct {
	ConfigPath string
	Config     *shared.Config
	Library    services.Library
	Classifier classifier.Classifier
	DB         *sql.DB
	HTTPClient *http.Client
	Authorize  Authorizer
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		configPath: opts.ConfigPath,
		config:     opts.Config,
		library:    opts.Library,
		classifier: opts.Classifier,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		authorize:  opts.Authorize,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
	}
	if r.authorize == nil {
		r.authorize = r.browserAuthorize
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		organizeCommand, classifyCommand, genresCommand, spotifyCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config, applies environment overrides and sets the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.configPath == "" {
		r.configPath = "config.toml"
	}

	if r.config == nil {
		config, err := shared.LoadConfigOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	r.config.ApplyEnv()

	level := cmd.String("log-level")
	if level == "" {
		level = r.config.Log.Level
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return ctx, err
	}

	return ctx, nil
}

// SetLogger replaces the logger used by the runner and any service built afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the history database and any log files opened by commands.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
	}
	for _, c := range r.closers {
		c.Close()
	}
	r.closers = nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
		r.config.ApplyEnv()
	}
	return r.config
}

// spotifyLibrary returns the streaming library, authenticating on first use.
//
// With no cached token the browser flow runs first. Refreshed tokens are written back to the config file.
func (r *Runner) spotifyLibrary(ctx context.Context) (services.Library, error) {
	if r.library != nil {
		return r.library, nil
	}

	svc, err := r.newSpotifyService()
	if err != nil {
		return nil, err
	}

	token := r.cfg().Credentials.Spotify.Token()
	if token == nil {
		r.logger.Info("no cached Spotify token, starting authorization")
		if token, err = r.authorizeAndSave(ctx, svc); err != nil {
			return nil, err
		}
	}

	if err := svc.OAuthenticate(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	r.spotify = svc
	r.library = svc
	return svc, nil
}

func (r *Runner) newSpotifyService() (*services.SpotifyService, error) {
	config := r.cfg()
	if err := config.ValidateSpotify(); err != nil {
		return nil, err
	}

	return services.NewSpotifyService(
		config.Credentials.Spotify.Map(),
		services.WithHTTPClient(r.httpClient),
		services.WithRateLimit(config.Spotify.RequestsPerSecond),
		services.WithTokenNotifier(r.persistToken),
	)
}

// persistToken stores a refreshed token in the config file.
func (r *Runner) persistToken(token *oauth2.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cfg().Credentials.Spotify.Update(token); err != nil {
		r.logger.Warn("ignoring refreshed token", "error", err)
		return
	}
	if err := shared.SaveConfig(r.configPath, r.cfg()); err != nil {
		r.logger.Warn("failed to save refreshed token", "error", err)
		return
	}
	r.logger.Debug("saved refreshed token", "path", r.configPath)
}

// authorizeAndSave runs the OAuth flow for svc and stores the token in the config file.
func (r *Runner) authorizeAndSave(ctx context.Context, svc services.OAuthService) (*oauth2.Token, error) {
	token, err := r.authorize(ctx, svc.GetOAuthConfig())
	if err != nil {
		return nil, err
	}

	if err := r.cfg().Credentials.Spotify.Update(token); err != nil {
		return nil, fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(r.configPath, r.cfg()); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)
	return token, nil
}

// browserAuthorize is the default [Authorizer]: a local callback server plus the system browser.
func (r *Runner) browserAuthorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	return server.Authorize(ctx, config, server.AuthorizeOpts{
		Addr:   r.callbackAddr(),
		Output: r.output,
		Logger: r.logger,
	})
}

// callbackAddr is the host:port of the configured redirect URI, falling back to [server] settings.
func (r *Runner) callbackAddr() string {
	config := r.cfg()
	if u, err := url.Parse(config.Credentials.Spotify.RedirectURI); err == nil && u.Port() != "" {
		return u.Host
	}
	return fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
}

// modelClassifier returns the genre classifier backed by the configured chat endpoint.
func (r *Runner) modelClassifier() (classifier.Classifier, error) {
	if r.classifier != nil {
		return r.classifier, nil
	}

	if err := r.cfg().ValidateModel(); err != nil {
		return nil, err
	}
	clf, err := classifier.NewLLMClassifier(r.cfg().Credentials.Model, r.logger)
	if err != nil {
		return nil, err
	}
	r.classifier = clf
	return clf, nil
}

// history opens the history database, applying migrations on first use.
func (r *Runner) history() (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenHistory(r.cfg().Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) addCloser(c io.Closer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, c)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
