package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/repositories"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/desertthunder/sortify/internal/tasks"
	tu "github.com/desertthunder/sortify/internal/testing"
	"golang.org/x/oauth2"
)

var (
	essence = models.Track{Title: "Essence", Artist: "Wizkid"}
	soWhat  = models.Track{Title: "So What", Artist: "Miles Davis"}
	mystery = models.Track{Title: "Mystery", Artist: "Nobody"}
)

type testEnv struct {
	runner     *Runner
	library    *tu.MockLibrary
	classifier *tu.MockClassifier
	output     *bytes.Buffer
	configPath string
}

// newTestEnv builds a runner backed by mocks and an in-memory history database.
// input is what the operator types at the continue prompts.
func newTestEnv(t *testing.T, input string, saved ...models.Track) *testEnv {
	t.Helper()
	t.Setenv(shared.EnvModelAPIKey, "")

	config := shared.DefaultConfig()
	config.Database.Path = ":memory:"

	env := &testEnv{
		library: tu.NewMockLibrary(saved...),
		classifier: &tu.MockClassifier{Genres: map[string][]models.Genre{
			essence.Title: {models.Afrobeats, models.RnBSoul},
			soWhat.Title:  {models.Jazz},
		}},
		output:     &bytes.Buffer{},
		configPath: filepath.Join(t.TempDir(), "config.toml"),
	}
	env.runner = NewRunner(RunnerOpts{
		Config:     config,
		Library:    env.library,
		Classifier: env.classifier,
		Logger:     log.New(io.Discard),
		Input:      strings.NewReader(input),
		Output:     env.output,
	})
	t.Cleanup(env.runner.Close)
	return env
}

func (e *testEnv) run(args ...string) error {
	argv := append([]string{"sortify", "--config", e.configPath}, args...)
	return newApp(e.runner).Run(context.Background(), argv)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			library := tu.NewMockLibrary()
			clf := &tu.MockClassifier{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Library:    library,
				Classifier: clf,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.library != library {
				t.Error("expected library to be set")
			}
			if runner.classifier != clf {
				t.Error("expected classifier to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			if NewRunner(RunnerOpts{}).logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			if NewRunner(RunnerOpts{}).output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil input uses stdin", func(t *testing.T) {
			if NewRunner(RunnerOpts{}).input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			if NewRunner(RunnerOpts{}).httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("Before", func(t *testing.T) {
		t.Run("loads config file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			config := shared.DefaultConfig()
			config.Session.BatchSize = 7
			config.Log.Level = "debug"
			if err := shared.SaveConfig(path, config); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			logger := log.New(io.Discard)
			runner := NewRunner(RunnerOpts{Logger: logger, Output: &bytes.Buffer{}})
			if err := newApp(runner).Run(context.Background(), []string{"sortify", "--config", path, "genres"}); err != nil {
				t.Fatalf("run failed: %v", err)
			}

			if runner.config.Session.BatchSize != 7 {
				t.Errorf("expected batch size from file, got %d", runner.config.Session.BatchSize)
			}
			if logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected debug level from config, got %v", logger.GetLevel())
			}
		})

		t.Run("missing file uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: &bytes.Buffer{}})
			path := filepath.Join(t.TempDir(), "absent.toml")
			if err := newApp(runner).Run(context.Background(), []string{"sortify", "--config", path, "genres"}); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if runner.config.Session.BatchSize != tasks.DefaultBatchSize {
				t.Errorf("expected default batch size, got %d", runner.config.Session.BatchSize)
			}
			if runner.configPath != path {
				t.Errorf("expected config path %s, got %s", path, runner.configPath)
			}
		})

		t.Run("flag overrides log level", func(t *testing.T) {
			env := newTestEnv(t, "")
			if err := env.run("--log-level", "error", "genres"); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if env.runner.logger.GetLevel() != log.ErrorLevel {
				t.Errorf("expected error level, got %v", env.runner.logger.GetLevel())
			}
		})

		t.Run("invalid log level", func(t *testing.T) {
			env := newTestEnv(t, "")
			if err := env.run("--log-level", "loud", "genres"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("callbackAddr", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})
		if got := runner.callbackAddr(); got != "127.0.0.1:3000" {
			t.Errorf("expected redirect host, got %s", got)
		}

		runner.config.Credentials.Spotify.RedirectURI = "not a url"
		runner.config.Server.Port = 4000
		if got := runner.callbackAddr(); got != "127.0.0.1:4000" {
			t.Errorf("expected server fallback, got %s", got)
		}
	})
}

func TestOrganize(t *testing.T) {
	t.Run("prompts between batches", func(t *testing.T) {
		env := newTestEnv(t, "yes\nno\n", essence, soWhat, mystery)
		if err := env.run("organize", "--batch-size", "2"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}

		output := env.output.String()
		if strings.Count(output, "Do you want to fetch the next 2 songs? (yes/no): ") != 2 {
			t.Errorf("expected two prompts, got:\n%s", output)
		}
		for _, want := range []string{
			"Added Essence by Wizkid to Afrobeats",
			"No genre found for Mystery by Nobody, skipping",
			"Genre assignments",
			"1. Essence by Wizkid: Afrobeats, R&B/Soul",
			"2. So What by Miles Davis: Jazz",
			"3. Mystery by Nobody: Unclassified",
			"Next offset: 3",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}

		for _, name := range []string{"Afrobeats", "R&B/Soul", "Jazz"} {
			if _, ok := env.library.PlaylistNamed(name); !ok {
				t.Errorf("expected playlist %s to be created", name)
			}
		}
	})

	t.Run("declining stops after first batch", func(t *testing.T) {
		env := newTestEnv(t, "no\n", essence, soWhat, mystery)
		if err := env.run("organize", "--batch-size", "1"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}
		if len(env.classifier.Calls) != 1 {
			t.Errorf("expected one classification, got %d", len(env.classifier.Calls))
		}
	})

	t.Run("auto continue with json", func(t *testing.T) {
		env := newTestEnv(t, "", essence, soWhat, mystery)
		if err := env.run("organize", "--yes", "--batch-size", "2", "--json"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}

		output := env.output.String()
		if strings.Contains(output, "(yes/no)") {
			t.Error("auto continue must not prompt")
		}

		jsonStart := strings.Index(output, "{\n")
		if jsonStart < 0 {
			t.Fatalf("expected JSON result, got:\n%s", output)
		}
		var result struct {
			Assignments []json.RawMessage `json:"assignments"`
			Batches     int               `json:"batches"`
			NextOffset  int               `json:"next_offset"`
		}
		if err := json.Unmarshal([]byte(output[jsonStart:]), &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(result.Assignments) != 3 || result.Batches != 2 || result.NextOffset != 3 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("max batches", func(t *testing.T) {
		env := newTestEnv(t, "", essence, soWhat, mystery)
		if err := env.run("organize", "--yes", "--batch-size", "1", "--max-batches", "2"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}
		if len(env.classifier.Calls) != 2 {
			t.Errorf("expected two classifications, got %d", len(env.classifier.Calls))
		}
	})

	t.Run("offset past the end", func(t *testing.T) {
		env := newTestEnv(t, "", essence)
		if err := env.run("organize", "--offset", "50"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}
		if len(env.classifier.Calls) != 0 {
			t.Error("classifier must not run for an empty page")
		}
		if strings.Contains(env.output.String(), "Genre assignments") {
			t.Error("expected no assignment list")
		}
	})

	t.Run("report", func(t *testing.T) {
		env := newTestEnv(t, "", essence, soWhat)
		path := filepath.Join(t.TempDir(), "out", "report.md")
		if err := env.run("organize", "--yes", "--report", path); err != nil {
			t.Fatalf("organize failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "## Jazz") || !strings.Contains(content, "Miles Davis - So What") {
			t.Errorf("unexpected report:\n%s", content)
		}
	})

	t.Run("unsupported report extension fails early", func(t *testing.T) {
		env := newTestEnv(t, "", essence)
		err := env.run("organize", "--yes", "--report", "report.pdf")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if env.library.Calls("SavedTracks") != 0 {
			t.Error("expected no fetch before validating the report path")
		}
	})

	t.Run("record and reuse", func(t *testing.T) {
		env := newTestEnv(t, "", essence, soWhat)
		if err := env.run("organize", "--yes", "--record"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}

		sessions, err := repositories.NewSessionRepository(env.runner.db).List(context.Background(), 10)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 1 || sessions[0].Tracks != 2 || sessions[0].FinishedAt == nil {
			t.Fatalf("unexpected sessions %+v", sessions)
		}

		firstID := sessions[0].ID
		env.classifier.Calls = nil
		env.classifier.Genres = map[string][]models.Genre{}
		if err := env.run("organize", "--yes", "--reuse"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}
		if len(env.classifier.Calls) != 0 {
			t.Errorf("expected stored classifications to be reused, model called %d times", len(env.classifier.Calls))
		}
		if !strings.Contains(env.output.String(), "Essence by Wizkid: Afrobeats, R&B/Soul (from history)") {
			t.Errorf("expected reused classification in output:\n%s", env.output.String())
		}

		if err := env.run("organize", "--yes", "--record", "--reuse"); err != nil {
			t.Fatalf("organize failed: %v", err)
		}
		sessions, err = repositories.NewSessionRepository(env.runner.db).List(context.Background(), 10)
		if err != nil || len(sessions) != 2 {
			t.Fatalf("expected two sessions, got %+v, %v", sessions, err)
		}
		reusingID := sessions[0].ID
		if reusingID == firstID {
			reusingID = sessions[1].ID
		}
		stored, err := repositories.NewClassificationRepository(env.runner.db).ListBySession(context.Background(), reusingID)
		if err != nil {
			t.Fatalf("failed to list classifications: %v", err)
		}
		if len(stored) != 2 || !stored[0].Reused || !stored[1].Reused {
			t.Errorf("expected the reusing session to record both tracks as reused, got %+v", stored)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		env := newTestEnv(t, "", essence)
		env.library.SavedErr = shared.ErrTokenExpired
		err := env.run("organize", "--yes")
		if !errors.Is(err, shared.ErrTokenExpired) || !strings.Contains(err.Error(), "sortify spotify auth") {
			t.Errorf("expected token hint, got %v", err)
		}
	})

	t.Run("missing model credentials", func(t *testing.T) {
		env := newTestEnv(t, "", essence)
		env.runner.classifier = nil
		if err := env.run("organize", "--yes"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestClassify(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		env := newTestEnv(t, "")
		if err := env.run("classify", "--title", "Essence", "--artist", "Wizkid"); err != nil {
			t.Fatalf("classify failed: %v", err)
		}
		if got := env.output.String(); got != "Essence by Wizkid: Afrobeats, R&B/Soul\n" {
			t.Errorf("unexpected output %q", got)
		}
		if env.library.Calls("SearchTrack") != 0 {
			t.Error("classify must not touch the library")
		}
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(t, "")
		if err := env.run("classify", "-t", "So What", "-a", "Miles Davis", "--json"); err != nil {
			t.Fatalf("classify failed: %v", err)
		}
		var c models.Classification
		if err := json.Unmarshal(env.output.Bytes(), &c); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(c.Genres) != 1 || c.Genres[0] != models.Jazz {
			t.Errorf("unexpected genres %v", c.Genres)
		}
	})

	t.Run("classifier error", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.classifier.Err = shared.ErrClassifierRequest
		if err := env.run("classify", "-t", "x", "-a", "y"); !errors.Is(err, shared.ErrClassifierRequest) {
			t.Errorf("expected ErrClassifierRequest, got %v", err)
		}
	})
}

func TestGenres(t *testing.T) {
	env := newTestEnv(t, "")
	if err := env.run("genres"); err != nil {
		t.Fatalf("genres failed: %v", err)
	}
	output := env.output.String()
	for _, want := range []string{" 1. Afrobeats", " 7. Electronic/Dance (EDM)", "16. Indie/Alternative"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSpotify(t *testing.T) {
	t.Run("liked", func(t *testing.T) {
		env := newTestEnv(t, "", essence, soWhat, mystery)
		if err := env.run("spotify", "liked", "--offset", "1", "--limit", "5"); err != nil {
			t.Fatalf("liked failed: %v", err)
		}
		output := env.output.String()
		if !strings.Contains(output, "Liked songs 2-3:") || !strings.Contains(output, "3. Mystery by Nobody") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})

	t.Run("liked rejects bad range", func(t *testing.T) {
		env := newTestEnv(t, "")
		if err := env.run("spotify", "liked", "--limit", "0"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("playlists", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.library.AddPlaylist("p1", "pop")
		env.library.AddPlaylist("p2", "Road Trip")

		if err := env.run("spotify", "playlists"); err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		output := env.output.String()
		if !strings.Contains(output, "Found 2 playlists") || !strings.Contains(output, "1. pop [Pop]") {
			t.Errorf("unexpected output:\n%s", output)
		}

		env.output.Reset()
		if err := env.run("spotify", "playlists", "--genres-only", "--json"); err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		var playlists []models.Playlist
		if err := json.Unmarshal(env.output.Bytes(), &playlists); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(playlists) != 1 || playlists[0].ID != "p1" {
			t.Errorf("expected only the genre playlist, got %+v", playlists)
		}
	})

	t.Run("api error", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.library.PlaylistErr = errors.New("boom")
		if err := env.run("spotify", "playlists"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestSpotifyLibrary(t *testing.T) {
	newRunner := func(t *testing.T, authorize Authorizer) (*Runner, string) {
		t.Helper()
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "client"
		config.Credentials.Spotify.ClientSecret = "secret"
		path := filepath.Join(t.TempDir(), "config.toml")
		return NewRunner(RunnerOpts{
			ConfigPath: path,
			Config:     config,
			Authorize:  authorize,
			Logger:     log.New(io.Discard),
			Output:     &bytes.Buffer{},
		}), path
	}

	t.Run("authorizes when no token is cached", func(t *testing.T) {
		var authorized int
		runner, path := newRunner(t, func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
			authorized++
			if config.ClientID != "client" {
				t.Errorf("unexpected client id %s", config.ClientID)
			}
			return &oauth2.Token{AccessToken: "fresh", RefreshToken: "refresh", TokenType: "Bearer"}, nil
		})

		library, err := runner.spotifyLibrary(context.Background())
		if err != nil {
			t.Fatalf("spotifyLibrary failed: %v", err)
		}
		if library == nil || runner.spotify == nil {
			t.Fatal("expected spotify service to be built")
		}
		if authorized != 1 {
			t.Errorf("expected one authorization, got %d", authorized)
		}

		saved, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if saved.Credentials.Spotify.AccessToken != "fresh" || saved.Credentials.Spotify.RefreshToken != "refresh" {
			t.Errorf("expected token to be saved, got %+v", saved.Credentials.Spotify)
		}

		if _, err := runner.spotifyLibrary(context.Background()); err != nil || authorized != 1 {
			t.Errorf("expected cached library, err=%v authorized=%d", err, authorized)
		}
	})

	t.Run("uses cached token", func(t *testing.T) {
		runner, _ := newRunner(t, func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
			t.Error("authorization should not run with a cached token")
			return nil, shared.ErrAuthFailed
		})
		runner.config.Credentials.Spotify.AccessToken = "cached"

		if _, err := runner.spotifyLibrary(context.Background()); err != nil {
			t.Fatalf("spotifyLibrary failed: %v", err)
		}
	})

	t.Run("authorization failure", func(t *testing.T) {
		runner, _ := newRunner(t, func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
			return nil, shared.ErrTimeout
		})
		if _, err := runner.spotifyLibrary(context.Background()); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv(shared.EnvSpotifyClientID, "")
		runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: log.New(io.Discard)})
		if _, err := runner.spotifyLibrary(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("persists refreshed token", func(t *testing.T) {
		runner, path := newRunner(t, nil)
		runner.persistToken(&oauth2.Token{AccessToken: "refreshed"})

		saved, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if saved.Credentials.Spotify.AccessToken != "refreshed" {
			t.Errorf("expected refreshed token, got %q", saved.Credentials.Spotify.AccessToken)
		}
	})
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, "", essence, mystery)
	env.library.RemoveFromCatalog(essence.Title, essence.Artist)
	if err := env.run("organize", "--yes", "--record"); err != nil {
		t.Fatalf("organize failed: %v", err)
	}

	env.output.Reset()
	if err := env.run("history"); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(env.output.String(), "Found 1 sessions") {
		t.Errorf("unexpected output:\n%s", env.output.String())
	}

	sessions, err := repositories.NewSessionRepository(env.runner.db).List(context.Background(), 1)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one session, got %v, %v", sessions, err)
	}
	id := sessions[0].ID

	env.output.Reset()
	if err := env.run("history", "show", id); err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	output := env.output.String()
	for _, want := range []string{
		"Session " + id,
		"1. Essence by Wizkid: Afrobeats, R&B/Soul",
		"not_found",
		"unclassified",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	env.output.Reset()
	if err := env.run("history", "show", "--json", id); err != nil {
		t.Fatalf("history show --json failed: %v", err)
	}
	var detail struct {
		Session     repositories.Session    `json:"session"`
		Assignments []models.Classification `json:"assignments"`
	}
	if err := json.Unmarshal(env.output.Bytes(), &detail); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if detail.Session.ID != id || len(detail.Assignments) != 2 {
		t.Errorf("unexpected detail %+v", detail)
	}

	if err := env.run("history", "delete", id); err != nil {
		t.Fatalf("history delete failed: %v", err)
	}
	if err := env.run("history", "show", id); !errors.Is(err, shared.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := env.run("history", "show"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		env := newTestEnv(t, "")
		if err := env.run("setup", "config"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, env.configPath)

		if err := env.run("setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		env := newTestEnv(t, "")
		if err := env.run("setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		if env.runner.db == nil {
			t.Fatal("expected database to be opened")
		}
		var count int
		if err := env.runner.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil || count == 0 {
			t.Errorf("expected migrations to be applied, got %d, %v", count, err)
		}
	})

	t.Run("database rollback", func(t *testing.T) {
		env := newTestEnv(t, "")
		if err := env.run("setup", "database", "--rollback"); err != nil {
			t.Fatalf("setup database --rollback failed: %v", err)
		}

		var version int
		if err := env.runner.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
			t.Fatalf("failed to read migration version: %v", err)
		}
		if version != 1 {
			t.Errorf("expected version 1 after rollback, got %d", version)
		}
		if _, err := env.runner.db.Exec("SELECT 1 FROM filings"); err == nil {
			t.Error("expected filings table to be dropped")
		}
		if !strings.Contains(env.output.String(), "Rolled back") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})
}

func TestRunnerOutput(t *testing.T) {
	newRunner := func(w io.Writer) *Runner {
		return NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: log.New(io.Discard), Output: w})
	}

	t.Run("write failures", func(t *testing.T) {
		r := newRunner(&tu.FWriter{})

		if err := r.writeJSON(map[string]string{"genre": "Pop"}, false); err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error from writeJSON, got %v", err)
		}
		if err := r.writePlain("Tracks: %d\n", 1); err == nil {
			t.Error("expected write error from writePlain")
		}
		if err := r.writePlainln("Genre assignments"); err == nil {
			t.Error("expected write error from writePlainln")
		}
	})

	t.Run("newline failure", func(t *testing.T) {
		var buf bytes.Buffer
		r := newRunner(tu.NewLimitedWriter(1, 0, &buf))

		err := r.writeJSON([]string{"Pop", "Jazz"}, false)
		if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
			t.Errorf("expected newline error, got %v", err)
		}
		if buf.String() != `["Pop","Jazz"]` {
			t.Errorf("expected JSON body before the failure, got %q", buf.String())
		}
	})

	t.Run("unencodable value", func(t *testing.T) {
		r := newRunner(&bytes.Buffer{})
		if err := r.writeJSON(make(chan int), true); err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
			t.Errorf("expected marshal error, got %v", err)
		}
	})
}
