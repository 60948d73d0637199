package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the TOML file.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvSpotifyRedirectURI  = "SPOTIFY_REDIRECT_URI"
	EnvModelAPIKey         = "GROQ_API_KEY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Session     SessionConfig     `toml:"session"`
	Spotify     SpotifyAPIConfig  `toml:"spotify"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Model   ModelConfig   `toml:"model"`
}

// SpotifyConfig contains Spotify OAuth client credentials and the cached token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenType    string    `toml:"token_type"`
	Expiry       time.Time `toml:"expiry"`
}

// ModelConfig configures the OpenAI-compatible chat endpoint used for genre classification.
type ModelConfig struct {
	APIKey       string   `toml:"api_key"`
	BaseURL      string   `toml:"base_url"`
	Model        string   `toml:"model"`
	Instructions []string `toml:"instructions"`
}

// SessionConfig contains defaults for the organize loop.
type SessionConfig struct {
	BatchSize       int  `toml:"batch_size"`
	PublicPlaylists bool `toml:"public_playlists"`
}

// SpotifyAPIConfig tunes calls to the Spotify Web API.
type SpotifyAPIConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig sets the logger level (debug, info, warn, error).
type LogConfig struct {
	Level string `toml:"level"`
}

// Map returns the client credentials in the form accepted by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token returns the cached [oauth2.Token], or nil when no token has been stored.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// Update copies token fields into the config. A refresh token missing from
// the new token keeps the previously stored one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidInput)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: token has no access token", ErrInvalidInput)
	}

	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenType = token.TokenType
	s.Expiry = token.Expiry
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig encodes config as TOML and writes it to path with owner-only permissions.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored and existing variables are never
// overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var present []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return nil
	}

	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides credentials with non-empty values from the process environment.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvSpotifyClientID, &c.Credentials.Spotify.ClientID},
		{EnvSpotifyClientSecret, &c.Credentials.Spotify.ClientSecret},
		{EnvSpotifyRedirectURI, &c.Credentials.Spotify.RedirectURI},
		{EnvModelAPIKey, &c.Credentials.Model.APIKey},
	}

	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// ValidateSpotify reports whether the Spotify client credentials are usable.
func (c *Config) ValidateSpotify() error {
	s := c.Credentials.Spotify
	switch {
	case s.ClientID == "" || s.ClientID == placeholderClientID:
		return fmt.Errorf("%w: %s is not set", ErrMissingCredentials, EnvSpotifyClientID)
	case s.ClientSecret == "" || s.ClientSecret == placeholderClientSecret:
		return fmt.Errorf("%w: %s is not set", ErrMissingCredentials, EnvSpotifyClientSecret)
	case s.RedirectURI == "":
		return fmt.Errorf("%w: %s is not set", ErrMissingCredentials, EnvSpotifyRedirectURI)
	}
	return nil
}

// ValidateModel reports whether the classifier endpoint is configured.
func (c *Config) ValidateModel() error {
	m := c.Credentials.Model
	switch {
	case m.APIKey == "":
		return fmt.Errorf("%w: %s is not set", ErrMissingCredentials, EnvModelAPIKey)
	case m.Model == "":
		return fmt.Errorf("%w: credentials.model.model is empty", ErrInvalidConfig)
	}
	return nil
}

// Validate checks everything an organize session needs: Spotify credentials, the model endpoint and session defaults.
func (c *Config) Validate() error {
	if err := c.ValidateSpotify(); err != nil {
		return err
	}
	if err := c.ValidateModel(); err != nil {
		return err
	}
	if c.Session.BatchSize <= 0 {
		return fmt.Errorf("%w: session.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Spotify.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: spotify.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

const (
	placeholderClientID    = "your_spotify_client_id"
	placeholderClientSecret = "your_spotify_client_secret"
)
