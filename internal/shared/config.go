package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	envGeminiKey = "GEMINI_API_KEY"
	envJWTSecret = "MAESTRO_JWT_SECRET"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App         AppConfig         `toml:"app"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Redis       RedisConfig       `toml:"redis"`
	Notices     NoticesConfig     `toml:"notices"`
}

// AppConfig identifies the application namespace and where the signed-in session lives.
type AppConfig struct {
	ID          string `toml:"id"`
	SessionPath string `toml:"session_path"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Gemini  GeminiConfig  `toml:"gemini"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// GeminiConfig contains generative API settings.
type GeminiConfig struct {
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerMinute float64 `toml:"requests_per_minute"`
}

// SpotifyConfig contains Spotify API credentials and the last issued token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	Expiry       time.Time `toml:"expiry"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	JWTSecret     string `toml:"jwt_secret"`
	TokenTTL      string `toml:"token_ttl"`
	AllowedOrigin string `toml:"allowed_origin"`
}

// RedisConfig selects the change notifier. An empty Addr keeps notifications in-process.
type RedisConfig struct {
	Addr          string `toml:"addr"`
	Password      string `toml:"password"`
	DB            int    `toml:"db"`
	ChannelPrefix string `toml:"channel_prefix"`
}

// NoticesConfig controls how long transient notices stay visible.
type NoticesConfig struct {
	ErrorTTL   string `toml:"error_ttl"`
	SuccessTTL string `toml:"success_ttl"`
}

// Addr returns the host:port pair the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TTL parses TokenTTL, defaulting to 24 hours.
func (s ServerConfig) TTL() time.Duration {
	return parseDurationOr(s.TokenTTL, 24*time.Hour)
}

// Durations returns the error and success lifetimes, defaulting to 4s and 3s.
func (n NoticesConfig) Durations() (time.Duration, time.Duration) {
	return parseDurationOr(n.ErrorTTL, 4*time.Second), parseDurationOr(n.SuccessTTL, 3*time.Second)
}

// Map returns the credentials in the form expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
		"expiry":        formatExpiry(s.Expiry),
	}
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Token returns the stored OAuth token, or nil when none has been issued.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry,
		TokenType:    "Bearer",
	}
}

// Update stores a freshly issued token.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrMissingCredentials)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.Expiry = token.Expiry
	return nil
}

// ApplyEnv overrides secrets with values from the environment when they are set.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(envGeminiKey); key != "" {
		c.Credentials.Gemini.APIKey = key
	}
	if secret := os.Getenv(envJWTSecret); secret != "" {
		c.Server.JWTSecret = secret
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Fields missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path, replacing any existing file.
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

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
