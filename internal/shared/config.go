package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/playsync/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

// ConfigEnv names the environment variable that overrides the config file location.
const ConfigEnv = "PLAYSYNC_CONFIG"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	API         APIConfig         `toml:"api"`
	Playlists   []models.Playlist `toml:"playlists" validate:"dive"`
}

// CredentialsConfig contains YouTube Data API credentials.
type CredentialsConfig struct {
	OAuth2JSON string `toml:"oauth2_json"`
	TokenPath  string `toml:"token_path"`
	APIKey     string `toml:"api_key"`
}

// DatabaseConfig contains sync history settings.
type DatabaseConfig struct {
	Path     string `toml:"path"`
	KeepRuns int    `toml:"keep_runs" validate:"gte=0"`
}

// ServerConfig contains the OAuth2 loopback server settings.
type ServerConfig struct {
	Host string `toml:"host" validate:"required"`
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
}

// APIConfig tunes requests made to the YouTube Data API.
type APIConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
	PageSize          int64   `toml:"page_size" validate:"gte=1,lte=50"`
}

// DefaultConfigPath returns the config file location, honoring [ConfigEnv].
func DefaultConfigPath() (string, error) {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, "playsync", "config.toml"), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrMissingConfig, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	return config, nil
}

// LoadOrDefault loads the config at path, falling back to [DefaultConfig] when no file exists.
func LoadOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, ErrMissingConfig) {
		return DefaultConfig(), nil
	}
	return config, err
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes the config to path atomically, creating parent directories as needed.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if err := toml.NewEncoder(tmp).Encode(config); err != nil {
		cleanup()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		cleanup()
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolvePath expands p relative to the directory of configPath.
//
// An empty p yields an empty string, a leading "~/" expands to the home directory.
func ResolvePath(configPath, p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// Playlist returns the configured playlist with the given id.
func (c *Config) Playlist(id string) (models.Playlist, bool) {
	for _, p := range c.Playlists {
		if p.ID == id {
			return p, true
		}
	}
	return models.Playlist{}, false
}

// Targets returns the playlists to sync: every configured playlist, or only id when set.
func (c *Config) Targets(id string) ([]models.Playlist, error) {
	if id == "" {
		return slices.Clone(c.Playlists), nil
	}
	p, ok := c.Playlist(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", ErrPlaylistNotFound, id)
	}
	return []models.Playlist{p}, nil
}

// AddPlaylist appends a playlist, rejecting duplicates and source graphs that form a cycle.
func (c *Config) AddPlaylist(p models.Playlist) error {
	if p.ID == "" {
		return fmt.Errorf("%w: playlist id", ErrMissingArgument)
	}
	if _, ok := c.Playlist(p.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlaylist, p.ID)
	}

	c.Playlists = append(c.Playlists, p)
	if err := c.checkCycles(); err != nil {
		c.Playlists = c.Playlists[:len(c.Playlists)-1]
		return err
	}
	return nil
}

// SetSources replaces the sources of a configured playlist.
func (c *Config) SetSources(id string, sources []string) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s is not configured", ErrPlaylistNotFound, id)
	}

	prev := c.Playlists[i].SyncFrom
	c.Playlists[i].SyncFrom = dedupe(sources)
	if err := c.checkCycles(); err != nil {
		c.Playlists[i].SyncFrom = prev
		return err
	}
	return nil
}

// RemovePlaylist drops the playlist and prunes it from the sources of every other playlist.
func (c *Config) RemovePlaylist(id string) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s is not configured", ErrPlaylistNotFound, id)
	}

	c.Playlists = slices.Delete(c.Playlists, i, i+1)
	for j := range c.Playlists {
		c.Playlists[j].SyncFrom = slices.DeleteFunc(c.Playlists[j].SyncFrom, func(s string) bool { return s == id })
	}
	return nil
}

// SetOAuthPath stores the path to the OAuth2 client secret JSON.
func (c *Config) SetOAuthPath(path string) {
	c.Credentials.OAuth2JSON = path
}

// SetAPIKey stores the read-only API key.
func (c *Config) SetAPIKey(key string) {
	c.Credentials.APIKey = key
}

// Reset clears the playlists and credentials, restoring defaults.
func (c *Config) Reset() {
	*c = *DefaultConfig()
}

func (c *Config) index(id string) int {
	return slices.IndexFunc(c.Playlists, func(p models.Playlist) bool { return p.ID == id })
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
