package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// Scopes requested during authorization.
var Scopes = []string{youtube.YoutubeScope, youtube.YoutubeReadonlyScope}

// LoadOAuthConfig reads a Google OAuth2 client secret file.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: oauth2_json is not set", shared.ErrMissingCredentials)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read client secret: %w", shared.ErrMissingCredentials, err)
	}

	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse client secret: %w", shared.ErrInvalidConfig, err)
	}

	return conf, nil
}

// TokenStore persists an OAuth2 token as JSON on disk.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the cached token.
// Returns [shared.ErrNotAuthenticated] when no token has been saved.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no cached token at %s", shared.ErrNotAuthenticated, s.path)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return &tok, nil
}

// Save writes tok atomically with owner-only permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := shared.MarshalJSON(tok, true)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set token permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace token: %w", err)
	}
	return nil
}

// persistingTokenSource writes every newly issued token back to its store.
type persistingTokenSource struct {
	base  oauth2.TokenSource
	store *TokenStore

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok.AccessToken != p.last {
		if err := p.store.Save(tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}

// NewAuthorizedClient returns an [http.Client] authorized with the cached token.
// Refreshed tokens are saved back to store.
func NewAuthorizedClient(ctx context.Context, conf *oauth2.Config, store *TokenStore) (*http.Client, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}

	src := &persistingTokenSource{
		base:  conf.TokenSource(ctx, tok),
		store: store,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(ctx, src), nil
}
