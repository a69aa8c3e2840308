package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
)

const clientSecretJSON = `{
  "installed": {
    "client_id": "client-123.apps.googleusercontent.com",
    "client_secret": "secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestLoadOAuthConfig(t *testing.T) {
	t.Run("parses client secret", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client_secret.json")
		if err := os.WriteFile(path, []byte(clientSecretJSON), 0o600); err != nil {
			t.Fatalf("failed to write client secret: %v", err)
		}

		conf, err := LoadOAuthConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conf.ClientID != "client-123.apps.googleusercontent.com" {
			t.Errorf("unexpected client id %s", conf.ClientID)
		}
		if len(conf.Scopes) != 2 {
			t.Errorf("expected 2 scopes, got %v", conf.Scopes)
		}
		if conf.Endpoint.TokenURL != "https://oauth2.googleapis.com/token" {
			t.Errorf("unexpected token url %s", conf.Endpoint.TokenURL)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := LoadOAuthConfig(""); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadOAuthConfig(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client_secret.json")
		if err := os.WriteFile(path, []byte(`{"other": {}}`), 0o600); err != nil {
			t.Fatalf("failed to write client secret: %v", err)
		}
		if _, err := LoadOAuthConfig(path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token_cache.json")
	store := NewTokenStore(path)

	if _, err := store.Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated before save, got %v", err)
	}

	expiry := time.Now().Add(time.Hour).Round(time.Second)
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}
	if err := store.Save(tok); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("token file should exist: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %o", perm)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load token: %v", err)
	}
	if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
		t.Errorf("unexpected token %+v", loaded)
	}
	if !loaded.Expiry.Equal(expiry) {
		t.Errorf("expected expiry %v, got %v", expiry, loaded.Expiry)
	}
}

type sequenceTokenSource struct {
	tokens []*oauth2.Token
	calls  int
}

func (s *sequenceTokenSource) Token() (*oauth2.Token, error) {
	if s.calls >= len(s.tokens) {
		return nil, errors.New("refresh failed")
	}
	tok := s.tokens[s.calls]
	s.calls++
	return tok, nil
}

func TestPersistingTokenSource(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	base := &sequenceTokenSource{tokens: []*oauth2.Token{
		{AccessToken: "first"},
		{AccessToken: "first"},
		{AccessToken: "second"},
	}}
	src := &persistingTokenSource{base: base, store: store, last: "first"}

	for range 2 {
		if _, err := src.Token(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := store.Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("unchanged token should not be written, got %v", err)
	}

	if _, err := src.Token(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, err := store.Load()
	if err != nil {
		t.Fatalf("refreshed token should be written: %v", err)
	}
	if saved.AccessToken != "second" {
		t.Errorf("expected second, got %s", saved.AccessToken)
	}

	if _, err := src.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated on refresh failure, got %v", err)
	}
}

func TestNewAuthorizedClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer cached" {
			t.Errorf("expected cached bearer token, got %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	conf := &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{TokenURL: server.URL + "/token"}}

	if _, err := NewAuthorizedClient(context.Background(), conf, store); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated without a token, got %v", err)
	}

	if err := store.Save(&oauth2.Token{AccessToken: "cached", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	client, err := NewAuthorizedClient(context.Background(), conf, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := client.Get(server.URL + "/youtube/v3/playlists")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
}
