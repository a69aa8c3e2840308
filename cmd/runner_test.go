package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
	th "github.com/desertthunder/playsync/internal/testing"
	"github.com/desertthunder/playsync/internal/ui"
	"golang.org/x/oauth2"
)

// fakePrompter answers prompts from fixed values and remembers what it was asked.
type fakePrompter struct {
	picks   []string
	confirm bool
	err     error
	offered []ui.Option
	asked   int
}

func (f *fakePrompter) MultiSelect(title string, options []ui.Option) ([]ui.Option, error) {
	f.asked++
	f.offered = options
	if f.err != nil {
		return nil, f.err
	}
	var out []ui.Option
	for _, o := range options {
		for _, p := range f.picks {
			if o.Value == p {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (f *fakePrompter) Confirm(question string) (bool, error) {
	f.asked++
	return f.confirm, f.err
}

func newTestRunner(t *testing.T, config *shared.Config, svc services.PlaylistService, p ui.Prompter) (*Runner, *bytes.Buffer) {
	t.Helper()
	if config == nil {
		config = shared.DefaultConfig()
	}
	if p == nil {
		p = &fakePrompter{}
	}

	output := &bytes.Buffer{}
	opts := RunnerOpts{
		Config:      config,
		ConfigPath:  filepath.Join(t.TempDir(), "config.toml"),
		Prompter:    p,
		Logger:      log.New(io.Discard),
		Output:      output,
		ErrOutput:   io.Discard,
		OpenBrowser: func(string) error { return nil },
	}
	if svc != nil {
		opts.Service = svc
	}
	return NewRunner(opts), output
}

func runApp(r *Runner, args ...string) error {
	return r.app().Run(context.Background(), append([]string{"playsync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			svc := th.NewMockPlaylistService()
			prompter := &fakePrompter{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Service:    svc,
				Prompter:   prompter,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.service != svc {
				t.Error("expected service to be set")
			}
			if runner.prompter != prompter {
				t.Error("expected prompter to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config != nil {
				t.Error("expected config to be loaded lazily")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.errOutput != os.Stderr {
				t.Error("expected error output to default to os.Stderr")
			}
			if _, ok := runner.prompter.(*ui.TerminalPrompter); !ok {
				t.Errorf("expected terminal prompter, got %T", runner.prompter)
			}
			if runner.openBrowser == nil {
				t.Error("expected browser opener to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := th.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"sync", "config", "auth", "history"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("before", func(t *testing.T) {
		t.Run("loads config from flag", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			config := shared.DefaultConfig()
			config.Credentials.APIKey = "from-file"
			if err := shared.SaveConfig(path, config); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Logger: log.New(io.Discard)})
			if err := runApp(runner, "--config", path, "config", "--list"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.configPath != path {
				t.Errorf("expected config path %s, got %s", path, runner.configPath)
			}
			if runner.config.Credentials.APIKey != "from-file" {
				t.Error("expected config to be loaded from file")
			}
		})

		t.Run("missing file uses defaults", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.toml")
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: log.New(io.Discard)})
			if err := runApp(runner, "-c", path, "config"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config == nil || runner.config.Server.Port != shared.DefaultConfig().Server.Port {
				t.Error("expected default config")
			}
		})

		t.Run("malformed file fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[credentials\n"), 0o600); err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: log.New(io.Discard)})
			if err := runApp(runner, "-c", path, "config"); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("verbose lowers log level", func(t *testing.T) {
			logger := log.New(io.Discard)
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Output: &bytes.Buffer{}, Logger: logger})
			if err := runApp(runner, "--verbose", "config"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected debug level, got %v", logger.GetLevel())
			}
		})
	})

	t.Run("playlistService", func(t *testing.T) {
		t.Run("returns injected service", func(t *testing.T) {
			svc := th.NewMockPlaylistService()
			runner, _ := newTestRunner(t, nil, svc, nil)
			got, err := runner.playlistService(context.Background(), true)
			if err != nil || got != svc {
				t.Errorf("expected injected service, got %v, %v", got, err)
			}
		})

		t.Run("no credentials", func(t *testing.T) {
			runner, _ := newTestRunner(t, nil, nil, nil)
			_, err := runner.playlistService(context.Background(), false)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("api key cannot write", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.APIKey = "key"
			runner, _ := newTestRunner(t, config, nil, nil)

			if _, err := runner.playlistService(context.Background(), true); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}

			svc, err := runner.playlistService(context.Background(), false)
			if err != nil {
				t.Fatalf("expected read-only service, got %v", err)
			}
			yt, ok := svc.(*services.YouTubeService)
			if !ok || !yt.ReadOnly() {
				t.Errorf("expected read-only YouTube service, got %T", svc)
			}
		})

		t.Run("oauth with cached token refreshes through runner client", func(t *testing.T) {
			dir := t.TempDir()
			secret := filepath.Join(dir, "client_secret.json")
			if err := os.WriteFile(secret, []byte(clientSecret), 0o600); err != nil {
				t.Fatal(err)
			}

			config := shared.DefaultConfig()
			config.Credentials.OAuth2JSON = secret
			runner, _ := newTestRunner(t, config, nil, nil)

			store := runner.tokenStore()
			expired := &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)}
			if err := store.Save(expired); err != nil {
				t.Fatal(err)
			}

			resp := &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)),
			}
			runner.httpClient = &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}

			client, err := runner.authorizedClient(context.Background())
			if err != nil {
				t.Fatalf("expected cached token to be used, got %v", err)
			}
			if res, err := client.Get("https://www.googleapis.com/youtube/v3/playlists"); err == nil {
				res.Body.Close()
			}

			tok, err := store.Load()
			if err != nil {
				t.Fatal(err)
			}
			if tok.AccessToken != "fresh" {
				t.Errorf("expected refreshed token to be saved, got %q", tok.AccessToken)
			}

			svc, err := runner.playlistService(context.Background(), true)
			if err != nil {
				t.Fatalf("expected writable service, got %v", err)
			}
			if yt, ok := svc.(*services.YouTubeService); !ok || yt.ReadOnly() {
				t.Errorf("expected OAuth YouTube service, got %T", svc)
			}
		})

		t.Run("missing client secret file", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.OAuth2JSON = filepath.Join(t.TempDir(), "missing.json")
			runner, _ := newTestRunner(t, config, nil, nil)

			if _, err := runner.playlistService(context.Background(), true); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("openHistory", func(t *testing.T) {
		t.Run("disabled", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = ""
			runner, _ := newTestRunner(t, config, nil, nil)

			repo, closeDB, err := runner.openHistory(context.Background())
			defer closeDB()
			if err != nil || repo != nil {
				t.Errorf("expected disabled history, got %v, %v", repo, err)
			}
		})

		t.Run("relative to config", func(t *testing.T) {
			runner, _ := newTestRunner(t, nil, nil, nil)

			repo, closeDB, err := runner.openHistory(context.Background())
			if err != nil || repo == nil {
				t.Fatalf("expected history, got %v", err)
			}
			closeDB()

			th.AssertFileExists(t, filepath.Join(filepath.Dir(runner.configPath), "history.db"))
		})
	})
}
