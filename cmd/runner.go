package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/repositories"
	"github.com/desertthunder/playsync/internal/server"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const memoryDB = ":memory:"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	service     services.PlaylistService
	prompter    ui.Prompter
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	errOutput   io.Writer
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config flag before any command runs.
// A nil Service is built from the configured credentials on first use.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Service     services.PlaylistService
	Prompter    ui.Prompter
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	ErrOutput   io.Writer
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Prompter == nil {
		opts.Prompter = ui.NewTerminalPrompter(os.Stdin, opts.ErrOutput)
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		service:     opts.Service,
		prompter:    opts.Prompter,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		errOutput:   opts.ErrOutput,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, configCommand, authCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by --config unless one was injected.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.config != nil {
		return ctx, nil
	}

	path := cmd.String("config")
	if path == "" {
		p, err := shared.DefaultConfigPath()
		if err != nil {
			return ctx, err
		}
		path = p
	}

	config, err := shared.LoadOrDefault(path)
	if err != nil {
		return ctx, err
	}

	r.logger.Debug("loaded config", "path", path, "playlists", len(config.Playlists))
	r.config = config
	r.configPath = path
	return ctx, nil
}

func (r *Runner) saveConfig() error {
	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Debug("saved config", "path", r.configPath)
	return nil
}

func (r *Runner) resolve(p string) string {
	return shared.ResolvePath(r.configPath, p)
}

// playlistService returns the injected service or builds one from the configured credentials.
//
// An API key only reads, so it is refused when write is set.
func (r *Runner) playlistService(ctx context.Context, write bool) (services.PlaylistService, error) {
	if r.service != nil {
		return r.service, nil
	}

	creds := r.config.Credentials
	opts := services.YouTubeOpts{
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		PageSize:          r.config.API.PageSize,
		Logger:            r.logger,
	}

	switch {
	case creds.OAuth2JSON != "":
		client, err := r.authorizedClient(ctx)
		if err != nil {
			return nil, err
		}
		opts.HTTPClient = client
	case creds.APIKey != "":
		if write {
			return nil, fmt.Errorf("%w: an API key can only read playlists, set oauth2_json to add videos", shared.ErrMissingCredentials)
		}
		opts.APIKey = creds.APIKey
	default:
		return nil, fmt.Errorf("%w: run 'playsync config --oauth2-json PATH' or 'playsync config --api-key KEY'", shared.ErrMissingCredentials)
	}

	svc, err := services.NewYouTubeService(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.service = svc
	return svc, nil
}

func (r *Runner) oauthContext(ctx context.Context) context.Context {
	if r.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
}

func (r *Runner) tokenStore() *services.TokenStore {
	return services.NewTokenStore(r.resolve(r.config.Credentials.TokenPath))
}

// authorizedClient uses the cached token, running the browser flow when there is none.
func (r *Runner) authorizedClient(ctx context.Context) (*http.Client, error) {
	conf, err := services.LoadOAuthConfig(r.resolve(r.config.Credentials.OAuth2JSON))
	if err != nil {
		return nil, err
	}

	store := r.tokenStore()
	ctx = r.oauthContext(ctx)

	client, err := services.NewAuthorizedClient(ctx, conf, store)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		return nil, err
	}

	r.logger.Info("no cached token, starting browser authorization")
	if _, err := r.login(ctx, conf, store); err != nil {
		return nil, err
	}
	return services.NewAuthorizedClient(ctx, conf, store)
}

// login runs the loopback consent flow and caches the resulting token.
func (r *Runner) login(ctx context.Context, conf *oauth2.Config, store *services.TokenStore) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	lb, err := server.StartLoopback(addr, conf, state, r.logger)
	if err != nil {
		return nil, err
	}

	authURL := lb.AuthURL()
	fmt.Fprintf(r.errOutput, "%s\n\n  %s\n\n", ui.Intro("Authorize playsync in your browser"), authURL)
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser, visit the URL above", "err", err)
	}

	tok, err := lb.Wait(ctx, server.DefaultAuthTimeout)
	if err != nil {
		return nil, err
	}
	if err := store.Save(tok); err != nil {
		return nil, err
	}

	r.logger.Info("token cached", "path", store.Path())
	return tok, nil
}

// openHistory opens the run history database. A nil repository means history is disabled.
func (r *Runner) openHistory(ctx context.Context) (*repositories.SyncRunRepository, func(), error) {
	path := r.config.Database.Path
	if path == "" {
		return nil, func() {}, nil
	}
	if path != memoryDB {
		path = r.resolve(path)
	}

	db, err := shared.OpenHistory(ctx, path)
	if err != nil {
		return nil, func() {}, err
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close history database", "err", err)
		}
	}
	return repositories.NewSyncRunRepository(db, r.config.Database.KeepRuns), closeDB, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return r.writeBytes(output)
}

func (r *Runner) writeBytes(output []byte) error {
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if len(output) > 0 && output[len(output)-1] == '\n' {
		return nil
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
