package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Config writes the example file for --init, applies credential changes, then reset, remove
// and add, and finally prints the playlist list when --list is set or nothing else was requested.
func (r *Runner) Config(ctx context.Context, cmd *cli.Command) error {
	changed := false
	acted := false

	if cmd.Bool("init") {
		if err := r.initConfig(); err != nil {
			return err
		}
		acted = true
	}

	if path := cmd.String("oauth2-json"); path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
		}
		if _, err := services.LoadOAuthConfig(abs); err != nil {
			return err
		}
		r.config.SetOAuthPath(abs)
		r.writePlain("%s\n", ui.Outro("OAuth2 client secret set to "+abs))
		changed, acted = true, true
	}

	if key := cmd.String("api-key"); key != "" {
		r.config.SetAPIKey(key)
		r.writePlain("%s\n", ui.Outro("API key saved"))
		changed, acted = true, true
	}

	if cmd.Bool("reset") {
		acted = true
		ok, err := r.prompter.Confirm("Reset the configuration? Playlists and credentials will be removed.")
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlain("%s\n", ui.Note("Reset canceled"))
		}
		r.config.Reset()
		r.writePlain("%s\n", ui.Outro("Configuration reset"))
		changed = true
	}

	if input := cmd.String("remove"); input != "" {
		id, err := shared.ParsePlaylistID(input)
		if err != nil {
			return err
		}
		if err := r.config.RemovePlaylist(id); err != nil {
			return err
		}
		r.writePlain("%s\n", ui.Outro("Removed "+id))
		changed, acted = true, true
	}

	if input := cmd.String("add"); input != "" {
		var from []string
		if cmd.IsSet("from") {
			from = cmd.StringSlice("from")
		}
		if err := r.addPlaylist(ctx, input, from, cmd.IsSet("from")); err != nil {
			return err
		}
		changed, acted = true, true
	}

	if changed {
		if err := r.saveConfig(); err != nil {
			return err
		}
	}

	if cmd.Bool("list") || !acted {
		return r.listPlaylists()
	}
	return nil
}

// initConfig writes the commented example config to the config path and loads it.
func (r *Runner) initConfig() error {
	if r.configPath == "" {
		return fmt.Errorf("%w: no config path to initialize", shared.ErrInvalidArgument)
	}
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return err
	}
	r.config = config
	return r.writePlain("%s\n", ui.Outro("Created "+r.configPath))
}

// addPlaylist fetches the destination title and stores it with its sources.
//
// Without explicit sources the user picks from configured playlists that cannot form a cycle.
func (r *Runner) addPlaylist(ctx context.Context, input string, from []string, explicit bool) error {
	id, err := shared.ParsePlaylistID(input)
	if err != nil {
		return err
	}
	if _, ok := r.config.Playlist(id); ok {
		return fmt.Errorf("%w: %s", shared.ErrDuplicatePlaylist, id)
	}

	sources := make([]string, 0, len(from))
	for _, s := range from {
		for _, part := range strings.Split(s, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			sid, err := shared.ParsePlaylistID(part)
			if err != nil {
				return err
			}
			sources = append(sources, sid)
		}
	}

	svc, err := r.playlistService(ctx, false)
	if err != nil {
		return err
	}

	title, err := svc.PlaylistTitle(ctx, id)
	if err != nil {
		return err
	}

	if !explicit {
		sources, err = r.pickSources(id, title)
		if err != nil {
			return err
		}
	}

	if err := r.config.AddPlaylist(models.Playlist{ID: id, Title: title}); err != nil {
		return err
	}
	if err := r.config.SetSources(id, sources); err != nil {
		if rmErr := r.config.RemovePlaylist(id); rmErr != nil {
			return errors.Join(err, rmErr)
		}
		return err
	}

	p, _ := r.config.Playlist(id)
	r.logger.Debug("added playlist", "playlist", id, "sources", p.SyncFrom)
	return r.writePlain("%s\n", ui.Outro(fmt.Sprintf("Added '%s' (%s) syncing from %d playlists", title, id, len(p.SyncFrom))))
}

func (r *Runner) pickSources(id, title string) ([]string, error) {
	candidates := r.config.SourceOptions(id)
	if len(candidates) == 0 {
		r.writePlain("%s\n", ui.Note("No other playlists configured yet; add sources later with --from"))
		return nil, nil
	}

	options := make([]ui.Option, 0, len(candidates))
	for _, p := range candidates {
		options = append(options, ui.Option{Value: p.ID, Label: p.Title})
	}

	picked, err := r.prompter.MultiSelect(fmt.Sprintf("Select playlists to sync into '%s'", title), options)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(picked))
	for _, o := range picked {
		ids = append(ids, o.Value)
	}
	return ids, nil
}

func (r *Runner) listPlaylists() error {
	var b strings.Builder

	b.WriteString(ui.Intro("Credentials"))
	b.WriteString("\n")
	oauth := r.config.Credentials.OAuth2JSON
	if oauth == "" {
		oauth = "(not set)"
	}
	fmt.Fprintf(&b, "OAuth2 client secret: %s\n", oauth)
	apiKey := "(not set)"
	if r.config.Credentials.APIKey != "" {
		apiKey = "set"
	}
	fmt.Fprintf(&b, "API key: %s\n\n", apiKey)

	b.WriteString(ui.Intro("Playlists"))
	b.WriteString("\n")
	if len(r.config.Playlists) == 0 {
		b.WriteString("No playlists configured. Add one with 'playsync config --add ID'.\n")
		return r.writePlain("%s", b.String())
	}

	for _, p := range r.config.Playlists {
		fmt.Fprintf(&b, "%s (%s)\n", playlistName(p), p.ID)
		if !p.HasSources() {
			fmt.Fprintf(&b, "  %s\n", ui.Note("no sources"))
			continue
		}
		for _, sid := range p.SyncFrom {
			src, ok := r.config.Playlist(sid)
			if !ok {
				fmt.Fprintf(&b, "  <- Unknown Playlist ID: %s\n", sid)
				continue
			}
			fmt.Fprintf(&b, "  <- %s (%s)\n", playlistName(src), src.ID)
		}
	}

	return r.writePlain("%s", b.String())
}

func playlistName(p models.Playlist) string {
	if p.Title == "" {
		return p.ID
	}
	return p.Title
}
