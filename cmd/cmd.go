// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultHistoryLimit = 20

// app builds the root command
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "playsync",
		Usage:   "Keep YouTube playlists in sync with the playlists they are built from",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Sources: cli.EnvVars(shared.ConfigEnv),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:    r.before,
		Writer:    r.output,
		ErrWriter: r.errOutput,
		Commands:  r.register(),
	}
}

// syncCommand reconciles destination playlists
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Add videos from source playlists that are missing in their destination",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "id",
				Aliases: []string{"i"},
				Usage:   "Only sync this playlist (ID or URL)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "List the videos that would be added without adding them",
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "Stop at the first playlist that fails",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Sync,
	}
}

// configCommand edits the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage credentials and synced playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "init",
				Usage: "Write a commented config file to the config path",
			},
			&cli.StringFlag{
				Name:    "add",
				Aliases: []string{"a"},
				Usage:   "Add a destination playlist (ID or URL)",
			},
			&cli.StringSliceFlag{
				Name:  "from",
				Usage: "Source playlists for --add, skipping the interactive picker",
			},
			&cli.StringFlag{
				Name:    "remove",
				Aliases: []string{"r"},
				Usage:   "Remove a playlist",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List playlists and their sources",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Restore the default configuration",
			},
			&cli.StringFlag{
				Name:    "oauth2-json",
				Aliases: []string{"o"},
				Usage:   "Path to the Google OAuth2 client secret JSON",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "YouTube Data API key (read-only, dry runs only)",
			},
		},
		Action: r.Config,
	}
}

// authCommand manages the cached OAuth2 token
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize playsync with your Google account",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Open the consent page and cache the token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the cached token state",
				Action: r.AuthStatus,
			},
		},
	}
}

// historyCommand shows recorded sync runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Only show runs for this playlist (ID or URL)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show, 0 for all",
				Value: defaultHistoryLimit,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
		},
		Action: r.History,
	}
}
