package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playsync/internal/formatter"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// History prints recorded sync runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") && cmd.Bool("csv") {
		return fmt.Errorf("%w: cannot specify both --json and --csv", shared.ErrInvalidArgument)
	}

	repo, closeDB, err := r.openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if repo == nil {
		return r.writePlain("%s\n", ui.Note("History is disabled; set [database] path to record sync runs"))
	}

	limit := int(cmd.Int("limit"))

	var runs []*models.SyncRun
	if input := cmd.String("id"); input != "" {
		id, err := shared.ParsePlaylistID(input)
		if err != nil {
			return err
		}
		runs, err = repo.ListByPlaylist(id, limit)
		if err != nil {
			return err
		}
	} else {
		runs, err = repo.List(limit)
		if err != nil {
			return err
		}
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(formatter.ToHistoryJSON(runs), true)
	case cmd.Bool("csv"):
		data, err := formatter.HistoryToCSV(runs)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	default:
		return formatter.WriteHistory(r.output, runs)
	}
}
