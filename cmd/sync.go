package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playsync/internal/formatter"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/tasks"
	"github.com/desertthunder/playsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync reconciles every configured playlist, or only --id, and prints the result.
//
// The command fails when any playlist could not be reconciled.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	id := cmd.String("id")
	if id != "" {
		parsed, err := shared.ParsePlaylistID(id)
		if err != nil {
			return err
		}
		id = parsed
	}

	targets, err := r.config.Targets(id)
	if err != nil {
		return err
	}

	opts := tasks.BatchOpts{
		DryRun:   cmd.Bool("dry-run"),
		FailFast: cmd.Bool("fail-fast"),
	}

	svc, err := r.playlistService(ctx, !opts.DryRun)
	if err != nil {
		return err
	}

	var recorder tasks.RunRecorder
	repo, closeDB, err := r.openHistory(ctx)
	if err != nil {
		r.logger.Warn("sync history disabled", "err", err)
	} else if repo != nil {
		recorder = repo
	}
	defer closeDB()

	engine := tasks.NewPlaylistEngine(svc, recorder, r.logger)

	progress := make(chan tasks.ProgressUpdate, 16)
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		ui.RenderProgress(r.errOutput, progress)
	}()

	result, syncErr := engine.SyncAll(ctx, progress, targets, opts)
	close(progress)
	<-rendered

	if cmd.Bool("json") {
		if err := r.writeJSON(formatter.ToBatchJSON(result), true); err != nil {
			return err
		}
	} else if err := formatter.WriteBatch(r.output, result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return syncErr
}
