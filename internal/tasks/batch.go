package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/playsync/internal/models"
)

// BatchOpts controls [PlaylistEngine.SyncAll].
type BatchOpts struct {
	DryRun   bool
	FailFast bool // Stop at the first playlist whose reconciliation fails
}

// PlaylistOutcome is the result of reconciling one playlist in a batch.
type PlaylistOutcome struct {
	Playlist models.Playlist
	Report   *SyncReport // nil when listing failed
	Err      error
}

// BatchResult collects the outcomes of a batch in processing order.
type BatchResult struct {
	DryRun   bool
	Outcomes []PlaylistOutcome
}

// Added returns the total successful insertions across the batch.
func (b *BatchResult) Added() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Report != nil {
			n += o.Report.Added()
		}
	}
	return n
}

// Failed returns the total failed insertions across the batch.
func (b *BatchResult) Failed() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Report != nil {
			n += o.Report.Failed()
		}
	}
	return n
}

// Candidates returns the total candidates across the batch.
func (b *BatchResult) Candidates() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Report != nil {
			n += len(o.Report.Candidates)
		}
	}
	return n
}

// Err joins the errors of every failed playlist.
func (b *BatchResult) Err() error {
	var errs []error
	for _, o := range b.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Playlist.ID, o.Err))
		}
	}
	return errors.Join(errs...)
}

// SyncAll reconciles every playlist that has sources, in the given order.
//
// A failed playlist is recorded and the batch moves on, unless opts.FailFast is set.
// Cancellation of ctx always stops the batch.
func (e *PlaylistEngine) SyncAll(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.Playlist, opts BatchOpts) (*BatchResult, error) {
	result := &BatchResult{DryRun: opts.DryRun}

	var targets []models.Playlist
	for _, pl := range playlists {
		if !pl.HasSources() {
			e.logger.Debug("skipping playlist without sources", "playlist", pl.ID)
			continue
		}
		targets = append(targets, pl)
	}

	for i, pl := range targets {
		e.sendProgress(progress, startPlaylistUpdate(i+1, len(targets), pl))

		report, err := e.Reconcile(ctx, progress, pl, pl.SyncFrom, opts.DryRun)
		result.Outcomes = append(result.Outcomes, PlaylistOutcome{Playlist: pl, Report: report, Err: err})

		if err != nil {
			e.logger.Error("sync failed", "playlist", pl.ID, "err", err)
			if opts.FailFast || ctx.Err() != nil {
				break
			}
		}
	}

	return result, result.Err()
}
