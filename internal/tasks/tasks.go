package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
)

// ItemResult is the outcome of one attempted insertion.
type ItemResult struct {
	Video models.Video
	Err   error
}

// OK reports whether the insertion succeeded.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// SyncReport describes a single reconciliation.
type SyncReport struct {
	Playlist   models.Playlist // Destination playlist
	DryRun     bool
	Candidates []models.Video // Source videos absent from the destination snapshot
	Results    []ItemResult   // One entry per attempted insertion, in order
}

// Attempted returns the number of insertions that were tried.
func (r *SyncReport) Attempted() int {
	return len(r.Results)
}

// Added returns the number of successful insertions.
func (r *SyncReport) Added() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed insertions.
func (r *SyncReport) Failed() int {
	return r.Attempted() - r.Added()
}

// Warnings returns the failed insertions.
func (r *SyncReport) Warnings() []ItemResult {
	var out []ItemResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// SyncEngine defines playlist reconciliation operations.
type SyncEngine interface {
	// Reconcile adds to dest every video from sourceIDs missing from dest's current snapshot.
	Reconcile(ctx context.Context, progress chan<- ProgressUpdate, dest models.Playlist, sourceIDs []string, dryRun bool) (*SyncReport, error)

	// SyncAll reconciles each playlist with sources, one at a time in order.
	SyncAll(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.Playlist, opts BatchOpts) (*BatchResult, error)
}

// RunRecorder persists a summary of every reconciliation.
type RunRecorder interface {
	Record(ctx context.Context, run *models.SyncRun) error
}

// PlaylistEngine implements [SyncEngine] over a [services.PlaylistService].
type PlaylistEngine struct {
	service  services.PlaylistService
	recorder RunRecorder
	logger   *log.Logger
}

var _ SyncEngine = (*PlaylistEngine)(nil)

// NewPlaylistEngine creates a new PlaylistEngine. recorder and logger may be nil.
func NewPlaylistEngine(service services.PlaylistService, recorder RunRecorder, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistEngine{service: service, recorder: recorder, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Candidates returns, in source order, every source video whose id is absent from dest.
//
// A video present in several sources is returned once per source.
func Candidates(dest []models.Video, sources [][]models.Video) []models.Video {
	present := make(map[string]struct{}, len(dest))
	for _, v := range dest {
		present[v.ID] = struct{}{}
	}

	var out []models.Video
	for _, src := range sources {
		for _, v := range src {
			if _, ok := present[v.ID]; !ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// Reconcile snapshots dest once, gathers candidates from sourceIDs, and inserts them in order.
//
// Listing failures abort and are returned. Insertion failures are recorded in the report.
func (e *PlaylistEngine) Reconcile(ctx context.Context, progress chan<- ProgressUpdate, dest models.Playlist, sourceIDs []string, dryRun bool) (report *SyncReport, err error) {
	run := models.NewSyncRun(dest, dryRun)
	defer func() {
		if report != nil {
			run.Finish(len(report.Candidates), report.Added(), report.Failed(), err)
		} else {
			run.Finish(0, 0, 0, err)
		}
		e.record(ctx, run)
	}()

	logger := shared.WithLogger(e.logger, "playlist", dest.ID)

	e.sendProgress(progress, fetchDestUpdate(dest))
	destVideos, err := e.service.PlaylistItems(ctx, dest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list destination %s: %w", dest.ID, err)
	}
	logger.Debug("fetched destination", "videos", len(destVideos))

	sources := make([][]models.Video, 0, len(sourceIDs))
	for i, id := range sourceIDs {
		e.sendProgress(progress, fetchSourceUpdate(i+1, len(sourceIDs), id))
		videos, err := e.service.PlaylistItems(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list source %s: %w", id, err)
		}
		logger.Debug("fetched source", "source", id, "videos", len(videos))
		sources = append(sources, videos)
	}

	report = &SyncReport{
		Playlist:   dest,
		DryRun:     dryRun,
		Candidates: Candidates(destVideos, sources),
	}
	e.sendProgress(progress, compareUpdate(dest, report.Candidates))

	if len(report.Candidates) == 0 || dryRun {
		e.sendProgress(progress, doneUpdate(report))
		return report, nil
	}

	total := len(report.Candidates)
	report.Results = make([]ItemResult, 0, total)
	for i, v := range report.Candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		e.sendProgress(progress, addVideoUpdate(i+1, total, v))
		err := e.service.AddVideo(ctx, dest.ID, v.ID)
		if err != nil {
			logger.Warn("failed to add", "title", v.Title, "video", v.ID, "err", err)
		} else {
			logger.Debug("added", "title", v.Title, "video", v.ID)
		}
		report.Results = append(report.Results, ItemResult{Video: v, Err: err})
	}

	e.sendProgress(progress, doneUpdate(report))
	return report, nil
}

func (e *PlaylistEngine) record(ctx context.Context, run *models.SyncRun) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Warn("failed to record sync run", "playlist", run.PlaylistID(), "err", err)
	}
}
