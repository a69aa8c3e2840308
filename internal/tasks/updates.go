package tasks

import (
	"fmt"

	"github.com/desertthunder/playsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	StartPlaylist Phase = iota
	FetchDest
	FetchSource
	Compare
	AddVideos
	Done
)

func (p Phase) String() string {
	switch p {
	case StartPlaylist:
		return "start_playlist"
	case FetchDest:
		return "fetch_dest"
	case FetchSource:
		return "fetch_source"
	case Compare:
		return "compare"
	case AddVideos:
		return "add_videos"
	case Done:
		return "done"
	default:
		return ""
	}
}

func startPlaylistUpdate(step, total int, pl models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Syncing '%s'...", step, total, displayTitle(pl)),
		Data:    pl,
	}
}

func fetchDestUpdate(pl models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching destination playlist (%s)...", pl.ID),
	}
}

func fetchSourceUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching source playlist (%s)...", step, total, id),
	}
}

func compareUpdate(pl models.Playlist, candidates []models.Video) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d videos to sync to '%s'", len(candidates), displayTitle(pl)),
		Data:    candidates,
	}
}

func addVideoUpdate(step, total int, v models.Video) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding: %s", step, total, v.Title),
		Data:    v,
	}
}

func doneUpdate(report *SyncReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    report.Added(),
		Total:   len(report.Candidates),
		Message: fmt.Sprintf("Successfully added %d videos", report.Added()),
		Data:    report,
	}
}

func displayTitle(pl models.Playlist) string {
	if pl.Title != "" {
		return pl.Title
	}
	return pl.ID
}
