package models

import (
	"fmt"
	"time"
)

// SyncRun records the outcome of one reconciliation of a destination playlist.
//
// Only counts are kept; the videos themselves are never persisted.
type SyncRun struct {
	id            string
	sequence      int
	playlistID    string
	playlistTitle string
	dryRun        bool
	candidates    int
	added         int
	failed        int
	errorMessage  string
	startedAt     time.Time
	finishedAt    time.Time
	createdAt     time.Time
}

// NewSyncRun creates a run for the given destination playlist starting now.
func NewSyncRun(playlist Playlist, dryRun bool) *SyncRun {
	now := time.Now().UTC()
	return &SyncRun{
		playlistID:    playlist.ID,
		playlistTitle: playlist.Title,
		dryRun:        dryRun,
		startedAt:     now,
		createdAt:     now,
	}
}

// RestoreSyncRun rebuilds a run from stored values.
func RestoreSyncRun(id string, sequence int, playlistID, playlistTitle string, dryRun bool,
	candidates, added, failed int, errorMessage string, startedAt, finishedAt, createdAt time.Time,
) *SyncRun {
	return &SyncRun{
		id:            id,
		sequence:      sequence,
		playlistID:    playlistID,
		playlistTitle: playlistTitle,
		dryRun:        dryRun,
		candidates:    candidates,
		added:         added,
		failed:        failed,
		errorMessage:  errorMessage,
		startedAt:     startedAt,
		finishedAt:    finishedAt,
		createdAt:     createdAt,
	}
}

func (r *SyncRun) ID() string            { return r.id }
func (r *SyncRun) Sequence() int         { return r.sequence }
func (r *SyncRun) PlaylistID() string    { return r.playlistID }
func (r *SyncRun) PlaylistTitle() string { return r.playlistTitle }
func (r *SyncRun) DryRun() bool          { return r.dryRun }
func (r *SyncRun) Candidates() int       { return r.candidates }
func (r *SyncRun) Added() int            { return r.added }
func (r *SyncRun) Failed() int           { return r.failed }
func (r *SyncRun) ErrorMessage() string  { return r.errorMessage }
func (r *SyncRun) StartedAt() time.Time  { return r.startedAt }
func (r *SyncRun) FinishedAt() time.Time { return r.finishedAt }
func (r *SyncRun) CreatedAt() time.Time  { return r.createdAt }

func (r *SyncRun) SetID(id string)     { r.id = id }
func (r *SyncRun) SetSequence(seq int) { r.sequence = seq }

// Finish stores the counts of a reconciliation. A non-nil err marks the run as failed.
func (r *SyncRun) Finish(candidates, added, failed int, err error) {
	r.candidates = candidates
	r.added = added
	r.failed = failed
	if err != nil {
		r.errorMessage = err.Error()
	}
	r.finishedAt = time.Now().UTC()
}

// Succeeded reports whether the reconciliation completed without a fatal error.
func (r *SyncRun) Succeeded() bool {
	return r.errorMessage == ""
}

// Duration returns the wall time between start and finish.
func (r *SyncRun) Duration() time.Duration {
	if r.finishedAt.IsZero() {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Validate checks the invariants required before a run can be stored.
func (r *SyncRun) Validate() error {
	if r.playlistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if r.candidates < 0 || r.added < 0 || r.failed < 0 {
		return fmt.Errorf("counts cannot be negative")
	}
	if r.added+r.failed > r.candidates {
		return fmt.Errorf("added (%d) and failed (%d) exceed candidates (%d)", r.added, r.failed, r.candidates)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("start time is required")
	}
	return nil
}
