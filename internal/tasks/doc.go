// Package tasks reconciles destination playlists with their sources, with real-time progress reporting.
//
// # Reconciliation
//
// [PlaylistEngine.Reconcile] runs one playlist:
//
//  1. Lists the destination once; this snapshot is never refreshed during the run
//  2. Lists each source in order and keeps every video whose id is not in the snapshot
//     (see [Candidates]); a video found in two sources is a candidate twice
//  3. Stops when there is nothing to add or when running dry
//  4. Otherwise inserts candidates one by one, recording each [ItemResult]
//
// A listing failure aborts the playlist and is returned. A failed insertion is logged as a
// warning and the remaining candidates are still attempted. Nothing is retried or rolled back.
//
// # Batches
//
// [PlaylistEngine.SyncAll] walks playlists in configuration order, skipping those without
// sources. By default a failed playlist does not stop the batch; [BatchOpts.FailFast] does.
// [BatchResult.Err] joins every per-playlist error.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # History
//
// The optional [RunRecorder] receives a [models.SyncRun] per reconciliation, including failed ones.
// Recorder errors are logged and ignored.
package tasks
