// Package repositories implements SQLite persistence for sync history.
//
// [SyncRunRepository] implements [models.Repository] for [models.SyncRun] and doubles as the
// reconciliation engine's run recorder. Runs store counts and the fatal error message only,
// never video lists.
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
