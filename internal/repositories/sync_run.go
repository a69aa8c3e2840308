package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

// ErrRunNotFound is returned when no sync run matches the requested id.
var ErrRunNotFound = errors.New("sync run not found")

const syncRunColumns = `id, sequence, playlist_id, playlist_title, dry_run, candidates, added, failed, error_message, started_at, finished_at, created_at`

// SyncRunRepository implements models.Repository[*models.SyncRun] for sync history.
//
// When keep is positive, [SyncRunRepository.Record] prunes older runs after each insert.
type SyncRunRepository struct {
	db   *sql.DB
	keep int
}

var _ models.Repository[*models.SyncRun] = (*SyncRunRepository)(nil)

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB, keep int) *SyncRunRepository {
	return &SyncRunRepository{db: db, keep: keep}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	return r.create(context.Background(), run)
}

// Record stores run and trims history to the configured size.
func (r *SyncRunRepository) Record(ctx context.Context, run *models.SyncRun) error {
	if err := r.create(ctx, run); err != nil {
		return err
	}
	if r.keep > 0 {
		if _, err := r.prune(ctx, r.keep); err != nil {
			return err
		}
	}
	return nil
}

func (r *SyncRunRepository) create(ctx context.Context, run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	var finishedAt sql.NullTime
	if !run.FinishedAt().IsZero() {
		finishedAt = sql.NullTime{Time: run.FinishedAt(), Valid: true}
	}

	query := `
		INSERT INTO sync_runs (` + syncRunColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var sequence int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		if sequence, err = NextSequence(ctx, tx, "sync_runs"); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			id,
			sequence,
			run.PlaylistID(),
			run.PlaylistTitle(),
			run.DryRun(),
			run.Candidates(),
			run.Added(),
			run.Failed(),
			run.ErrorMessage(),
			run.StartedAt(),
			finishedAt,
			run.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert sync run: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// List retrieves the most recent runs, newest first. A non-positive limit returns every run.
func (r *SyncRunRepository) List(limit int) ([]*models.SyncRun, error) {
	return r.query(`SELECT `+syncRunColumns+` FROM sync_runs ORDER BY sequence DESC LIMIT ?`, limitArg(limit))
}

// ListByPlaylist retrieves the most recent runs of one destination playlist, newest first.
func (r *SyncRunRepository) ListByPlaylist(playlistID string, limit int) ([]*models.SyncRun, error) {
	return r.query(`SELECT `+syncRunColumns+` FROM sync_runs WHERE playlist_id = ? ORDER BY sequence DESC LIMIT ?`, playlistID, limitArg(limit))
}

// Prune deletes all but the newest keep runs and returns how many were removed.
// A non-positive keep removes nothing.
func (r *SyncRunRepository) Prune(keep int) (int64, error) {
	return r.prune(context.Background(), keep)
}

func (r *SyncRunRepository) prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM sync_runs
		WHERE id NOT IN (SELECT id FROM sync_runs ORDER BY sequence DESC LIMIT ?)
	`

	result, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync runs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func (r *SyncRunRepository) query(query string, args ...any) ([]*models.SyncRun, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// limitArg maps a non-positive limit to SQLite's "no limit".
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.SyncRun]
func scanRun(row scanner) (*models.SyncRun, error) {
	var (
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
		finishedAt    sql.NullTime
		createdAt     time.Time
	)

	err := row.Scan(&id, &sequence, &playlistID, &playlistTitle, &dryRun, &candidates, &added, &failed, &errorMessage, &startedAt, &finishedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	var finished time.Time
	if finishedAt.Valid {
		finished = finishedAt.Time
	}

	return models.RestoreSyncRun(id, sequence, playlistID, playlistTitle, dryRun,
		candidates, added, failed, errorMessage, startedAt, finished, createdAt), nil
}
