// package formatter renders sync reports and run history as text and CSV, and defines their JSON shapes
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/tasks"
)

const timeLayout = "2006-01-02 15:04:05"

// ReportJSON is the JSON shape of a single reconciliation.
type ReportJSON struct {
	PlaylistID    string         `json:"playlist_id"`
	PlaylistTitle string         `json:"playlist_title"`
	DryRun        bool           `json:"dry_run"`
	Candidates    []models.Video `json:"candidates"`
	Added         []models.Video `json:"added"`
	Failed        []FailureJSON  `json:"failed"`
	Error         string         `json:"error,omitempty"`
}

// FailureJSON pairs a video with the reason its insertion failed.
type FailureJSON struct {
	Video models.Video `json:"video"`
	Error string       `json:"error"`
}

// BatchJSON is the JSON shape of a sync command.
type BatchJSON struct {
	DryRun     bool         `json:"dry_run"`
	Candidates int          `json:"candidates"`
	Added      int          `json:"added"`
	Failed     int          `json:"failed"`
	Playlists  []ReportJSON `json:"playlists"`
}

// RunJSON is the JSON shape of a stored sync run.
type RunJSON struct {
	ID            string    `json:"id"`
	Sequence      int       `json:"sequence"`
	PlaylistID    string    `json:"playlist_id"`
	PlaylistTitle string    `json:"playlist_title"`
	DryRun        bool      `json:"dry_run"`
	Candidates    int       `json:"candidates"`
	Added         int       `json:"added"`
	Failed        int       `json:"failed"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// WriteReport writes the human readable result of one reconciliation.
func WriteReport(w io.Writer, report *tasks.SyncReport) error {
	var buf bytes.Buffer

	title := report.Playlist.Title
	if title == "" {
		title = report.Playlist.ID
	}
	total := len(report.Candidates)

	fmt.Fprintf(&buf, "Found %d videos to sync to '%s'\n", total, title)
	if total == 0 {
		_, err := w.Write(buf.Bytes())
		return err
	}

	if report.DryRun {
		fmt.Fprintf(&buf, "Would add %d videos:\n", total)
		for _, v := range report.Candidates {
			fmt.Fprintf(&buf, "  - %s\n", videoLabel(v))
		}
		_, err := w.Write(buf.Bytes())
		return err
	}

	for _, res := range report.Results {
		if res.OK() {
			fmt.Fprintf(&buf, "Added: %s\n", videoLabel(res.Video))
		} else {
			fmt.Fprintf(&buf, "Failed to add '%s': %v\n", videoLabel(res.Video), res.Err)
		}
	}
	fmt.Fprintf(&buf, "Successfully added %d/%d videos\n", report.Added(), total)

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteBatch writes every outcome followed by a one-line summary.
func WriteBatch(w io.Writer, result *tasks.BatchResult) error {
	if len(result.Outcomes) == 0 {
		_, err := fmt.Fprintln(w, "No playlists with sources to sync")
		return err
	}

	for i, o := range result.Outcomes {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if o.Report != nil {
			if err := WriteReport(w, o.Report); err != nil {
				return err
			}
		}
		if o.Err != nil {
			if _, err := fmt.Fprintf(w, "Sync of '%s' failed: %v\n", playlistLabel(o.Playlist), o.Err); err != nil {
				return err
			}
		}
	}

	failedPlaylists := 0
	for _, o := range result.Outcomes {
		if o.Err != nil {
			failedPlaylists++
		}
	}

	var summary string
	if result.DryRun {
		summary = fmt.Sprintf("\nDry run: %d videos across %d playlists would be added", result.Candidates(), len(result.Outcomes))
	} else {
		summary = fmt.Sprintf("\nSynced %d playlists: %d added, %d failed", len(result.Outcomes), result.Added(), result.Failed())
	}
	if failedPlaylists > 0 {
		summary += fmt.Sprintf(" (%d playlists failed)", failedPlaylists)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// ToReportJSON converts a report and its fatal error, either of which may be nil.
func ToReportJSON(pl models.Playlist, report *tasks.SyncReport, err error) ReportJSON {
	out := ReportJSON{
		PlaylistID:    pl.ID,
		PlaylistTitle: pl.Title,
		Candidates:    []models.Video{},
		Added:         []models.Video{},
		Failed:        []FailureJSON{},
	}
	if err != nil {
		out.Error = err.Error()
	}
	if report == nil {
		return out
	}

	out.DryRun = report.DryRun
	out.Candidates = append(out.Candidates, report.Candidates...)
	for _, res := range report.Results {
		if res.OK() {
			out.Added = append(out.Added, res.Video)
		} else {
			out.Failed = append(out.Failed, FailureJSON{Video: res.Video, Error: res.Err.Error()})
		}
	}
	return out
}

// ToBatchJSON converts a batch result.
func ToBatchJSON(result *tasks.BatchResult) BatchJSON {
	out := BatchJSON{
		DryRun:     result.DryRun,
		Candidates: result.Candidates(),
		Added:      result.Added(),
		Failed:     result.Failed(),
		Playlists:  make([]ReportJSON, 0, len(result.Outcomes)),
	}
	for _, o := range result.Outcomes {
		out.Playlists = append(out.Playlists, ToReportJSON(o.Playlist, o.Report, o.Err))
	}
	return out
}

// ToRunJSON converts a stored run.
func ToRunJSON(run *models.SyncRun) RunJSON {
	return RunJSON{
		ID:            run.ID(),
		Sequence:      run.Sequence(),
		PlaylistID:    run.PlaylistID(),
		PlaylistTitle: run.PlaylistTitle(),
		DryRun:        run.DryRun(),
		Candidates:    run.Candidates(),
		Added:         run.Added(),
		Failed:        run.Failed(),
		Error:         run.ErrorMessage(),
		StartedAt:     run.StartedAt(),
		FinishedAt:    run.FinishedAt(),
	}
}

// ToHistoryJSON converts stored runs, keeping their order.
func ToHistoryJSON(runs []*models.SyncRun) []RunJSON {
	out := make([]RunJSON, 0, len(runs))
	for _, r := range runs {
		out = append(out, ToRunJSON(r))
	}
	return out
}

// HistoryToCSV converts stored runs to CSV with a header row.
func HistoryToCSV(runs []*models.SyncRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Sequence", "Playlist ID", "Playlist", "Dry Run", "Candidates", "Added", "Failed", "Error", "Started", "Finished"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range runs {
		record := []string{
			r.ID(),
			strconv.Itoa(r.Sequence()),
			r.PlaylistID(),
			r.PlaylistTitle(),
			strconv.FormatBool(r.DryRun()),
			strconv.Itoa(r.Candidates()),
			strconv.Itoa(r.Added()),
			strconv.Itoa(r.Failed()),
			r.ErrorMessage(),
			r.StartedAt().Format(time.RFC3339),
			formatOptionalTime(r.FinishedAt(), time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteHistory writes stored runs as an aligned table.
func WriteHistory(w io.Writer, runs []*models.SyncRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No sync runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTARTED\tTOOK\tPLAYLIST\tMODE\tFOUND\tADDED\tFAILED\tSTATUS")
	for _, r := range runs {
		mode := "sync"
		if r.DryRun() {
			mode = "dry-run"
		}
		status := "ok"
		if !r.Succeeded() {
			status = "error: " + r.ErrorMessage()
		}
		title := r.PlaylistTitle()
		if title == "" {
			title = r.PlaylistID()
		}
		took := "-"
		if d := r.Duration(); d > 0 {
			took = d.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.Sequence(),
			r.StartedAt().Local().Format(timeLayout),
			took,
			title,
			mode,
			r.Candidates(),
			r.Added(),
			r.Failed(),
			status,
		)
	}
	return tw.Flush()
}

func formatOptionalTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func videoLabel(v models.Video) string {
	if v.Title == "" {
		return v.ID
	}
	return v.Title
}

func playlistLabel(p models.Playlist) string {
	if p.Title == "" {
		return p.ID
	}
	return p.Title
}
