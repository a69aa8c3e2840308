package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/playsync/internal/tasks"
	"github.com/schollz/progressbar/v3"
)

// NewProgressBar creates a counting bar on w. A zero total is drawn as one step.
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	if total <= 0 {
		total = 1
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

// RenderProgress draws updates on w until the channel is closed.
//
// Playlist and comparison messages are printed as lines; insertions drive a progress bar.
func RenderProgress(w io.Writer, updates <-chan tasks.ProgressUpdate) {
	var bar *progressbar.ProgressBar

	finish := func() {
		if bar != nil {
			bar.Finish()
			bar = nil
		}
	}

	for u := range updates {
		switch u.Phase {
		case tasks.StartPlaylist:
			finish()
			fmt.Fprintln(w, Intro(u.Message))
		case tasks.FetchDest, tasks.FetchSource:
			fmt.Fprintln(w, Note(u.Message))
		case tasks.Compare:
			fmt.Fprintln(w, u.Message)
		case tasks.AddVideos:
			if bar == nil {
				bar = NewProgressBar(w, u.Total, "Adding videos")
			}
			bar.Set(u.Step - 1)
		case tasks.Done:
			if bar != nil {
				bar.Set(u.Total)
			}
			finish()
		}
	}
	finish()
}
