package models

import (
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations for a persistent model.
type Repository[T Model] interface {
	Create(model T) error          // Create inserts a new model into the database
	Get(id string) (T, error)      // Get retrieves a model by its ID
	List(limit int) ([]T, error)   // List retrieves the most recent models, newest first
	Prune(keep int) (int64, error) // Prune removes all but the newest keep models
}

// Playlist is a configured playlist and the playlists it pulls videos from.
type Playlist struct {
	ID       string   `toml:"id" json:"id" validate:"required"`
	Title    string   `toml:"title" json:"title"`
	SyncFrom []string `toml:"sync_from,omitempty" json:"sync_from,omitempty" validate:"dive,required"`
}

// HasSources reports whether the playlist syncs from at least one other playlist.
func (p Playlist) HasSources() bool {
	return len(p.SyncFrom) > 0
}

// Video is a playlist member. Values always come from the remote API.
type Video struct {
	ID    string `json:"video_id"`
	Title string `json:"title"`
}
