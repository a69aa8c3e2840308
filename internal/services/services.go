package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"google.golang.org/api/googleapi"
)

// PlaylistService defines remote access to playlists on a video platform.
type PlaylistService interface {
	// Name returns the name of the service (e.g., "YouTube")
	Name() string

	// PlaylistTitle fetches the display title of a playlist.
	// Returns [shared.ErrPlaylistNotFound] when the platform reports no such playlist.
	PlaylistTitle(ctx context.Context, playlistID string) (string, error)

	// PlaylistItems fetches every video in a playlist in platform order.
	// A failure on any page fails the whole call.
	PlaylistItems(ctx context.Context, playlistID string) ([]models.Video, error)

	// AddVideo appends a single video to the end of a playlist.
	AddVideo(ctx context.Context, playlistID, videoID string) error
}

// mapAPIError converts a Google API error into the matching shared sentinel.
func mapAPIError(err error, op, playlistID string) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", shared.ErrPlaylistNotFound, playlistID, apiMessage(gerr))
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %s", shared.ErrNotAuthenticated, op, apiMessage(gerr))
		default:
			return fmt.Errorf("%w: %s %s (%d): %s", shared.ErrAPIRequest, op, playlistID, gerr.Code, apiMessage(gerr))
		}
	}

	return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, op, playlistID, err)
}

// mapInsertError reports a deleted or private video by its id.
func mapInsertError(err error, playlistID, videoID string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound && apiReason(gerr) == "videoNotFound" {
		return fmt.Errorf("%w: video %s unavailable: %s", shared.ErrAPIRequest, videoID, apiMessage(gerr))
	}
	return mapAPIError(err, "playlistItems.insert", playlistID)
}

func apiReason(gerr *googleapi.Error) string {
	if len(gerr.Errors) == 0 {
		return ""
	}
	return gerr.Errors[0].Reason
}

func apiMessage(gerr *googleapi.Error) string {
	if gerr.Message != "" {
		return gerr.Message
	}
	if len(gerr.Errors) > 0 {
		return gerr.Errors[0].Reason
	}
	return http.StatusText(gerr.Code)
}
