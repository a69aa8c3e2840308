// YouTube Data API v3 implementation of [PlaylistService]
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	// DefaultPageSize is the largest page the playlistItems endpoint serves.
	DefaultPageSize int64 = 50
	videoKind             = "youtube#video"
)

// YouTubeOpts configures a [YouTubeService].
//
// HTTPClient carries OAuth2 credentials; APIKey is used only when HTTPClient is nil.
type YouTubeOpts struct {
	HTTPClient        *http.Client
	APIKey            string
	Endpoint          string
	RequestsPerSecond float64
	PageSize          int64
	Logger            *log.Logger
}

// YouTubeService implements [PlaylistService] on the YouTube Data API.
type YouTubeService struct {
	svc      *youtube.Service
	limiter  *rate.Limiter
	pageSize int64
	readOnly bool
	logger   *log.Logger
}

// NewYouTubeService creates a YouTube Data API client from opts.
func NewYouTubeService(ctx context.Context, opts YouTubeOpts) (*YouTubeService, error) {
	var clientOpts []option.ClientOption
	readOnly := false

	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
		readOnly = true
	default:
		return nil, fmt.Errorf("%w: an OAuth2 client or API key is required", shared.ErrMissingCredentials)
	}

	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &YouTubeService{
		svc:      svc,
		limiter:  rate.NewLimiter(limit, 1),
		pageSize: pageSize,
		readOnly: readOnly,
		logger:   logger,
	}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// ReadOnly reports whether the service was built from an API key.
func (y *YouTubeService) ReadOnly() bool {
	return y.readOnly
}

// PlaylistTitle fetches the playlist snippet and returns its title.
func (y *YouTubeService) PlaylistTitle(ctx context.Context, playlistID string) (string, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := y.svc.Playlists.List([]string{"snippet"}).
		Id(playlistID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", mapAPIError(err, "playlists.list", playlistID)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	return resp.Items[0].Snippet.Title, nil
}

// PlaylistItems pages through playlistItems.list until nextPageToken is empty.
//
// Items lacking a snippet or a video id (deleted or private videos) are skipped.
func (y *YouTubeService) PlaylistItems(ctx context.Context, playlistID string) ([]models.Video, error) {
	var videos []models.Video
	pageToken := ""

	for {
		if err := y.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := y.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(y.pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, mapAPIError(err, "playlistItems.list", playlistID)
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				continue
			}
			videos = append(videos, models.Video{
				ID:    item.ContentDetails.VideoId,
				Title: item.Snippet.Title,
			})
		}
		y.logger.Debug("fetched page", "playlist", playlistID, "items", len(resp.Items), "next", resp.NextPageToken != "")

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return videos, nil
}

// AddVideo inserts videoID at the end of playlistID.
func (y *YouTubeService) AddVideo(ctx context.Context, playlistID, videoID string) error {
	if y.readOnly {
		return fmt.Errorf("%w: API key access is read-only", shared.ErrNotAuthenticated)
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}

	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    videoKind,
				VideoId: videoID,
			},
		},
	}

	if _, err := y.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return mapInsertError(err, playlistID, videoID)
	}

	return nil
}
