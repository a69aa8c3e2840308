// Package services defines the [PlaylistService] interface for remote playlist access and
// implements it on the YouTube Data API v3.
//
// # PlaylistService Interface
//
// Reconciliation only needs three remote operations: a playlist title lookup, a complete
// listing of a playlist's videos, and a single insertion. Hiding them behind one interface
// keeps the engine testable against in-memory fakes.
//
// # YouTube Implementation
//
// [YouTubeService] wraps [youtube.Service]. Listing follows nextPageToken until it is empty
// and returns either every item or an error, never a partial list. Every request waits on a
// [rate.Limiter] first; a failed request is reported as is and never retried.
//
// # Authentication
//
// Writes need OAuth2. [LoadOAuthConfig] reads the Google client secret file and
// [TokenStore] caches the token on disk. [NewAuthorizedClient] returns an [http.Client]
// whose refreshed tokens are written back to the store.
//
// An API key grants read-only access. A service built with one refuses [YouTubeService.AddVideo].
//
// # Error Handling
//
// Google API errors map to shared sentinels:
//   - [shared.ErrPlaylistNotFound] : 404 or an empty playlists.list response
//   - [shared.ErrNotAuthenticated] : 401, missing token or read-only service
//   - [shared.ErrAPIRequest] : anything else
package services
