// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

// Call records a single invocation of a [MockPlaylistService] method.
type Call struct {
	Method     string
	PlaylistID string
	VideoID    string
}

// MockPlaylistService is an in-memory test double for [services.PlaylistService]
//
// Insertions are applied to the stored playlist unless the video has an entry in AddErrs.
type MockPlaylistService struct {
	mu        sync.Mutex
	titles    map[string]string
	items     map[string][]models.Video
	videos    map[string]models.Video
	ListErrs  map[string]error
	TitleErrs map[string]error
	AddErrs   map[string]error
	Calls     []Call
}

// NewMockPlaylistService creates an empty mock.
func NewMockPlaylistService() *MockPlaylistService {
	return &MockPlaylistService{
		titles:    map[string]string{},
		items:     map[string][]models.Video{},
		videos:    map[string]models.Video{},
		ListErrs:  map[string]error{},
		TitleErrs: map[string]error{},
		AddErrs:   map[string]error{},
	}
}

// WithPlaylist stores a playlist and its videos.
func (m *MockPlaylistService) WithPlaylist(id, title string, videos ...models.Video) *MockPlaylistService {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.titles[id] = title
	m.items[id] = slices.Clone(videos)
	for _, v := range videos {
		m.videos[v.ID] = v
	}
	return m
}

func (m *MockPlaylistService) Name() string { return "mock" }

func (m *MockPlaylistService) PlaylistTitle(ctx context.Context, playlistID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{Method: "PlaylistTitle", PlaylistID: playlistID})
	if err := m.TitleErrs[playlistID]; err != nil {
		return "", err
	}
	title, ok := m.titles[playlistID]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return title, nil
}

func (m *MockPlaylistService) PlaylistItems(ctx context.Context, playlistID string) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{Method: "PlaylistItems", PlaylistID: playlistID})
	if err := m.ListErrs[playlistID]; err != nil {
		return nil, err
	}
	items, ok := m.items[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return slices.Clone(items), nil
}

func (m *MockPlaylistService) AddVideo(ctx context.Context, playlistID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{Method: "AddVideo", PlaylistID: playlistID, VideoID: videoID})
	if err := m.AddErrs[videoID]; err != nil {
		return err
	}
	v, ok := m.videos[videoID]
	if !ok {
		v = models.Video{ID: videoID}
	}
	m.items[playlistID] = append(m.items[playlistID], v)
	return nil
}

// CallCount returns how many times method was invoked.
func (m *MockPlaylistService) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Inserted returns the video ids passed to AddVideo for playlistID, in call order.
func (m *MockPlaylistService) Inserted(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for _, c := range m.Calls {
		if c.Method == "AddVideo" && c.PlaylistID == playlistID {
			ids = append(ids, c.VideoID)
		}
	}
	return ids
}

// Videos builds video references titled "Title <id>".
func Videos(ids ...string) []models.Video {
	out := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Video{ID: id, Title: "Title " + id})
	}
	return out
}

// IDs returns the ids of videos in order.
func IDs(videos []models.Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
