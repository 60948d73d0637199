// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/samber/lo"
)

// MockLibrary is an in-memory test double for [services.Library].
//
// Catalog maps "<title>|<artist>" (see [shared.NormalizeTrackKey]) to the search result.
type MockLibrary struct {
	mu sync.Mutex

	Saved     []models.Track
	Catalog   map[string]models.Track
	Lists     []models.Playlist
	Members   map[string][]string
	Public    map[string]bool
	nextID    int
	CallCount map[string]int

	SavedErr    error
	SearchErr   error
	PlaylistErr error
	CreateErr   error
	MembersErr  error
	AddErr      error
}

// NewMockLibrary creates a library holding saved tracks. Every saved track is also searchable.
func NewMockLibrary(saved ...models.Track) *MockLibrary {
	m := &MockLibrary{
		Saved:     saved,
		Catalog:   map[string]models.Track{},
		Members:   map[string][]string{},
		Public:    map[string]bool{},
		CallCount: map[string]int{},
	}
	for _, t := range saved {
		m.AddToCatalog(t)
	}
	return m
}

// AddToCatalog makes t searchable by its title and artist.
func (m *MockLibrary) AddToCatalog(t models.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.URI == "" {
		t.URI = "spotify:track:" + strings.ReplaceAll(strings.ToLower(t.Title), " ", "-")
	}
	m.Catalog[shared.NormalizeTrackKey(t.Title, t.Artist)] = t
}

// RemoveFromCatalog makes t unsearchable.
func (m *MockLibrary) RemoveFromCatalog(title, artist string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Catalog, shared.NormalizeTrackKey(title, artist))
}

// AddPlaylist registers an existing playlist.
func (m *MockLibrary) AddPlaylist(id, name string, uris ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lists = append(m.Lists, models.Playlist{ID: id, Name: name, TrackCount: len(uris), Public: true})
	m.Members[id] = append([]string{}, uris...)
}

// Calls returns how many times op was invoked.
func (m *MockLibrary) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount[op]
}

// PlaylistNamed returns the first playlist whose name equals name exactly.
func (m *MockLibrary) PlaylistNamed(name string) (models.Playlist, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Find(m.Lists, func(p models.Playlist) bool { return p.Name == name })
}

// Membership returns the URIs stored in a playlist.
func (m *MockLibrary) Membership(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Members[id]...)
}

func (m *MockLibrary) SavedTracks(ctx context.Context, offset, limit int) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["SavedTracks"]++
	if m.SavedErr != nil {
		return nil, m.SavedErr
	}
	if offset >= len(m.Saved) {
		return []models.Track{}, nil
	}
	end := min(offset+limit, len(m.Saved))
	return append([]models.Track{}, m.Saved[offset:end]...), nil
}

func (m *MockLibrary) Playlists(ctx context.Context) ([]models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["Playlists"]++
	if m.PlaylistErr != nil {
		return nil, m.PlaylistErr
	}
	return append([]models.Playlist{}, m.Lists...), nil
}

func (m *MockLibrary) CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["CreatePlaylist"]++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	p := models.Playlist{ID: fmt.Sprintf("created-%d", m.nextID), Name: name, Public: public}
	m.Lists = append(m.Lists, p)
	m.Members[p.ID] = []string{}
	m.Public[p.ID] = public
	return &p, nil
}

func (m *MockLibrary) PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["PlaylistTrackURIs"]++
	if m.MembersErr != nil {
		return nil, m.MembersErr
	}
	uris, ok := m.Members[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return append([]string{}, uris...), nil
}

func (m *MockLibrary) AddTrack(ctx context.Context, playlistID string, track models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["AddTrack"]++
	if m.AddErr != nil {
		return m.AddErr
	}
	if _, ok := m.Members[playlistID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	m.Members[playlistID] = append(m.Members[playlistID], track.URI)
	return nil
}

func (m *MockLibrary) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["SearchTrack"]++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	t, ok := m.Catalog[shared.NormalizeTrackKey(title, artist)]
	if !ok {
		return nil, fmt.Errorf("%w: %s by %s", shared.ErrTrackNotFound, title, artist)
	}
	return &t, nil
}

// MockClassifier answers with fixed genres per track title. Unknown titles are unclassified.
type MockClassifier struct {
	Genres map[string][]models.Genre
	Err    error
	Calls  []models.Track
}

func (m *MockClassifier) Classify(ctx context.Context, track models.Track) (models.Classification, error) {
	m.Calls = append(m.Calls, track)
	if m.Err != nil {
		return models.Classification{}, m.Err
	}
	genres, ok := m.Genres[track.Title]
	if !ok || len(genres) == 0 {
		genres = []models.Genre{models.Unclassified}
	}
	return models.Classification{Track: track, Genres: genres, Reply: models.JoinGenres(genres)}, nil
}

// MockPrompter returns scripted answers in order and declines once they run out.
type MockPrompter struct {
	Answers   []bool
	Err       error
	Questions []string
}

func (m *MockPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	m.Questions = append(m.Questions, question)
	if m.Err != nil {
		return false, m.Err
	}
	if len(m.Questions) > len(m.Answers) {
		return false, nil
	}
	return m.Answers[len(m.Questions)-1], nil
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

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
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
