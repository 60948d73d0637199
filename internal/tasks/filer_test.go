package tasks

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	tu "github.com/desertthunder/sortify/internal/testing"
)

func classified(title, artist string, genres ...models.Genre) models.Classification {
	return models.Classification{Track: models.Track{Title: title, Artist: artist}, Genres: genres}
}

func newTestFiler(lib *tu.MockLibrary) *Filer {
	return NewFiler(lib, FilerOpts{PublicPlaylists: true, Logger: shared.NewLogger(io.Discard)})
}

func TestFiler(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Playlist And Adds Track", func(t *testing.T) {
		lib := tu.NewMockLibrary(models.Track{Title: "Essence", Artist: "Wizkid", URI: "spotify:track:essence"})

		result, err := newTestFiler(lib).File(ctx, []models.Classification{classified("Essence", "Wizkid", models.Afrobeats)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		p, ok := lib.PlaylistNamed("Afrobeats")
		if !ok {
			t.Fatal("expected Afrobeats playlist to be created")
		}
		if !lib.Public[p.ID] {
			t.Error("expected created playlist to be public")
		}
		if !slices.Equal(lib.Membership(p.ID), []string{"spotify:track:essence"}) {
			t.Errorf("unexpected membership %v", lib.Membership(p.ID))
		}
		if result.Added != 1 || len(result.Created) != 1 {
			t.Errorf("expected 1 added and 1 created, got %+v", result)
		}
	})

	t.Run("Same Track Twice Yields One Membership", func(t *testing.T) {
		lib := tu.NewMockLibrary(models.Track{Title: "Essence", Artist: "Wizkid", URI: "spotify:track:essence"})
		f := newTestFiler(lib)
		c := classified("Essence", "Wizkid", models.Afrobeats)

		for range 2 {
			if _, err := f.File(ctx, []models.Classification{c}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		p, _ := lib.PlaylistNamed("Afrobeats")
		if got := lib.Membership(p.ID); len(got) != 1 {
			t.Errorf("expected one membership, got %v", got)
		}
		if lib.Calls("CreatePlaylist") != 1 {
			t.Errorf("expected one playlist creation, got %d", lib.Calls("CreatePlaylist"))
		}
	})

	t.Run("Repeated Genre In One Reply", func(t *testing.T) {
		lib := tu.NewMockLibrary(models.Track{Title: "Paranoid", Artist: "Black Sabbath"})

		result, err := newTestFiler(lib).File(ctx, []models.Classification{
			classified("Paranoid", "Black Sabbath", models.Rock, models.Rock),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		p, _ := lib.PlaylistNamed("Rock")
		if got := lib.Membership(p.ID); len(got) != 1 {
			t.Errorf("expected one membership, got %v", got)
		}
		if result.Added != 1 || result.Present != 1 {
			t.Errorf("expected 1 added and 1 already present, got %+v", result)
		}
	})

	t.Run("Case Insensitive Lookup", func(t *testing.T) {
		lib := tu.NewMockLibrary(models.Track{Title: "Flowers", Artist: "Miley Cyrus"})
		lib.AddPlaylist("existing-pop", "pop")

		if _, err := newTestFiler(lib).File(ctx, []models.Classification{classified("Flowers", "Miley Cyrus", models.Pop)}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if lib.Calls("CreatePlaylist") != 0 {
			t.Error("expected no playlist to be created")
		}
		if got := lib.Membership("existing-pop"); len(got) != 1 {
			t.Errorf("expected track in existing playlist, got %v", got)
		}
	})

	t.Run("First Matching Playlist Wins", func(t *testing.T) {
		lib := tu.NewMockLibrary(models.Track{Title: "So What", Artist: "Miles Davis"})
		lib.AddPlaylist("jazz-1", "JAZZ")
		lib.AddPlaylist("jazz-2", "Jazz")

		if _, err := newTestFiler(lib).File(ctx, []models.Classification{classified("So What", "Miles Davis", models.Jazz)}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Membership("jazz-1")) != 1 || len(lib.Membership("jazz-2")) != 0 {
			t.Error("expected track to be filed into the first matching playlist")
		}
	})

	t.Run("Already Present", func(t *testing.T) {
		track := models.Track{Title: "Jolene", Artist: "Dolly Parton", URI: "spotify:track:jolene"}
		lib := tu.NewMockLibrary(track)
		lib.AddPlaylist("country", "Country", track.URI)

		result, err := newTestFiler(lib).File(ctx, []models.Classification{classified("Jolene", "Dolly Parton", models.Country)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lib.Calls("AddTrack") != 0 {
			t.Error("expected no add call")
		}
		if result.Filings[0].Outcome != models.OutcomeAlreadyPresent {
			t.Errorf("expected already present, got %v", result.Filings[0].Outcome)
		}
	})

	t.Run("Not Found Skips Without Mutation", func(t *testing.T) {
		lib := tu.NewMockLibrary()

		result, err := newTestFiler(lib).File(ctx, []models.Classification{classified("Song A", "Artist X", models.Rock)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.NotFound != 1 || result.Filings[0].Outcome != models.OutcomeNotFound {
			t.Errorf("expected one not-found filing, got %+v", result)
		}
		for _, op := range []string{"Playlists", "CreatePlaylist", "PlaylistTrackURIs", "AddTrack"} {
			if lib.Calls(op) != 0 {
				t.Errorf("expected no %s calls, got %d", op, lib.Calls(op))
			}
		}
	})

	t.Run("Unclassified Is Skipped", func(t *testing.T) {
		lib := tu.NewMockLibrary(models.Track{Title: "Mystery", Artist: "Nobody"})

		result, err := newTestFiler(lib).File(ctx, []models.Classification{classified("Mystery", "Nobody", models.Unclassified)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Filings[0].Outcome != models.OutcomeUnclassified {
			t.Errorf("expected unclassified outcome, got %v", result.Filings[0].Outcome)
		}
		if lib.Calls("SearchTrack") != 0 || lib.Calls("CreatePlaylist") != 0 {
			t.Error("expected no search or playlist work for unclassified tracks")
		}
	})

	t.Run("Playlist Index Loaded Once Per Batch", func(t *testing.T) {
		lib := tu.NewMockLibrary(
			models.Track{Title: "One", Artist: "A"},
			models.Track{Title: "Two", Artist: "B"},
			models.Track{Title: "Three", Artist: "C"},
		)

		_, err := newTestFiler(lib).File(ctx, []models.Classification{
			classified("One", "A", models.Metal),
			classified("Two", "B", models.Metal, models.Punk),
			classified("Three", "C", models.Punk),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lib.Calls("Playlists") != 1 {
			t.Errorf("expected one playlist listing, got %d", lib.Calls("Playlists"))
		}
		if lib.Calls("CreatePlaylist") != 2 {
			t.Errorf("expected two playlists created, got %d", lib.Calls("CreatePlaylist"))
		}
		if lib.Calls("PlaylistTrackURIs") != 4 {
			t.Errorf("expected membership fetched per pair, got %d", lib.Calls("PlaylistTrackURIs"))
		}
	})

	t.Run("Reports Progress", func(t *testing.T) {
		lib := tu.NewMockLibrary(models.Track{Title: "Essence", Artist: "Wizkid"})
		var updates []ProgressUpdate
		f := NewFiler(lib, FilerOpts{Reporter: ReporterFunc(func(u ProgressUpdate) { updates = append(updates, u) }), Logger: shared.NewLogger(io.Discard)})

		if _, err := f.File(ctx, []models.Classification{classified("Essence", "Wizkid", models.Afrobeats)}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(updates) != 2 {
			t.Fatalf("expected created and added updates, got %d", len(updates))
		}
		if updates[1].Message != "Added Essence by Wizkid to Afrobeats" {
			t.Errorf("unexpected message %q", updates[1].Message)
		}
	})

	t.Run("Errors Propagate", func(t *testing.T) {
		boom := errors.New("boom")
		tests := []struct {
			name  string
			setup func(*tu.MockLibrary)
		}{
			{"Search", func(m *tu.MockLibrary) { m.SearchErr = boom }},
			{"Playlists", func(m *tu.MockLibrary) { m.PlaylistErr = boom }},
			{"Create", func(m *tu.MockLibrary) { m.CreateErr = boom }},
			{"Members", func(m *tu.MockLibrary) { m.MembersErr = boom }},
			{"Add", func(m *tu.MockLibrary) { m.AddErr = boom }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				lib := tu.NewMockLibrary(models.Track{Title: "Essence", Artist: "Wizkid"})
				tt.setup(lib)

				_, err := newTestFiler(lib).File(ctx, []models.Classification{classified("Essence", "Wizkid", models.Afrobeats)})
				if !errors.Is(err, boom) {
					t.Errorf("expected boom, got %v", err)
				}
			})
		}
	})
}
