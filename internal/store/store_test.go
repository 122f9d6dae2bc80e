package store

import (
	"path/filepath"
	"testing"
	"time"

	"vibrato/pkg/models"

	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests

	st, err := NewStore(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestTracksRoundTrip(t *testing.T) {
	st := newTestStore(t)

	saved := []models.Track{
		{ID: 2, Title: "Second", Artist: "B", Album: "Y", TrackNumber: 2, Duration: 200, FilePath: "/m/b.flac", FileSize: 2048},
		{ID: 1, Title: "First", Artist: "A", Album: "X", TrackNumber: 1, Duration: 100, FilePath: "/m/a.mp3", FileSize: 1024},
	}
	if err := st.SaveTracks(saved); err != nil {
		t.Fatalf("SaveTracks() failed: %v", err)
	}

	count, err := st.CountTracks()
	if err != nil || count != 2 {
		t.Fatalf("CountTracks() = %d, %v; want 2", count, err)
	}

	var got []models.Track
	err = st.EachTrack(func(track models.Track) {
		got = append(got, track)
	}, func(rowErr error) {
		t.Errorf("Unexpected row error: %v", rowErr)
	})
	if err != nil {
		t.Fatalf("EachTrack() failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(got))
	}
	// Iteration is ordered by ID
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("Tracks not ordered by ID: %v, %v", got[0].ID, got[1].ID)
	}
	if got[0].Title != "First" || got[0].Duration != 100 || got[0].FilePath != "/m/a.mp3" {
		t.Errorf("Track 1 fields mangled: %+v", got[0])
	}
}

func TestSaveTracksReplacesSnapshot(t *testing.T) {
	st := newTestStore(t)

	if err := st.SaveTracks([]models.Track{
		{ID: 1, Title: "Old", Artist: "A", Album: "X", FilePath: "/m/old.mp3"},
		{ID: 2, Title: "Gone", Artist: "B", Album: "Y", FilePath: "/m/gone.mp3"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := st.SaveTracks([]models.Track{
		{ID: 1, Title: "New", Artist: "A", Album: "X", FilePath: "/m/old.mp3"},
	}); err != nil {
		t.Fatal(err)
	}

	count, err := st.CountTracks()
	if err != nil || count != 1 {
		t.Fatalf("CountTracks() = %d, %v; want 1 after replacement", count, err)
	}

	var title string
	st.EachTrack(func(track models.Track) { title = track.Title }, nil)
	if title != "New" {
		t.Errorf("Expected replaced title, got %q", title)
	}
}

func TestPlaylistsRoundTrip(t *testing.T) {
	st := newTestStore(t)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := st.SavePlaylists([]models.Playlist{
		{ID: 1, Name: "Favorites", Description: "best of", TrackIDs: []int{3, 1, 2}, CreatedAt: created},
	}); err != nil {
		t.Fatalf("SavePlaylists() failed: %v", err)
	}

	var got []models.Playlist
	err := st.EachPlaylist(func(playlist models.Playlist) {
		got = append(got, playlist)
	}, func(rowErr error) {
		t.Errorf("Unexpected row error: %v", rowErr)
	})
	if err != nil {
		t.Fatalf("EachPlaylist() failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("Expected 1 playlist, got %d", len(got))
	}
	p := got[0]
	if p.Name != "Favorites" || p.Description != "best of" {
		t.Errorf("Playlist fields mangled: %+v", p)
	}
	// Track order is part of the playlist
	if len(p.TrackIDs) != 3 || p.TrackIDs[0] != 3 || p.TrackIDs[1] != 1 || p.TrackIDs[2] != 2 {
		t.Errorf("Track IDs lost order: %v", p.TrackIDs)
	}
}

func TestEachPlaylistSkipsMalformedRow(t *testing.T) {
	st := newTestStore(t)

	if err := st.SavePlaylists([]models.Playlist{
		{ID: 1, Name: "Good", TrackIDs: []int{1}},
	}); err != nil {
		t.Fatal(err)
	}

	// Corrupt a row directly underneath the store
	if _, err := st.conn.Exec(
		`INSERT INTO playlists (id, name, track_ids) VALUES (2, 'Bad', 'not-json')`); err != nil {
		t.Fatal(err)
	}

	var loaded int
	var rowErrs int
	err := st.EachPlaylist(func(models.Playlist) { loaded++ }, func(error) { rowErrs++ })
	if err != nil {
		t.Fatalf("EachPlaylist() failed: %v", err)
	}
	if loaded != 1 || rowErrs != 1 {
		t.Errorf("Expected 1 loaded + 1 row error, got %d / %d", loaded, rowErrs)
	}
}
