package library

import (
	"sort"
	"sync"

	"vibrato/pkg/models"
)

// Tracks is the in-memory track collection. It has a single exclusive
// writer during the startup load; afterwards the watcher and autosave
// demon access it through the mutex.
type Tracks struct {
	mu     sync.RWMutex
	byID   map[int]models.Track
	nextID int
}

// NewTracks creates an empty track collection
func NewTracks() *Tracks {
	return &Tracks{byID: make(map[int]models.Track), nextID: 1}
}

// Put inserts or replaces a track by its ID. Re-running an import for
// the same ID overwrites the entry without duplication.
func (t *Tracks) Put(track models.Track) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byID[track.ID] = track
	if track.ID >= t.nextID {
		t.nextID = track.ID + 1
	}
}

// NextID reserves the next free track ID for an incremental import.
func (t *Tracks) NextID() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	return id
}

// Get returns a track by ID
func (t *Tracks) Get(id int) (models.Track, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	track, ok := t.byID[id]
	return track, ok
}

// FindByPath returns the track stored for the given file path, if any.
func (t *Tracks) FindByPath(filePath string) (models.Track, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, track := range t.byID {
		if track.FilePath == filePath {
			return track, true
		}
	}
	return models.Track{}, false
}

// RemoveByPath deletes the track stored for the given file path and
// returns its ID, or false if no such track exists.
func (t *Tracks) RemoveByPath(filePath string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, track := range t.byID {
		if track.FilePath == filePath {
			delete(t.byID, id)
			return id, true
		}
	}
	return 0, false
}

// Len returns the number of tracks in the collection
func (t *Tracks) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// Snapshot returns all tracks sorted by ID, for persistence.
func (t *Tracks) Snapshot() []models.Track {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tracks := make([]models.Track, 0, len(t.byID))
	for _, track := range t.byID {
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks
}

// Playlists is the in-memory playlist collection
type Playlists struct {
	mu   sync.RWMutex
	byID map[int]models.Playlist
}

// NewPlaylists creates an empty playlist collection
func NewPlaylists() *Playlists {
	return &Playlists{byID: make(map[int]models.Playlist)}
}

// Put inserts or replaces a playlist by its ID
func (p *Playlists) Put(playlist models.Playlist) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[playlist.ID] = playlist
}

// Get returns a playlist by ID
func (p *Playlists) Get(id int) (models.Playlist, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	playlist, ok := p.byID[id]
	return playlist, ok
}

// Len returns the number of playlists in the collection
func (p *Playlists) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// Snapshot returns all playlists sorted by ID, for persistence.
func (p *Playlists) Snapshot() []models.Playlist {
	p.mu.RLock()
	defer p.mu.RUnlock()

	playlists := make([]models.Playlist, 0, len(p.byID))
	for _, playlist := range p.byID {
		playlists = append(playlists, playlist)
	}
	sort.Slice(playlists, func(i, j int) bool { return playlists[i].ID < playlists[j].ID })
	return playlists
}

// Waveforms is the in-memory waveform cache, keyed by track ID.
type Waveforms struct {
	mu      sync.RWMutex
	byTrack map[int]models.Waveform
}

// NewWaveforms creates an empty waveform cache
func NewWaveforms() *Waveforms {
	return &Waveforms{byTrack: make(map[int]models.Waveform)}
}

// Put stores the waveform for a track
func (w *Waveforms) Put(waveform models.Waveform) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.byTrack[waveform.TrackID] = waveform
}

// Get returns the waveform for a track
func (w *Waveforms) Get(trackID int) (models.Waveform, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	waveform, ok := w.byTrack[trackID]
	return waveform, ok
}

// Remove deletes the waveform for a track
func (w *Waveforms) Remove(trackID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.byTrack, trackID)
}

// Len returns the number of cached waveforms
func (w *Waveforms) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.byTrack)
}

// Snapshot returns all waveforms sorted by track ID, for persistence.
func (w *Waveforms) Snapshot() []models.Waveform {
	w.mu.RLock()
	defer w.mu.RUnlock()

	waveforms := make([]models.Waveform, 0, len(w.byTrack))
	for _, waveform := range w.byTrack {
		waveforms = append(waveforms, waveform)
	}
	sort.Slice(waveforms, func(i, j int) bool { return waveforms[i].TrackID < waveforms[j].TrackID })
	return waveforms
}

// Library bundles the three collections loaded at startup. Each load
// task writes to exactly one of them.
type Library struct {
	Tracks    *Tracks
	Playlists *Playlists
	Waveforms *Waveforms
}

// New creates an empty library
func New() *Library {
	return &Library{
		Tracks:    NewTracks(),
		Playlists: NewPlaylists(),
		Waveforms: NewWaveforms(),
	}
}
