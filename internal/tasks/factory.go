package tasks

import (
	"vibrato/internal/library"
	"vibrato/internal/metadata"
	"vibrato/internal/store"
)

// Bootstrap progress runs over four steps: configuration (reported by
// the caller before loading starts) followed by the three category
// loads.
const (
	StepConfiguration = 0
	StepWaveforms     = 1
	StepPlaylists     = 2
	StepTracks        = 3
	TotalSteps        = 4
)

// Factory builds the load tasks for one bootstrap run with their
// collaborators already wired in.
type Factory struct {
	store        *store.Store
	extractor    *metadata.Extractor
	lib          *library.Library
	waveformsDir string
	progress     ProgressFunc
}

// NewFactory creates a load task factory
func NewFactory(st *store.Store, extractor *metadata.Extractor, lib *library.Library,
	waveformsDir string, progress ProgressFunc) *Factory {
	return &Factory{
		store:        st,
		extractor:    extractor,
		lib:          lib,
		waveformsDir: waveformsDir,
		progress:     progress,
	}
}

// Tracks returns a full-scan tracks load task
func (f *Factory) Tracks() *TracksTask {
	return &TracksTask{
		store:     f.store,
		extractor: f.extractor,
		target:    f.lib.Tracks,
		progress:  f.progress,
		step:      StepTracks,
		steps:     TotalSteps,
	}
}

// SingleTrack returns a tracks task scoped to one audio file, for
// incremental imports.
func (f *Factory) SingleTrack(filePath string, trackID int) *TracksTask {
	return &TracksTask{
		store:     f.store,
		extractor: f.extractor,
		target:    f.lib.Tracks,
		scope:     &Scope{FilePath: filePath, TrackID: trackID},
		progress:  f.progress,
		step:      StepTracks,
		steps:     TotalSteps,
	}
}

// Playlists returns the playlists load task
func (f *Factory) Playlists() *PlaylistsTask {
	return &PlaylistsTask{
		store:    f.store,
		target:   f.lib.Playlists,
		progress: f.progress,
		step:     StepPlaylists,
		steps:    TotalSteps,
	}
}

// Waveforms returns the waveforms load task
func (f *Factory) Waveforms() *WaveformsTask {
	return &WaveformsTask{
		dir:      f.waveformsDir,
		target:   f.lib.Waveforms,
		progress: f.progress,
		step:     StepWaveforms,
		steps:    TotalSteps,
	}
}
