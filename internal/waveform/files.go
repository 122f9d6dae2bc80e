package waveform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"vibrato/pkg/models"
)

// FilePath returns the persisted location of a track's waveform.
func FilePath(dir string, trackID int) string {
	return filepath.Join(dir, strconv.Itoa(trackID)+".json")
}

// Save writes a waveform to its JSON file, creating the folder if
// needed. The write goes through a temp file and rename so the autosave
// demon never leaves a half-written waveform behind.
func Save(dir string, wf models.Waveform) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create waveforms folder: %w", err)
	}

	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("failed to encode waveform for track %d: %w", wf.TrackID, err)
	}

	target := FilePath(dir, wf.TrackID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// Load reads one persisted waveform file.
func Load(path string) (models.Waveform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Waveform{}, err
	}

	var wf models.Waveform
	if err := json.Unmarshal(data, &wf); err != nil {
		return models.Waveform{}, fmt.Errorf("malformed waveform file %s: %w", filepath.Base(path), err)
	}
	if wf.TrackID <= 0 {
		return models.Waveform{}, fmt.Errorf("waveform file %s has no track id", filepath.Base(path))
	}
	return wf, nil
}
