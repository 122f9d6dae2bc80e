package waveform

import (
	"os"
	"path/filepath"
	"testing"

	"vibrato/pkg/models"
)

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "waveforms")

	wf := models.Waveform{TrackID: 7, Peaks: []float32{0, 0.25, 1}}
	if err := Save(dir, wf); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := Load(FilePath(dir, 7))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.TrackID != 7 || len(got.Peaks) != 3 || got.Peaks[1] != 0.25 {
		t.Errorf("Round trip mangled waveform: %+v", got)
	}

	// No temp file left behind
	if _, err := os.Stat(FilePath(dir, 7) + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file left behind after Save()")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(FilePath(dir, 99)); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Expected error for malformed file")
		}
	})

	t.Run("missing track id", func(t *testing.T) {
		path := filepath.Join(dir, "noid.json")
		if err := os.WriteFile(path, []byte(`{"peaks":[0.5]}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Expected error for waveform without track id")
		}
	})
}
