package waveform

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// writeTestWAV writes a minimal PCM wav file (16-bit mono 8kHz)
func writeTestWAV(t *testing.T, path string, samples []int16) {
	t.Helper()

	var buf bytes.Buffer
	dataSize := len(samples) * 2
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(8000))
	binary.Write(&buf, binary.LittleEndian, uint32(16000))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write test wav: %v", err)
	}
}

func TestEnvelope(t *testing.T) {
	t.Run("normalizes to unit range", func(t *testing.T) {
		samples := []float64{0, 100, -200, 50, 400, -400, 10, 20}
		peaks := envelope(samples, 4)

		if len(peaks) != 4 {
			t.Fatalf("Expected 4 peaks, got %d", len(peaks))
		}
		for i, p := range peaks {
			if p < 0 || p > 1 {
				t.Errorf("Peak %d = %f outside [0,1]", i, p)
			}
		}
		// Buckets: max(|0|,|100|)=100, 200, 400, 20 → normalized by 400
		want := []float32{0.25, 0.5, 1.0, 0.05}
		for i := range want {
			if peaks[i] != want[i] {
				t.Errorf("Peak %d = %f, want %f", i, peaks[i], want[i])
			}
		}
	})

	t.Run("silence stays zero", func(t *testing.T) {
		peaks := envelope(make([]float64, 100), 10)
		for i, p := range peaks {
			if p != 0 {
				t.Errorf("Peak %d = %f, want 0", i, p)
			}
		}
	})

	t.Run("fewer samples than peaks", func(t *testing.T) {
		peaks := envelope([]float64{10, -20}, 8)
		if len(peaks) != 8 {
			t.Fatalf("Expected 8 peaks, got %d", len(peaks))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		peaks := envelope(nil, 4)
		if len(peaks) != 4 {
			t.Fatalf("Expected 4 zero peaks, got %d", len(peaks))
		}
	})
}

func TestFromFileWAV(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")

	// Quiet first half, loud second half
	samples := make([]int16, 4000)
	for i := 2000; i < 4000; i++ {
		samples[i] = 16000
	}
	writeTestWAV(t, wavPath, samples)

	p := NewProcessor(8, quietLogger())
	wf, err := p.FromFile(wavPath, 42)
	if err != nil {
		t.Fatalf("FromFile() failed: %v", err)
	}

	if wf.TrackID != 42 {
		t.Errorf("TrackID = %d, want 42", wf.TrackID)
	}
	if len(wf.Peaks) != 8 {
		t.Fatalf("Expected 8 peaks, got %d", len(wf.Peaks))
	}
	if wf.Peaks[0] != 0 {
		t.Errorf("Quiet half should be 0, got %f", wf.Peaks[0])
	}
	if wf.Peaks[7] != 1 {
		t.Errorf("Loud half should be 1, got %f", wf.Peaks[7])
	}
}

func TestFromFileUnsupportedFormat(t *testing.T) {
	p := NewProcessor(8, quietLogger())
	if _, err := p.FromFile("/m/somefile.ogg", 1); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
