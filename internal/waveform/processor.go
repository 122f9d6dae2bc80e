package waveform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vibrato/pkg/models"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Processor computes fixed-size amplitude envelopes from audio files.
// The envelope is what the presentation layer renders as the track's
// waveform; it is normalized to [0, 1].
type Processor struct {
	peaks  int
	logger *logrus.Logger
}

// NewProcessor creates a processor producing envelopes of the given
// peak count.
func NewProcessor(peaks int, logger *logrus.Logger) *Processor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Processor{peaks: peaks, logger: logger}
}

// FromFile computes the waveform for an audio file.
func (p *Processor) FromFile(filePath string, trackID int) (models.Waveform, error) {
	var samples []float64
	var err error

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wav":
		samples, err = p.samplesWAV(filePath)
	case ".flac":
		samples, err = p.samplesFLAC(filePath)
	case ".mp3":
		samples, err = p.samplesMP3(filePath)
	default:
		return models.Waveform{}, fmt.Errorf("no waveform support for %s", filepath.Ext(filePath))
	}
	if err != nil {
		return models.Waveform{}, err
	}

	return models.Waveform{
		TrackID: trackID,
		Peaks:   envelope(samples, p.peaks),
	}, nil
}

// samplesWAV decodes the full PCM buffer of a wav file.
func (p *Processor) samplesWAV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return monoSamples(buf), nil
}

// monoSamples folds an interleaved PCM buffer down to one channel.
func monoSamples(buf *audio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	samples := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		samples = append(samples, float64(buf.Data[i]))
	}
	return samples
}

// samplesFLAC decodes flac audio frames, first channel only.
func (p *Processor) samplesFLAC(path string) ([]float64, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var samples []float64
	for {
		fr, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if len(samples) > 0 {
				break // partial decode; use what we have
			}
			return nil, err
		}
		if len(fr.Subframes) == 0 {
			continue
		}
		for _, sample := range fr.Subframes[0].Samples {
			samples = append(samples, float64(sample))
		}
	}
	if len(samples) == 0 {
		return nil, errors.New("flac stream contained no samples")
	}
	return samples, nil
}

// samplesMP3 approximates the envelope from frame byte sizes. The frame
// walker exposes no PCM, but louder passages compress to larger frames,
// which is close enough for a rendered overview.
func (p *Processor) samplesMP3(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var samples []float64
	var skipped int
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) || len(samples) > 0 {
				break
			}
			return nil, err
		}
		samples = append(samples, float64(fr.Size()))
	}
	if len(samples) == 0 {
		return nil, errors.New("mp3 stream contained no frames")
	}
	return samples, nil
}

// envelope buckets samples into the requested peak count, taking the
// max absolute amplitude per bucket, normalized to [0, 1].
func envelope(samples []float64, peaks int) []float32 {
	if peaks < 1 {
		peaks = 1
	}
	out := make([]float32, peaks)
	if len(samples) == 0 {
		return out
	}

	bucket := len(samples) / peaks
	if bucket < 1 {
		bucket = 1
	}

	var maxAmp float64
	raw := make([]float64, peaks)
	for i := 0; i < peaks; i++ {
		start := i * bucket
		if start >= len(samples) {
			break
		}
		end := start + bucket
		if i == peaks-1 || end > len(samples) {
			end = len(samples)
		}
		var peak float64
		for _, s := range samples[start:end] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		raw[i] = peak
		if peak > maxAmp {
			maxAmp = peak
		}
	}

	if maxAmp == 0 {
		return out
	}
	for i, peak := range raw {
		out[i] = float32(peak / maxAmp)
	}
	return out
}
