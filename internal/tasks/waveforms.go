package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vibrato/internal/library"
	"vibrato/internal/waveform"
)

// WaveformsTask loads persisted waveform files into the in-memory
// cache. It is the exclusive writer of its target during execution.
type WaveformsTask struct {
	dir      string
	target   *library.Waveforms
	progress ProgressFunc
	step     int
	steps    int
}

// Category returns CategoryWaveforms
func (w *WaveformsTask) Category() Category { return CategoryWaveforms }

// Execute reads every waveform file under the task's folder. A
// malformed file is an item error; a missing or unreadable folder is
// fatal.
func (w *WaveformsTask) Execute() Outcome {
	notify(w.progress, w.step, w.steps, "Loading waveforms...")

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return Outcome{Category: CategoryWaveforms, Status: StatusFatalFailure, Err: err}
	}

	outcome := Outcome{Category: CategoryWaveforms}
	total := len(entries)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		wf, err := waveform.Load(filepath.Join(w.dir, entry.Name()))
		if err != nil {
			outcome.ItemErrors = append(outcome.ItemErrors, err)
			continue
		}
		w.target.Put(wf)
		outcome.Loaded++
		notify(w.progress, w.step, w.steps,
			fmt.Sprintf("Loading waveforms (%d/%d)...", outcome.Loaded, total))
	}

	if len(outcome.ItemErrors) > 0 {
		outcome.Status = StatusPartialFailure
	}
	return outcome
}
