package tasks

import (
	"fmt"
	"os"

	"vibrato/internal/library"
	"vibrato/internal/metadata"
	"vibrato/internal/store"
	"vibrato/pkg/models"
)

// Scope narrows a tracks load to exactly one audio file and target
// entry, used for incremental imports. A nil scope means a full load of
// everything persisted for the category.
type Scope struct {
	FilePath string
	TrackID  int
}

// TracksTask loads the persisted track collection into memory, or a
// single file when scoped. It is the exclusive writer of its target
// during execution.
type TracksTask struct {
	store     *store.Store
	extractor *metadata.Extractor
	target    *library.Tracks
	scope     *Scope
	progress  ProgressFunc
	step      int
	steps     int
}

// Category returns CategoryTracks
func (t *TracksTask) Category() Category { return CategoryTracks }

// Execute loads tracks per the task's scope. Per-row failures are
// collected as item errors; an unreadable store (or scoped file) is
// fatal.
func (t *TracksTask) Execute() Outcome {
	if t.scope != nil {
		return t.executeScoped()
	}

	notify(t.progress, t.step, t.steps, "Loading tracks...")

	total, err := t.store.CountTracks()
	if err != nil {
		return Outcome{Category: CategoryTracks, Status: StatusFatalFailure, Err: err}
	}

	outcome := Outcome{Category: CategoryTracks}
	err = t.store.EachTrack(func(track models.Track) {
		t.target.Put(track)
		outcome.Loaded++
		notify(t.progress, t.step, t.steps,
			fmt.Sprintf("Loading tracks (%d/%d)...", outcome.Loaded, total))
	}, func(rowErr error) {
		outcome.ItemErrors = append(outcome.ItemErrors, rowErr)
	})
	if err != nil {
		return Outcome{Category: CategoryTracks, Status: StatusFatalFailure, Err: err}
	}

	if len(outcome.ItemErrors) > 0 {
		outcome.Status = StatusPartialFailure
	}
	return outcome
}

// executeScoped imports exactly one audio file into the target entry.
func (t *TracksTask) executeScoped() Outcome {
	notify(t.progress, t.step, t.steps, fmt.Sprintf("Importing %s...", t.scope.FilePath))

	if _, err := os.Stat(t.scope.FilePath); err != nil {
		return Outcome{Category: CategoryTracks, Status: StatusFatalFailure, Err: err}
	}

	track, err := t.extractor.ExtractFromFile(t.scope.FilePath, t.scope.TrackID)
	if err != nil {
		return Outcome{Category: CategoryTracks, Status: StatusFatalFailure, Err: err}
	}

	t.target.Put(track)
	return Outcome{Category: CategoryTracks, Loaded: 1}
}
