package tasks

import (
	"fmt"

	"vibrato/internal/library"
	"vibrato/internal/store"
	"vibrato/pkg/models"
)

// PlaylistsTask loads every persisted playlist into memory. It is the
// exclusive writer of its target during execution.
type PlaylistsTask struct {
	store    *store.Store
	target   *library.Playlists
	progress ProgressFunc
	step     int
	steps    int
}

// Category returns CategoryPlaylists
func (p *PlaylistsTask) Category() Category { return CategoryPlaylists }

// Execute loads all playlists. Malformed rows are collected as item
// errors; an unreadable store is fatal.
func (p *PlaylistsTask) Execute() Outcome {
	notify(p.progress, p.step, p.steps, "Loading playlists...")

	total, err := p.store.CountPlaylists()
	if err != nil {
		return Outcome{Category: CategoryPlaylists, Status: StatusFatalFailure, Err: err}
	}

	outcome := Outcome{Category: CategoryPlaylists}
	err = p.store.EachPlaylist(func(playlist models.Playlist) {
		p.target.Put(playlist)
		outcome.Loaded++
		notify(p.progress, p.step, p.steps,
			fmt.Sprintf("Loading playlists (%d/%d)...", outcome.Loaded, total))
	}, func(rowErr error) {
		outcome.ItemErrors = append(outcome.ItemErrors, rowErr)
	})
	if err != nil {
		return Outcome{Category: CategoryPlaylists, Status: StatusFatalFailure, Err: err}
	}

	if len(outcome.ItemErrors) > 0 {
		outcome.Status = StatusPartialFailure
	}
	return outcome
}
