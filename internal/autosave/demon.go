package autosave

import (
	"sync/atomic"
	"time"

	"vibrato/internal/library"
	"vibrato/internal/store"
	"vibrato/internal/waveform"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// SaveFunc persists the current library snapshot.
type SaveFunc func() error

// Demon periodically persists the in-memory library. Before each write
// cycle it polls the gate and skips the cycle entirely (it does not
// queue it) while the gate is closed.
type Demon struct {
	gate     *Gate
	interval time.Duration
	save     SaveFunc
	logger   *logrus.Logger

	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// NewDemon creates a demon saving through save every interval while the
// gate is open.
func NewDemon(gate *Gate, interval time.Duration, save SaveFunc, logger *logrus.Logger) *Demon {
	if logger == nil {
		logger = logrus.New()
	}
	return &Demon{
		gate:     gate,
		interval: interval,
		save:     save,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic save loop. Calling it twice is a no-op.
func (d *Demon) Start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go d.run()
}

// Stop terminates the loop and waits for any in-flight cycle to
// finish. Safe to call when the demon never started.
func (d *Demon) Stop() {
	if !d.started.CompareAndSwap(true, false) {
		return
	}
	close(d.stop)
	<-d.done
}

func (d *Demon) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !d.gate.IsOpen() {
				d.logger.Debug("Autosave gate closed, skipping save cycle")
				continue
			}
			if err := d.save(); err != nil {
				d.logger.WithError(err).Error("Autosave cycle failed")
			} else {
				d.logger.Debug("Autosave cycle finished")
			}
		case <-d.stop:
			return
		}
	}
}

// ForceSave runs one save cycle immediately, regardless of the ticker.
// Used for the final flush on shutdown.
func (d *Demon) ForceSave() error {
	return d.save()
}

// LibrarySaver builds a SaveFunc persisting tracks and playlists to the
// store and waveforms to their folder.
func LibrarySaver(lib *library.Library, st *store.Store, waveformsDir string) SaveFunc {
	return func() error {
		var err error
		err = multierr.Append(err, st.SaveTracks(lib.Tracks.Snapshot()))
		err = multierr.Append(err, st.SavePlaylists(lib.Playlists.Snapshot()))
		for _, wf := range lib.Waveforms.Snapshot() {
			err = multierr.Append(err, waveform.Save(waveformsDir, wf))
		}
		return err
	}
}
