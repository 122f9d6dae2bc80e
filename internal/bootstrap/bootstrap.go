package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"vibrato/internal/autosave"
	"vibrato/internal/config"
	"vibrato/internal/library"
	"vibrato/internal/tasks"
	"vibrato/internal/waveform"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// State tracks the bootstrap sequence. No state is re-entrant; the
// whole sequence runs exactly once per process lifetime.
type State int

const (
	StateUninitialized State = iota
	StateDetectingFirstRun
	StateLoading
	StateReady
	StateShuttingDown
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDetectingFirstRun:
		return "detecting first run"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

// ErrBadState is returned when a bootstrap phase is invoked out of
// order or a second time.
var ErrBadState = errors.New("bootstrap phase called in wrong state")

// Events receives one-shot lifecycle notifications for the
// presentation layer. Implementations must not block.
type Events interface {
	// FirstUse fires when the user folder does not exist yet. It is
	// informational; loading proceeds regardless.
	FirstUse()
	// Ready fires once, after which the presentation layer may render
	// and accept input.
	Ready()
}

// ErrorReporter receives the aggregate load outcome when at least one
// task did not fully succeed. It owns user-visible display; the core
// does not retry on its behalf.
type ErrorReporter interface {
	Report(tasks.AggregateOutcome)
}

// App orchestrates startup in two phases: DetectFirstRun checks and
// constructs the user folder, then Load runs the three category loads
// under a closed autosave gate before signalling readiness. The split
// exists because the library store lives inside the user folder and
// can only be opened once the folder is known to exist. All
// collaborators are passed in explicitly.
type App struct {
	cfg    *config.Config
	gate   *autosave.Gate
	events Events
	errors ErrorReporter
	logger *logrus.Logger

	// Set by Load
	lib       *library.Library
	factory   *tasks.Factory
	demon     *autosave.Demon
	processor *waveform.Processor

	mu      sync.Mutex
	state   State
	watcher *fsnotify.Watcher
}

// New creates the bootstrap orchestrator
func New(cfg *config.Config, gate *autosave.Gate, events Events,
	errReporter ErrorReporter, logger *logrus.Logger) *App {
	if logger == nil {
		logger = logrus.New()
	}
	return &App{
		cfg:    cfg,
		gate:   gate,
		events: events,
		errors: errReporter,
		logger: logger,
	}
}

// State returns the current bootstrap state
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) setState(state State) {
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
	a.logger.WithField("state", state.String()).Debug("Bootstrap state changed")
}

// transition moves from exactly one expected state to the next,
// failing if the sequence is invoked out of order.
func (a *App) transition(from, to State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != from {
		return fmt.Errorf("%w: in %q, expected %q", ErrBadState, a.state, from)
	}
	a.state = to
	return nil
}

// DetectFirstRun emits the single first-use notification when the user
// folder is absent, then makes sure the folder structure exists so the
// store and load tasks can run against it.
func (a *App) DetectFirstRun() error {
	if err := a.transition(StateUninitialized, StateDetectingFirstRun); err != nil {
		return err
	}

	userFolder := a.cfg.Library.UserFolder
	if _, err := os.Stat(userFolder); os.IsNotExist(err) {
		a.logger.WithField("user_folder", userFolder).Info("First use detected")
		if a.events != nil {
			a.events.FirstUse()
		}
		// A fresh install gets the waveforms folder too, so the first
		// load does not fail on it.
		if err := os.MkdirAll(a.cfg.WaveformsPath(), 0755); err != nil {
			return fmt.Errorf("failed to create user folder: %w", err)
		}
		return nil
	}
	return os.MkdirAll(userFolder, 0755)
}

// Load runs the three category loads and blocks until all finish. It
// returns the aggregate load outcome; the error return is reserved for
// environment-level failures (wrong phase, pool gone). Task failures
// end up in the aggregate and the error reporter, never here — the
// application still becomes ready with whatever data loaded.
func (a *App) Load(lib *library.Library, factory *tasks.Factory,
	demon *autosave.Demon, processor *waveform.Processor) (tasks.AggregateOutcome, error) {
	if err := a.transition(StateDetectingFirstRun, StateLoading); err != nil {
		return tasks.AggregateOutcome{}, err
	}
	a.lib = lib
	a.factory = factory
	a.demon = demon
	a.processor = processor

	agg, err := a.loadPersistedData()
	if err != nil {
		return agg, err
	}

	a.setState(StateReady)
	if !agg.Success() && a.errors != nil {
		a.errors.Report(agg)
	}
	if a.events != nil {
		a.events.Ready()
	}

	a.demon.Start()
	if a.cfg.Library.WatchForChanges {
		if err := a.startWatcher(); err != nil {
			a.logger.WithError(err).Warn("Music folder watcher not started")
		}
	}

	return agg, nil
}

// loadPersistedData runs the three fixed tasks under a closed autosave
// gate. The gate reopens whether the run returns normally or panics,
// and exactly once.
func (a *App) loadPersistedData() (tasks.AggregateOutcome, error) {
	a.gate.Close()
	defer a.gate.Open()

	coordinator := tasks.NewCoordinator(a.cfg.Load.Workers, a.logger)
	return coordinator.RunAll([]tasks.Task{
		a.factory.Waveforms(),
		a.factory.Playlists(),
		a.factory.Tracks(),
	})
}

// Shutdown stops the background task machinery in order: watcher,
// autosave demon, then a final flush of the library.
func (a *App) Shutdown() {
	a.setState(StateShuttingDown)

	a.mu.Lock()
	watcher := a.watcher
	a.watcher = nil
	a.mu.Unlock()
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close music folder watcher")
		}
	}

	if a.demon != nil {
		a.demon.Stop()
		if err := a.demon.ForceSave(); err != nil {
			a.logger.WithError(err).Error("Final library save failed")
		}
	}

	a.logger.Info("Bootstrap machinery shut down")
}
