package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibrato/internal/autosave"
	"vibrato/internal/bootstrap"
	"vibrato/internal/config"
	"vibrato/internal/library"
	"vibrato/internal/metadata"
	"vibrato/internal/store"
	"vibrato/internal/tasks"
	"vibrato/internal/waveform"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"

	// Optional .env carrying scrobbling credentials and overrides
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}
	configureLogger(logger, cfg)

	if key := os.Getenv("LASTFM_API_KEY"); key != "" {
		cfg.LastFm.APIKey = key
	}
	if secret := os.Getenv("LASTFM_API_SECRET"); secret != "" {
		cfg.LastFm.APISecret = secret
	}

	notifyProgress := func(step, total int, label string) {
		logger.WithFields(logrus.Fields{
			"step":  step,
			"total": total,
		}).Info(label)
	}
	notifyProgress(tasks.StepConfiguration, tasks.TotalSteps, "Loading configuration...")

	gate := autosave.NewGate()
	app := bootstrap.New(cfg, gate, &logEvents{logger: logger}, &logErrorReporter{logger: logger}, logger)

	// The user folder must exist before the store inside it can open
	if err := app.DetectFirstRun(); err != nil {
		logger.WithError(err).Fatal("Error preparing user folder")
	}

	st, err := store.NewStore(cfg.DatabasePath(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing library store")
	}
	defer st.Close()

	lib := library.New()
	extractor := metadata.NewExtractor(cfg.Library.SupportedFormats, logger)
	processor := waveform.NewProcessor(cfg.Load.WaveformPeaks, logger)
	factory := tasks.NewFactory(st, extractor, lib, cfg.WaveformsPath(), notifyProgress)

	saver := autosave.LibrarySaver(lib, st, cfg.WaveformsPath())
	demon := autosave.NewDemon(gate, time.Duration(cfg.Autosave.IntervalSeconds)*time.Second, saver, logger)

	agg, err := app.Load(lib, factory, demon, processor)
	if err != nil {
		logger.WithError(err).Fatal("Error during startup load")
	}
	logger.WithFields(logrus.Fields{
		"tracks":    lib.Tracks.Len(),
		"playlists": lib.Playlists.Len(),
		"waveforms": lib.Waveforms.Len(),
		"success":   agg.Success(),
	}).Info("Library loaded")

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Received shutdown signal")
	app.Shutdown()
}

// configureLogger applies the configured level and format
func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// logEvents logs lifecycle notifications; a graphical frontend would
// drive its preloader from these instead.
type logEvents struct {
	logger *logrus.Logger
}

func (e *logEvents) FirstUse() {
	e.logger.Info("Welcome! Setting up your library folder for first use")
}

func (e *logEvents) Ready() {
	e.logger.Info("Library ready")
}

// logErrorReporter surfaces load failures to the user; here that means
// the log, a frontend would show a dialog.
type logErrorReporter struct {
	logger *logrus.Logger
}

func (r *logErrorReporter) Report(agg tasks.AggregateOutcome) {
	for _, outcome := range agg.Outcomes {
		if outcome.Status == tasks.StatusSuccess {
			continue
		}
		entry := r.logger.WithFields(logrus.Fields{
			"run_id":   agg.RunID,
			"category": outcome.Category.String(),
			"status":   outcome.Status.String(),
		})
		if outcome.Err != nil {
			entry = entry.WithError(outcome.Err)
		}
		entry.Error("Some library data could not be loaded")
		for _, itemErr := range outcome.ItemErrors {
			r.logger.WithError(itemErr).WithField("category", outcome.Category.String()).Warn("Skipped entry")
		}
	}
}
