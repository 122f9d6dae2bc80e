package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"vibrato/internal/tasks"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// startWatcher initializes fsnotify for recursive music folder
// monitoring once the application is ready.
func (a *App) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.watcher = watcher
	a.mu.Unlock()

	go a.watchFiles(watcher)

	if err := a.addDirectoryToWatcher(watcher, a.cfg.Library.MusicFolder); err != nil {
		return err
	}

	a.logger.WithField("music_folder", a.cfg.Library.MusicFolder).Info("Music folder watcher started")
	return nil
}

// addDirectoryToWatcher recursively walks and adds subdirectories.
func (a *App) addDirectoryToWatcher(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// watchFiles selects on watcher channels and dispatches events.
func (a *App) watchFiles(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			a.handleFileEvent(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.WithError(err).Error("Music folder watcher error")
		}
	}
}

// handleFileEvent applies filtering and delegates import/removal.
func (a *App) handleFileEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	isAudioFile := a.cfg.IsFormatSupported(strings.ToLower(filepath.Ext(event.Name)))

	switch {
	case event.Has(fsnotify.Create) && isAudioFile:
		go func(name string) {
			time.Sleep(500 * time.Millisecond) // Ensure file is fully written
			a.importFile(name)
		}(event.Name)

	case event.Has(fsnotify.Remove) && isAudioFile:
		go a.handleRemovedFile(event.Name)

	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			watcher.Add(event.Name)
			a.logger.WithField("directory", event.Name).Info("Watching new directory")
		}
	}
}

// importFile runs a scoped tracks load for one new audio file and
// computes its waveform. Re-importing an already known path reuses the
// existing entry.
func (a *App) importFile(filePath string) {
	id := 0
	if existing, ok := a.lib.Tracks.FindByPath(filePath); ok {
		id = existing.ID
	} else {
		id = a.lib.Tracks.NextID()
	}

	outcome := a.factory.SingleTrack(filePath, id).Execute()
	if outcome.Status != tasks.StatusSuccess {
		a.logger.WithError(outcome.Err).WithField("file_path", filePath).Error("Failed to import new file")
		return
	}

	if wf, err := a.processor.FromFile(filePath, id); err != nil {
		a.logger.WithError(err).WithField("file_path", filePath).Warn("Could not compute waveform for new file")
	} else {
		a.lib.Waveforms.Put(wf)
	}

	a.logger.WithFields(logrus.Fields{
		"file_path": filePath,
		"track_id":  id,
	}).Info("Imported new track")
}

// handleRemovedFile evicts a deleted file's track and waveform.
func (a *App) handleRemovedFile(filePath string) {
	if id, ok := a.lib.Tracks.RemoveByPath(filePath); ok {
		a.lib.Waveforms.Remove(id)
		a.logger.WithFields(logrus.Fields{
			"file_path": filePath,
			"track_id":  id,
		}).Info("Removed deleted track")
	}
}
