package autosave

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestDemonSavesWhileGateOpen(t *testing.T) {
	gate := NewGate()
	var saves atomic.Int64
	demon := NewDemon(gate, 10*time.Millisecond, func() error {
		saves.Add(1)
		return nil
	}, quietLogger())

	demon.Start()
	defer demon.Stop()

	deadline := time.After(time.Second)
	for saves.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("Demon never ran a save cycle with the gate open")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDemonSkipsCyclesWhileGateClosed(t *testing.T) {
	gate := NewGate()
	gate.Close()

	var saves atomic.Int64
	demon := NewDemon(gate, 5*time.Millisecond, func() error {
		saves.Add(1)
		return nil
	}, quietLogger())

	demon.Start()
	time.Sleep(60 * time.Millisecond)
	if saves.Load() != 0 {
		t.Errorf("Demon ran %d save cycles behind a closed gate", saves.Load())
	}

	// Reopening resumes cycles without restarting the demon
	gate.Open()
	deadline := time.After(time.Second)
	for saves.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("Demon did not resume after the gate reopened")
		case <-time.After(5 * time.Millisecond):
		}
	}
	demon.Stop()
}

func TestDemonStopIsSafe(t *testing.T) {
	gate := NewGate()
	demon := NewDemon(gate, time.Hour, func() error { return nil }, quietLogger())

	// Stop before Start must not block or panic
	demon.Stop()

	demon.Start()
	demon.Start() // double start is a no-op
	demon.Stop()
	demon.Stop() // double stop is a no-op
}

func TestForceSave(t *testing.T) {
	gate := NewGate()
	wantErr := errors.New("disk full")
	demon := NewDemon(gate, time.Hour, func() error { return wantErr }, quietLogger())

	if err := demon.ForceSave(); !errors.Is(err, wantErr) {
		t.Errorf("ForceSave() = %v, want %v", err, wantErr)
	}
}
