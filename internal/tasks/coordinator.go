package tasks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// DefaultWorkers bounds load parallelism on machines with many cores
// while still running the fixed category loads in parallel.
const DefaultWorkers = 4

// ErrCoordinatorClosed is returned when RunAll is called after the
// coordinator's pool has been torn down.
var ErrCoordinatorClosed = errors.New("load coordinator already shut down")

// AggregateOutcome combines the results of every task in one run.
type AggregateOutcome struct {
	RunID    string
	Outcomes []Outcome
}

// Success reports whether every task finished with StatusSuccess.
func (a AggregateOutcome) Success() bool {
	for _, o := range a.Outcomes {
		if o.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// Err returns every failure detail joined into one error, or nil on
// full success.
func (a AggregateOutcome) Err() error {
	var err error
	for _, o := range a.Outcomes {
		switch o.Status {
		case StatusFatalFailure:
			err = multierr.Append(err, fmt.Errorf("%s: %w", o.Category, o.Err))
		case StatusPartialFailure:
			for _, itemErr := range o.ItemErrors {
				err = multierr.Append(err, fmt.Errorf("%s: %w", o.Category, itemErr))
			}
		}
	}
	return err
}

// Coordinator fans load tasks out over a fixed-size worker pool and
// joins on all of them. The pool exists only for the duration of one
// RunAll call and is torn down deterministically afterwards; the
// coordinator cannot be reused.
type Coordinator struct {
	workers int
	logger  *logrus.Logger

	mu     sync.Mutex
	closed bool
}

// NewCoordinator creates a coordinator with the given pool size.
// Non-positive sizes fall back to DefaultWorkers.
func NewCoordinator(workers int, logger *logrus.Logger) *Coordinator {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{workers: workers, logger: logger}
}

// RunAll submits every task to the pool before waiting on any, then
// blocks until all of them have finished regardless of individual
// outcomes. A failing task never cancels its siblings; whatever the
// other categories loaded stays loaded. The error return is reserved
// for environment-level problems (the pool no longer exists); task
// failures are reported through the aggregate instead.
func (c *Coordinator) RunAll(tasks []Task) (AggregateOutcome, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return AggregateOutcome{}, ErrCoordinatorClosed
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	}()

	agg := AggregateOutcome{RunID: uuid.NewString()}
	if len(tasks) == 0 {
		return agg, nil
	}

	c.logger.WithFields(logrus.Fields{
		"run_id":  agg.RunID,
		"tasks":   len(tasks),
		"workers": c.workers,
	}).Info("Starting load run")

	jobs := make(chan Task, len(tasks))
	results := make(chan Outcome, len(tasks))
	var wg sync.WaitGroup

	for i := 0; i < c.workers; i++ {
		go func() {
			for task := range jobs {
				results <- c.execute(agg.RunID, task)
				wg.Done()
			}
		}()
	}

	// Submit everything before waiting so the categories actually
	// load in parallel.
	for _, task := range tasks {
		wg.Add(1)
		jobs <- task
	}
	close(jobs)
	wg.Wait()
	close(results)

	for outcome := range results {
		agg.Outcomes = append(agg.Outcomes, outcome)
	}

	c.logger.WithFields(logrus.Fields{
		"run_id":  agg.RunID,
		"success": agg.Success(),
	}).Info("Load run finished")

	return agg, nil
}

// execute runs one task, mapping a panic to a fatal outcome so a
// broken task cannot take the whole run down.
func (c *Coordinator) execute(runID string, task Task) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Category: task.Category(),
				Status:   StatusFatalFailure,
				Err:      fmt.Errorf("load task panicked: %v", r),
			}
		}
	}()

	log := c.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"category": task.Category().String(),
	})
	log.Debug("Load task started")

	out = task.Execute()

	log.WithFields(logrus.Fields{
		"status": out.Status.String(),
		"loaded": out.Loaded,
		"errors": len(out.ItemErrors),
	}).Info("Load task finished")
	return out
}
