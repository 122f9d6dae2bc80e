package tasks

// Category identifies one of the independent kinds of persisted data
// loaded at startup.
type Category int

const (
	CategoryTracks Category = iota
	CategoryPlaylists
	CategoryWaveforms
)

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryTracks:
		return "tracks"
	case CategoryPlaylists:
		return "playlists"
	case CategoryWaveforms:
		return "waveforms"
	default:
		return "unknown"
	}
}

// Status classifies how a load task finished
type Status int

const (
	// StatusSuccess means every entry loaded.
	StatusSuccess Status = iota
	// StatusPartialFailure means the task finished but some entries
	// could not be loaded; ItemErrors carries the details.
	StatusPartialFailure
	// StatusFatalFailure means the category's source was unreadable
	// and nothing (or nothing trustworthy) was loaded; Err carries the
	// cause.
	StatusFatalFailure
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartialFailure:
		return "partial failure"
	case StatusFatalFailure:
		return "fatal failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one load task. Errors never escape a task as
// panics or returned errors; they are captured here.
type Outcome struct {
	Category   Category
	Status     Status
	Loaded     int     // entries loaded into the target
	ItemErrors []error // per-entry failures, set on partial failure
	Err        error   // cause, set on fatal failure
}

// Task is one unit of startup load work. Execute blocks until the
// category is loaded (or has failed) and must not panic; workers still
// guard against it.
type Task interface {
	Category() Category
	Execute() Outcome
}

// ProgressFunc receives fire-and-forget load progress notifications:
// the current step index, the total step count, and a human-readable
// label. Implementations may be called concurrently from multiple
// tasks.
type ProgressFunc func(step, total int, label string)

// notify delivers a progress notification, swallowing panics so a
// misbehaving reporter can never fail a task.
func notify(fn ProgressFunc, step, total int, label string) {
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(step, total, label)
}
