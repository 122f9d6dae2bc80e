package autosave

import "sync/atomic"

// Gate controls whether the periodic persistence demon may run a write
// cycle. The bootstrap sequence holds it closed for the whole load
// phase so a save can never race against partially populated in-memory
// collections. Reads and writes are atomic; there is one writer (the
// bootstrap sequence) and one reader (the demon).
type Gate struct {
	open atomic.Bool
}

// NewGate returns an open gate
func NewGate() *Gate {
	g := &Gate{}
	g.open.Store(true)
	return g
}

// Close suspends autosaving
func (g *Gate) Close() {
	g.open.Store(false)
}

// Open resumes autosaving
func (g *Gate) Open() {
	g.open.Store(true)
}

// IsOpen reports whether a write cycle may run
func (g *Gate) IsOpen() bool {
	return g.open.Load()
}
