package engine

import (
	"github.com/tvuorela/pedalhost"
)

type (
	// Board is a compiled pedalboard: the runtime units in processing order.
	// The units slice is immutable once the board is published in a snapshot;
	// reordering or insertion always produces a new Board.
	Board struct {
		Name  string
		Units []*Unit
	}

	// Snapshot is one internally consistent view of the whole set plus the
	// global mix state. The coordinator publishes snapshots by swapping a
	// single pointer, so the render engine can never observe the active index
	// and the chain contents out of step. Units are shared between successive
	// snapshots; their parameter cells are atomic, so sharing is safe.
	Snapshot struct {
		Boards []*Board
		Active int // -1 when no board is active
		Mix    pedalhost.Mix
		Backup *BackupTrack // nil when no backup track is loaded
	}

	// Mode is the render engine's operating state, derived from a snapshot.
	Mode int
)

const (
	Idle Mode = iota
	Playing
	Tuning
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Tuning:
		return "tuning"
	}
	return "unknown"
}

// Process runs one block through every unit of the board, in order and in
// place. Real-time safe.
func (b *Board) Process(buffer []float32) {
	for _, u := range b.Units {
		u.Process(buffer)
	}
}

// Model converts the board back into its model form, with current parameter
// values.
func (b *Board) Model() pedalhost.Pedalboard {
	board := pedalhost.Pedalboard{Name: b.Name, Pedals: make([]pedalhost.Pedal, len(b.Units))}
	for i, u := range b.Units {
		board.Pedals[i] = u.Model()
	}
	return board
}

// ActiveBoard returns the currently active board, nil if none.
func (s *Snapshot) ActiveBoard() *Board {
	if s.Active < 0 || s.Active >= len(s.Boards) {
		return nil
	}
	return s.Boards[s.Active]
}

// Mode derives the engine state from the snapshot. Tuning takes precedence
// over playback; without an active board the engine idles.
func (s *Snapshot) Mode() Mode {
	if s.Mix.TunerOn {
		return Tuning
	}
	if s.ActiveBoard() != nil {
		return Playing
	}
	return Idle
}
