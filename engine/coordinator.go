package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tvuorela/pedalhost"
)

// Coordinator owns the authoritative pedalboard set and publishes it to the
// render engine as immutable snapshots. All mutations run under a single
// writer lock in the control domain; the audio side only ever loads the
// snapshot pointer, so a mutation can never block a callback and a callback
// can never block a mutation.
//
// Every index a mutation references is validated against the state current at
// apply time, not at command receipt. A mutation either fully applies and
// publishes one new snapshot, or leaves everything untouched.
type Coordinator struct {
	mu      sync.Mutex
	set     pedalhost.Set // index bookkeeping; live parameter values are in the units
	boards  []*Board
	mix     pedalhost.Mix
	backup  *BackupTrack
	current atomic.Pointer[Snapshot]

	sampleRate int
	blockSize  int
}

func NewCoordinator(sampleRate, blockSize int) *Coordinator {
	c := &Coordinator{
		set:        pedalhost.NewSet(),
		mix:        pedalhost.DefaultMix(),
		sampleRate: sampleRate,
		blockSize:  blockSize,
	}
	c.publish()
	return c
}

// Snapshot returns the currently published snapshot. Wait free; safe to call
// from the audio callback.
func (c *Coordinator) Snapshot() *Snapshot {
	return c.current.Load()
}

// publish builds a fresh snapshot from the current state and swaps it in.
// Callers must hold mu. The boards slice is copied so later mutations cannot
// reach into a snapshot the engine may still be reading.
func (c *Coordinator) publish() {
	boards := make([]*Board, len(c.boards))
	copy(boards, c.boards)
	c.current.Store(&Snapshot{
		Boards: boards,
		Active: c.set.Active,
		Mix:    c.mix,
		Backup: c.backup,
	})
}

func (c *Coordinator) compileBoard(b pedalhost.Pedalboard) (*Board, error) {
	board := &Board{Name: b.Name, Units: make([]*Unit, len(b.Pedals))}
	for i, p := range b.Pedals {
		u, err := NewUnit(p, c.sampleRate, c.blockSize)
		if err != nil {
			return nil, err
		}
		board.Units[i] = u
	}
	return board, nil
}

// Set returns a copy of the whole set with live parameter values, suitable
// for serialization.
func (c *Coordinator) Set() pedalhost.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := pedalhost.Set{Pedalboards: make([]pedalhost.Pedalboard, len(c.boards)), Active: c.set.Active}
	for i, b := range c.boards {
		s.Pedalboards[i] = b.Model()
	}
	return s
}

// Mix returns the current global mix state.
func (c *Coordinator) Mix() pedalhost.Mix {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mix
}

// SetParameter writes one parameter of one pedal. The write itself is a
// single atomic store into the unit, so no snapshot swap is needed; the next
// callback picks the value up.
func (c *Coordinator) SetParameter(board, pedal int, name string, value float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if board < 0 || board >= len(c.boards) {
		return fmt.Errorf("no pedalboard at index %d", board)
	}
	b := c.boards[board]
	if pedal < 0 || pedal >= len(b.Units) {
		return fmt.Errorf("no pedal at index %d on pedalboard %d", pedal, board)
	}
	if err := b.Units[pedal].SetParameter(name, value); err != nil {
		return err
	}
	c.set.Pedalboards[board].Pedals[pedal].Parameters[name] = value
	return nil
}

// AddPedalboard compiles and appends a pedalboard. A pedal whose plugin
// fails to load still yields a pass-through unit; the returned board lets
// the caller inspect and report such units.
func (c *Coordinator) AddPedalboard(b pedalhost.Pedalboard) (*Board, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	board, err := c.compileBoard(b)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set.AddPedalboard(b.Copy())
	c.boards = append(c.boards, board)
	c.publish()
	return board, nil
}

// DeletePedalboard removes the pedalboard at index. The active index keeps
// following the same logical board. Native handle teardown of the removed
// units stays in this (control) domain.
func (c *Coordinator) DeletePedalboard(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.set.DeletePedalboard(index); err != nil {
		return err
	}
	c.boards = append(c.boards[:index:index], c.boards[index+1:]...)
	c.publish()
	return nil
}

// MovePedalboard reorders the set; the active index follows the move.
func (c *Coordinator) MovePedalboard(src, dst int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.set.MovePedalboard(src, dst); err != nil {
		return err
	}
	if dst > src {
		dst-- // insertion gap, counted before the move
	}
	boards := make([]*Board, 0, len(c.boards))
	moved := c.boards[src]
	boards = append(boards, c.boards[:src]...)
	boards = append(boards, c.boards[src+1:]...)
	boards = append(boards[:dst], append([]*Board{moved}, boards[dst:]...)...)
	c.boards = boards
	c.publish()
	return nil
}

// InsertPedal compiles a pedal and inserts it at index on the given board.
// Index may equal the chain length to append.
func (c *Coordinator) InsertPedal(board, index int, p pedalhost.Pedal) (*Unit, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if board < 0 || board >= len(c.boards) {
		return nil, fmt.Errorf("no pedalboard at index %d", board)
	}
	if index < 0 || index > len(c.boards[board].Units) {
		return nil, fmt.Errorf("no pedal slot at index %d on pedalboard %d", index, board)
	}
	u, err := NewUnit(p, c.sampleRate, c.blockSize)
	if err != nil {
		return nil, err
	}
	if err := c.set.Pedalboards[board].InsertPedal(index, p.Copy()); err != nil {
		return nil, err
	}
	old := c.boards[board]
	units := make([]*Unit, 0, len(old.Units)+1)
	units = append(units, old.Units[:index]...)
	units = append(units, u)
	units = append(units, old.Units[index:]...)
	c.boards[board] = &Board{Name: old.Name, Units: units}
	c.publish()
	return u, nil
}

// DeletePedal removes the pedal at index from the given board.
func (c *Coordinator) DeletePedal(board, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if board < 0 || board >= len(c.boards) {
		return fmt.Errorf("no pedalboard at index %d", board)
	}
	if err := c.set.Pedalboards[board].DeletePedal(index); err != nil {
		return err
	}
	old := c.boards[board]
	units := make([]*Unit, 0, len(old.Units)-1)
	units = append(units, old.Units[:index]...)
	units = append(units, old.Units[index+1:]...)
	c.boards[board] = &Board{Name: old.Name, Units: units}
	c.publish()
	return nil
}

// MovePedal reorders the chain of one board. src must address an existing
// pedal; dst is an insertion gap counted before the move, up to and including
// the chain length.
func (c *Coordinator) MovePedal(board, src, dst int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if board < 0 || board >= len(c.boards) {
		return fmt.Errorf("no pedalboard at index %d", board)
	}
	if err := c.set.Pedalboards[board].MovePedal(src, dst); err != nil {
		return err
	}
	if dst > src {
		dst-- // insertion gap, counted before the move
	}
	old := c.boards[board]
	units := make([]*Unit, 0, len(old.Units))
	moved := old.Units[src]
	units = append(units, old.Units[:src]...)
	units = append(units, old.Units[src+1:]...)
	units = append(units[:dst], append([]*Unit{moved}, units[dst:]...)...)
	c.boards[board] = &Board{Name: old.Name, Units: units}
	c.publish()
	return nil
}

// LoadSet replaces the whole set. All boards are compiled before anything is
// swapped, so a validation failure leaves the old set running. Returns the
// compiled boards so the caller can report units whose plugins failed to
// load.
func (c *Coordinator) LoadSet(s pedalhost.Set) ([]*Board, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	boards := make([]*Board, len(s.Pedalboards))
	for i, b := range s.Pedalboards {
		board, err := c.compileBoard(b)
		if err != nil {
			return nil, err
		}
		boards[i] = board
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = s.Copy()
	c.boards = boards
	c.publish()
	return boards, nil
}

// Play activates the pedalboard at index. The next callback renders through
// its chain.
func (c *Coordinator) Play(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.set.SetActive(index); err != nil {
		return err
	}
	c.publish()
	return nil
}

// SetMaster sets the master gain. Out-of-range values are rejected, never
// clamped.
func (c *Coordinator) SetMaster(volume float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mix.SetMaster(volume); err != nil {
		return err
	}
	c.publish()
	return nil
}

// SetMetronome switches the metronome and, when bpm is positive, retunes it.
func (c *Coordinator) SetMetronome(on bool, bpm int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bpm > 0 {
		if err := c.mix.SetMetronomeBPM(bpm); err != nil {
			return err
		}
	}
	c.mix.MetronomeOn = on
	c.publish()
	return nil
}

// SetTuner routes input to the pitch detection sidechain instead of the
// pedal chain.
func (c *Coordinator) SetTuner(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mix.TunerOn = on
	c.publish()
}

// SetBackupTrack installs a pre-decoded backup track, replacing any previous
// one. Playback restarts from the beginning.
func (c *Coordinator) SetBackupTrack(buffer pedalhost.AudioBuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backup = NewBackupTrack(buffer)
	c.mix.BackupPlaying = false
	c.publish()
}

// SeekBackup moves the backup track playhead. pos is clamped to the track.
func (c *Coordinator) SeekBackup(pos int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backup == nil {
		return fmt.Errorf("no backup track loaded")
	}
	c.backup.Seek(pos)
	return nil
}

// SetBackupPlaying starts or stops backup track playback.
func (c *Coordinator) SetBackupPlaying(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on && c.backup == nil {
		return fmt.Errorf("no backup track loaded")
	}
	if on && c.backup.Position() >= c.backup.Length() {
		c.backup.Rewind()
	}
	c.mix.BackupPlaying = on
	c.publish()
	return nil
}
