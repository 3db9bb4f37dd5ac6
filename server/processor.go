package server

import (
	"fmt"
	"log"
	"os"

	"github.com/tvuorela/pedalhost"
	"github.com/tvuorela/pedalhost/engine"
)

// Processor applies parsed commands through the coordinator. Validation runs
// against the state current at apply time, never against what the client saw
// when it sent the command; a set that changed in between simply rejects the
// stale indices. A command either fully applies or leaves state untouched.
type Processor struct {
	coord *engine.Coordinator

	// push delivers an asynchronous server-to-client line, nil to discard.
	// Used for plugin load reports, which never fail the triggering command.
	push func(line string)

	// kill requests server shutdown, nil to ignore the kill command.
	kill func()
}

func NewProcessor(coord *engine.Coordinator, push func(line string), kill func()) *Processor {
	return &Processor{coord: coord, push: push, kill: kill}
}

// Apply executes one command. A nil return means the command took effect.
// Returned errors are *ProtocolError or *ValidationError; nothing else
// escapes to the transport.
func (p *Processor) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case SetParameter:
		return validated(p.coord.SetParameter(c.Board, c.Pedal, c.Name, c.Value))
	case MovePedalboard:
		return validated(p.coord.MovePedalboard(c.Src, c.Dst))
	case AddPedalboard:
		board, err := p.coord.AddPedalboard(c.Board)
		if err != nil {
			return validated(err)
		}
		p.reportFailedUnits(board)
		return nil
	case DeletePedalboard:
		return validated(p.coord.DeletePedalboard(c.Index))
	case AddPedal:
		unit, err := p.coord.InsertPedal(c.Board, c.Index, c.Pedal)
		if err != nil {
			return validated(err)
		}
		p.reportFailedUnit(unit)
		return nil
	case DeletePedal:
		return validated(p.coord.DeletePedal(c.Board, c.Index))
	case MovePedal:
		return validated(p.coord.MovePedal(c.Board, c.Src, c.Dst))
	case LoadSet:
		boards, err := p.coord.LoadSet(c.Set)
		if err != nil {
			return validated(err)
		}
		for _, b := range boards {
			p.reportFailedUnits(b)
		}
		return nil
	case Play:
		return validated(p.coord.Play(c.Index))
	case Master:
		return validated(p.coord.SetMaster(c.Volume))
	case Tuner:
		p.coord.SetTuner(c.On)
		return nil
	case Metronome:
		return validated(p.coord.SetMetronome(c.On, c.BPM))
	case Backup:
		return p.applyBackup(c)
	case Kill:
		if p.kill != nil {
			p.kill()
		}
		return nil
	}
	return protocolErrorf("unhandled command %q", cmd.Verb())
}

func (p *Processor) applyBackup(c Backup) error {
	switch c.Action {
	case "load":
		data, err := os.ReadFile(c.Path)
		if err != nil {
			return &ValidationError{Err: err}
		}
		buffer, _, err := pedalhost.ReadWav(data)
		if err != nil {
			return &ValidationError{Err: fmt.Errorf("decoding %q: %w", c.Path, err)}
		}
		p.coord.SetBackupTrack(buffer)
		return nil
	case "play":
		return validated(p.coord.SetBackupPlaying(true))
	case "stop":
		return validated(p.coord.SetBackupPlaying(false))
	case "seek":
		return validated(p.coord.SeekBackup(c.Pos))
	}
	return protocolErrorf("backup: unknown action %q", c.Action)
}

// reportFailedUnits pushes one pluginerror line per unit whose plugin could
// not be loaded. The triggering command still succeeded; the units process
// as pass-through.
func (p *Processor) reportFailedUnits(b *engine.Board) {
	for _, u := range b.Units {
		p.reportFailedUnit(u)
	}
}

func (p *Processor) reportFailedUnit(u *engine.Unit) {
	if u == nil || !u.Failed() {
		return
	}
	log.Printf("plugin load failed, %s unit is pass-through: %v", u.Kind(), u.LoadError())
	if p.push != nil {
		p.push(fmt.Sprintf("pluginerror %v", u.LoadError()))
	}
}

func validated(err error) error {
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
