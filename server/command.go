// Package server implements the control side of pedalhost: the line oriented
// command protocol, the TCP transport and the settings file. Everything here
// runs in the control domain; commands reach the audio side only through
// coordinator mutations.
package server

import (
	"fmt"

	"github.com/tvuorela/pedalhost"
)

type (
	// Command is the closed set of protocol operations. Each verb parses
	// into its own struct so the apply site never re-inspects strings.
	Command interface {
		Verb() string
	}

	SetParameter struct {
		Board, Pedal int
		Name         string
		Value        float32
	}

	MovePedalboard struct{ Src, Dst int }

	AddPedalboard struct{ Board pedalhost.Pedalboard }

	DeletePedalboard struct{ Index int }

	AddPedal struct {
		Board, Index int
		Pedal        pedalhost.Pedal
	}

	DeletePedal struct{ Board, Index int }

	MovePedal struct{ Board, Src, Dst int }

	LoadSet struct{ Set pedalhost.Set }

	Play struct{ Index int }

	Master struct{ Volume float32 }

	Tuner struct{ On bool }

	Metronome struct {
		On  bool
		BPM int // 0 keeps the current tempo
	}

	// Backup controls backup track playback: load a file, start, stop or
	// move the playhead.
	Backup struct {
		Action string // "load", "play", "stop", "seek"
		Path   string // for "load"
		Pos    int64  // sample position for "seek"
	}

	Kill struct{}
)

func (SetParameter) Verb() string     { return "setparameter" }
func (MovePedalboard) Verb() string   { return "movepedalboard" }
func (AddPedalboard) Verb() string    { return "addpedalboard" }
func (DeletePedalboard) Verb() string { return "deletepedalboard" }
func (AddPedal) Verb() string         { return "addpedal" }
func (DeletePedal) Verb() string      { return "deletepedal" }
func (MovePedal) Verb() string        { return "movepedal" }
func (LoadSet) Verb() string          { return "loadset" }
func (Play) Verb() string             { return "play" }
func (Master) Verb() string           { return "master" }
func (Tuner) Verb() string            { return "tuner" }
func (Metronome) Verb() string        { return "metronome" }
func (Backup) Verb() string           { return "backup" }
func (Kill) Verb() string             { return "kill" }

type (
	// ProtocolError is a malformed command line. The connection stays open;
	// only the offending command is rejected.
	ProtocolError struct{ Detail string }

	// ValidationError is a well-formed command that does not apply to the
	// current state: index out of range, value out of bounds, unknown pedal
	// kind. State is unchanged.
	ValidationError struct{ Err error }
)

func (e *ProtocolError) Error() string { return e.Detail }

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func protocolErrorf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Detail: fmt.Sprintf(format, args...)}
}
