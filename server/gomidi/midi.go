// Package gomidi maps MIDI input to protocol commands: a program change
// activates the pedalboard with that number, a configured controller drives
// the master gain. Useful for foot controllers that cannot speak the text
// protocol.
package gomidi

import (
	"errors"
	"log"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/tvuorela/pedalhost/server"
)

type RTMIDIContext struct {
	driver    *rtmididrv.Driver
	currentIn drivers.In

	processor *server.Processor
	pcOffset  int
	masterCC  uint8
}

// NewContext opens the rtmidi driver. A missing driver is not fatal; the
// context just never delivers events.
func NewContext(processor *server.Processor, settings server.MIDISettings) *RTMIDIContext {
	m := &RTMIDIContext{
		processor: processor,
		pcOffset:  settings.PCOffset,
		masterCC:  settings.MasterCC,
	}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return m
}

// TryToOpenBy opens the first input whose name contains name, or the first
// input of all when name is empty.
func (m *RTMIDIContext) TryToOpenBy(name string) error {
	if m.driver == nil {
		return errors.New("no MIDI driver available")
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return err
	}
	for _, in := range ins {
		if name != "" && !strings.Contains(in.String(), name) {
			continue
		}
		return m.open(in)
	}
	return errors.New("no matching MIDI input found")
}

func (m *RTMIDIContext) open(in drivers.In) error {
	if err := in.Open(); err != nil {
		return err
	}
	if _, err := midi.ListenTo(in, m.handleMessage); err != nil {
		in.Close()
		return err
	}
	m.currentIn = in
	log.Printf("listening for MIDI on %v", in)
	return nil
}

func (m *RTMIDIContext) handleMessage(msg midi.Message, timestampms int32) {
	var channel, program, controller, value uint8
	switch {
	case msg.GetProgramChange(&channel, &program):
		cmd := server.Play{Index: int(program) + m.pcOffset}
		if err := m.processor.Apply(cmd); err != nil {
			log.Printf("MIDI program change %d: %v", program, err)
		}
	case msg.GetControlChange(&channel, &controller, &value):
		if controller != m.masterCC {
			return
		}
		cmd := server.Master{Volume: float32(value) / 127}
		if err := m.processor.Apply(cmd); err != nil {
			log.Printf("MIDI master cc: %v", err)
		}
	}
}

func (m *RTMIDIContext) Close() {
	if m.driver == nil {
		return
	}
	if m.currentIn != nil && m.currentIn.IsOpen() {
		m.currentIn.Close()
	}
	m.driver.Close()
}
