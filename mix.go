package pedalhost

import "fmt"

// Mix is the global mix state read by the render engine on every callback:
// master gain, metronome, tuner and backup track switches. It is owned by the
// coordinator and written only through commands; the render engine never
// mutates it (the backup track playhead lives on the engine side).
type Mix struct {
	Master        float32 `yaml:"master" json:"master"` // 0..1
	MetronomeOn   bool    `yaml:"metronomeOn,omitempty" json:"metronomeOn,omitempty"`
	MetronomeBPM  int     `yaml:"metronomeBpm,omitempty" json:"metronomeBpm,omitempty"`
	TunerOn       bool    `yaml:"tunerOn,omitempty" json:"tunerOn,omitempty"`
	BackupPlaying bool    `yaml:"backupPlaying,omitempty" json:"backupPlaying,omitempty"`
}

// DefaultMix returns the mix state the server starts with.
func DefaultMix() Mix {
	return Mix{Master: 1, MetronomeBPM: 120}
}

// SetMaster validates and sets the master gain. Values outside 0..1 are
// rejected, never clamped.
func (m *Mix) SetMaster(volume float32) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("master volume %v outside range 0..1", volume)
	}
	m.Master = volume
	return nil
}

// SetMetronomeBPM validates and sets the metronome tempo.
func (m *Mix) SetMetronomeBPM(bpm int) error {
	if bpm < 20 || bpm > 400 {
		return fmt.Errorf("metronome bpm %d outside range 20..400", bpm)
	}
	m.MetronomeBPM = bpm
	return nil
}
