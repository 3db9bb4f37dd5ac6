package server_test

import (
	"testing"

	"github.com/tvuorela/pedalhost/server"
)

func TestParseCommands(t *testing.T) {
	tests := []struct {
		line string
		want server.Command
	}{
		{"setparameter 0 2 drive 42.5", server.SetParameter{Board: 0, Pedal: 2, Name: "drive", Value: 42.5}},
		{"movepedalboard 1 0", server.MovePedalboard{Src: 1, Dst: 0}},
		{"deletepedalboard 3", server.DeletePedalboard{Index: 3}},
		{"deletepedal 1 2", server.DeletePedal{Board: 1, Index: 2}},
		{"movepedal 0 1 0", server.MovePedal{Board: 0, Src: 1, Dst: 0}},
		{"play 2", server.Play{Index: 2}},
		{"master 0.5", server.Master{Volume: 0.5}},
		{"tuner on", server.Tuner{On: true}},
		{"tuner off", server.Tuner{On: false}},
		{"metronome on", server.Metronome{On: true}},
		{"metronome bpm 140", server.Metronome{On: true, BPM: 140}},
		{"backup load /tmp/track.wav", server.Backup{Action: "load", Path: "/tmp/track.wav"}},
		{"backup play", server.Backup{Action: "play"}},
		{"backup seek 48000", server.Backup{Action: "seek", Pos: 48000}},
		{"kill", server.Kill{}},
	}
	for _, test := range tests {
		got, err := server.ParseCommand(test.line)
		if err != nil {
			t.Errorf("ParseCommand(%q) failed: %v", test.line, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseCommand(%q) = %#v, want %#v", test.line, got, test.want)
		}
	}
}

func TestParsePayloadCommands(t *testing.T) {
	cmd, err := server.ParseCommand(`addpedal 0 1 {"kind":"gain","parameters":{"volume":2}}`)
	if err != nil {
		t.Fatalf("addpedal parse failed: %v", err)
	}
	ap, ok := cmd.(server.AddPedal)
	if !ok {
		t.Fatalf("addpedal parsed as %#v", cmd)
	}
	if ap.Board != 0 || ap.Index != 1 || ap.Pedal.Kind != "gain" || ap.Pedal.Parameters["volume"] != 2 {
		t.Errorf("addpedal payload wrong: %#v", ap)
	}
	cmd, err = server.ParseCommand(`addpedalboard {"name":"lead","pedals":[{"kind":"fuzz","parameters":{"gain":30,"level":1,"drywet":1}}]}`)
	if err != nil {
		t.Fatalf("addpedalboard parse failed: %v", err)
	}
	apb := cmd.(server.AddPedalboard)
	if apb.Board.Name != "lead" || len(apb.Board.Pedals) != 1 {
		t.Errorf("addpedalboard payload wrong: %#v", apb)
	}
	cmd, err = server.ParseCommand(`loadset {"pedalboards":[{"name":"a"}],"active":0}`)
	if err != nil {
		t.Fatalf("loadset parse failed: %v", err)
	}
	ls := cmd.(server.LoadSet)
	if ls.Set.Active != 0 || len(ls.Set.Pedalboards) != 1 {
		t.Errorf("loadset payload wrong: %#v", ls)
	}
}

func TestParseErrors(t *testing.T) {
	lines := []string{
		"",
		"frobnicate 1",
		"setparameter x 0 drive 1",
		"setparameter 0 0 drive lots",
		"setparameter 0 0",
		"movepedalboard 1",
		"play",
		"master loud",
		"tuner maybe",
		"metronome bpm fast",
		"backup rewind",
		"backup load",
		`addpedal 0 0 {"kind":}`,
		`loadset not-json`,
	}
	for _, line := range lines {
		if _, err := server.ParseCommand(line); err == nil {
			t.Errorf("ParseCommand(%q) should have failed", line)
		}
	}
}
