package server_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/tvuorela/pedalhost/engine"
	"github.com/tvuorela/pedalhost/server"
)

const (
	sampleRate = 48000
	blockSize  = 512
)

func newTestProcessor(t *testing.T) (*server.Processor, *engine.Coordinator, *[]string) {
	t.Helper()
	coord := engine.NewCoordinator(sampleRate, blockSize)
	var pushes []string
	p := server.NewProcessor(coord, func(line string) { pushes = append(pushes, line) }, nil)
	return p, coord, &pushes
}

func apply(t *testing.T, p *server.Processor, line string) error {
	t.Helper()
	cmd, err := server.ParseCommand(line)
	if err != nil {
		t.Fatalf("ParseCommand(%q) failed: %v", line, err)
	}
	return p.Apply(cmd)
}

func TestPlayOnEmptySetIsValidationError(t *testing.T) {
	p, coord, _ := newTestProcessor(t)
	err := apply(t, p, "play 0")
	var verr *server.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if mode := coord.Snapshot().Mode(); mode != engine.Idle {
		t.Errorf("engine should stay idle, got %v", mode)
	}
}

func TestMasterSequence(t *testing.T) {
	p, coord, _ := newTestProcessor(t)
	if err := apply(t, p, "master 0.5"); err != nil {
		t.Fatalf("master 0.5 failed: %v", err)
	}
	err := apply(t, p, "master 1.5")
	var verr *server.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("master 1.5 should be a validation error, got %v", err)
	}
	if got := coord.Mix().Master; got != 0.5 {
		t.Errorf("master should remain 0.5, got %v", got)
	}
}

func TestAddPlayAndEditPedals(t *testing.T) {
	p, coord, _ := newTestProcessor(t)
	cmds := []string{
		`addpedalboard {"name":"lead","pedals":[{"kind":"gain","parameters":{"volume":1}}]}`,
		`addpedal 0 1 {"kind":"overdrive","parameters":{"drive":20,"level":1,"tone":4000}}`,
		"play 0",
		"setparameter 0 1 drive 42",
		"movepedal 0 0 2",
	}
	for _, line := range cmds {
		if err := apply(t, p, line); err != nil {
			t.Fatalf("%q failed: %v", line, err)
		}
	}
	set := coord.Set()
	board := set.Pedalboards[0]
	if board.Pedals[0].Kind != "overdrive" || board.Pedals[1].Kind != "gain" {
		t.Errorf("unexpected chain order: %v %v", board.Pedals[0].Kind, board.Pedals[1].Kind)
	}
	if board.Pedals[0].Parameters["drive"] != 42 {
		t.Errorf("drive should be 42, got %v", board.Pedals[0].Parameters["drive"])
	}
	if set.Active != 0 {
		t.Errorf("board 0 should be active")
	}
}

func TestUnknownPedalKindIsValidationError(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	if err := apply(t, p, `addpedalboard {"name":"x"}`); err != nil {
		t.Fatalf("addpedalboard failed: %v", err)
	}
	err := apply(t, p, `addpedal 0 0 {"kind":"nosuchpedal","parameters":{}}`)
	var verr *server.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("unknown kind should be a validation error, got %v", err)
	}
}

func TestSetParameterOutOfRangeLeavesValue(t *testing.T) {
	p, coord, _ := newTestProcessor(t)
	if err := apply(t, p, `addpedalboard {"name":"x","pedals":[{"kind":"gain","parameters":{"volume":1}}]}`); err != nil {
		t.Fatalf("addpedalboard failed: %v", err)
	}
	if err := apply(t, p, "setparameter 0 0 volume 99"); err == nil {
		t.Fatalf("out-of-range value should be rejected")
	}
	if got := coord.Set().Pedalboards[0].Pedals[0].Parameters["volume"]; got != 1 {
		t.Errorf("volume should remain 1, got %v", got)
	}
}

func TestFailedPluginLoadStillSucceeds(t *testing.T) {
	p, coord, pushes := newTestProcessor(t)
	if err := apply(t, p, `addpedalboard {"name":"x"}`); err != nil {
		t.Fatalf("addpedalboard failed: %v", err)
	}
	line := `addpedal 0 0 {"kind":"nam","parameters":{"input":1,"output":1},"options":{"path":"/nonexistent/amp.json"}}`
	if err := apply(t, p, line); err != nil {
		t.Fatalf("addpedal with a broken model should still succeed, got %v", err)
	}
	if len(*pushes) != 1 || !strings.HasPrefix((*pushes)[0], "pluginerror ") {
		t.Errorf("expected one pluginerror push, got %v", *pushes)
	}
	// the unit is a pass-through
	snap := coord.Snapshot()
	if !snap.Boards[0].Units[0].Failed() {
		t.Errorf("unit should be flagged failed")
	}
}

func TestDeleteAndStaleIndex(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	if err := apply(t, p, `addpedalboard {"name":"x"}`); err != nil {
		t.Fatalf("addpedalboard failed: %v", err)
	}
	if err := apply(t, p, "deletepedalboard 0"); err != nil {
		t.Fatalf("deletepedalboard failed: %v", err)
	}
	err := apply(t, p, "deletepedalboard 0")
	var verr *server.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("stale index should be a validation error, got %v", err)
	}
}

func TestLoadSetWithBadActiveIndex(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	err := apply(t, p, `loadset {"pedalboards":[],"active":2}`)
	var verr *server.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("bad active index should be a validation error, got %v", err)
	}
}

func TestBackupCommands(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	var verr *server.ValidationError
	if err := apply(t, p, "backup load /nonexistent/track.wav"); !errors.As(err, &verr) {
		t.Errorf("missing file should be a validation error, got %v", err)
	}
	if err := apply(t, p, "backup play"); !errors.As(err, &verr) {
		t.Errorf("play without a track should be a validation error, got %v", err)
	}
}
