package server

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tvuorela/pedalhost"
)

// ParseCommand turns one protocol line into a Command. Simple arguments are
// whitespace separated; serialized payloads (a pedal, a pedalboard, a whole
// set) are the untouched JSON remainder of the line, so they may contain
// spaces. Only syntax is checked here and all failures are protocol errors;
// semantic validation (bounds, known kinds) happens at apply time against
// the state current then.
func ParseCommand(line string) (Command, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch verb {
	case "setparameter":
		board, rest, err := intArg(verb, "pedalboard index", rest)
		if err != nil {
			return nil, err
		}
		pedal, rest, err := intArg(verb, "pedal index", rest)
		if err != nil {
			return nil, err
		}
		name, rest, _ := strings.Cut(rest, " ")
		if name == "" {
			return nil, protocolErrorf("%s: missing parameter name", verb)
		}
		value, err2 := strconv.ParseFloat(strings.TrimSpace(rest), 32)
		if err2 != nil {
			return nil, protocolErrorf("%s: bad parameter value: %v", verb, err2)
		}
		return SetParameter{Board: board, Pedal: pedal, Name: name, Value: float32(value)}, nil
	case "movepedalboard":
		src, rest, err := intArg(verb, "source index", rest)
		if err != nil {
			return nil, err
		}
		dst, _, err := intArg(verb, "destination index", rest)
		if err != nil {
			return nil, err
		}
		return MovePedalboard{Src: src, Dst: dst}, nil
	case "addpedalboard":
		var board pedalhost.Pedalboard
		if err := json.Unmarshal([]byte(rest), &board); err != nil {
			return nil, protocolErrorf("%s: bad pedalboard payload: %v", verb, err)
		}
		return AddPedalboard{Board: board}, nil
	case "deletepedalboard":
		index, _, err := intArg(verb, "pedalboard index", rest)
		if err != nil {
			return nil, err
		}
		return DeletePedalboard{Index: index}, nil
	case "addpedal":
		board, rest, err := intArg(verb, "pedalboard index", rest)
		if err != nil {
			return nil, err
		}
		index, rest, err := intArg(verb, "pedal index", rest)
		if err != nil {
			return nil, err
		}
		var pedal pedalhost.Pedal
		if err2 := json.Unmarshal([]byte(rest), &pedal); err2 != nil {
			return nil, protocolErrorf("%s: bad pedal payload: %v", verb, err2)
		}
		return AddPedal{Board: board, Index: index, Pedal: pedal}, nil
	case "deletepedal":
		board, rest, err := intArg(verb, "pedalboard index", rest)
		if err != nil {
			return nil, err
		}
		index, _, err := intArg(verb, "pedal index", rest)
		if err != nil {
			return nil, err
		}
		return DeletePedal{Board: board, Index: index}, nil
	case "movepedal":
		board, rest, err := intArg(verb, "pedalboard index", rest)
		if err != nil {
			return nil, err
		}
		src, rest, err := intArg(verb, "source index", rest)
		if err != nil {
			return nil, err
		}
		dst, _, err := intArg(verb, "destination index", rest)
		if err != nil {
			return nil, err
		}
		return MovePedal{Board: board, Src: src, Dst: dst}, nil
	case "loadset":
		var set pedalhost.Set
		if err := json.Unmarshal([]byte(rest), &set); err != nil {
			return nil, protocolErrorf("%s: bad set payload: %v", verb, err)
		}
		return LoadSet{Set: set}, nil
	case "play":
		index, _, err := intArg(verb, "pedalboard index", rest)
		if err != nil {
			return nil, err
		}
		return Play{Index: index}, nil
	case "master":
		volume, err := strconv.ParseFloat(strings.TrimSpace(rest), 32)
		if err != nil {
			return nil, protocolErrorf("%s: bad volume: %v", verb, err)
		}
		return Master{Volume: float32(volume)}, nil
	case "tuner":
		on, err := onOffArg(verb, rest)
		if err != nil {
			return nil, err
		}
		return Tuner{On: on}, nil
	case "metronome":
		arg := strings.TrimSpace(rest)
		switch arg {
		case "on":
			return Metronome{On: true}, nil
		case "off":
			return Metronome{On: false}, nil
		}
		mode, rest, _ := strings.Cut(arg, " ")
		if mode != "bpm" {
			return nil, protocolErrorf("%s: expected on, off or bpm, got %q", verb, mode)
		}
		bpm, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return nil, protocolErrorf("%s: bad bpm: %v", verb, err)
		}
		return Metronome{On: true, BPM: bpm}, nil
	case "backup":
		action, rest, _ := strings.Cut(strings.TrimSpace(rest), " ")
		switch action {
		case "load":
			path := strings.TrimSpace(rest)
			if path == "" {
				return nil, protocolErrorf("%s load: missing file path", verb)
			}
			return Backup{Action: "load", Path: path}, nil
		case "play", "stop":
			return Backup{Action: action}, nil
		case "seek":
			pos, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
			if err != nil {
				return nil, protocolErrorf("%s seek: bad position: %v", verb, err)
			}
			return Backup{Action: "seek", Pos: pos}, nil
		}
		return nil, protocolErrorf("%s: expected load, play, stop or seek, got %q", verb, action)
	case "kill":
		return Kill{}, nil
	case "":
		return nil, protocolErrorf("empty command")
	}
	return nil, protocolErrorf("unknown command %q", verb)
}

func intArg(verb, what, args string) (value int, rest string, err error) {
	head, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	value, err2 := strconv.Atoi(head)
	if err2 != nil {
		return 0, "", protocolErrorf("%s: bad %s: %v", verb, what, err2)
	}
	return value, rest, nil
}

func onOffArg(verb, args string) (bool, error) {
	switch strings.TrimSpace(args) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, protocolErrorf("%s: expected on or off, got %q", verb, strings.TrimSpace(args))
}
