package pedalhost

import (
	"fmt"
)

type (
	// Pedal is one stage in a signal chain: a built-in DSP effect, a hosted
	// VST2 plugin or a neural amp model. The Kind is always lowercase and must
	// be one of the keys of PedalTypes; no other kinds should be used.
	Pedal struct {
		Kind string `yaml:"kind" json:"kind"`

		// Parameters maps a parameter name to its current value. Every key
		// must appear in the PedalTypes table for this Kind, and every value
		// must lie within the declared range. For the "vst2" kind the
		// parameter names come from the plugin itself and the values are
		// normalized to 0..1.
		Parameters map[string]float32 `yaml:",flow" json:"parameters"`

		// Options holds the non-numeric configuration of a pedal, most
		// notably the "path" of a vst2 plugin binary or a nam model file.
		Options map[string]string `yaml:",flow,omitempty" json:"options,omitempty"`
	}

	// PedalParameter documents one parameter a pedal kind takes.
	PedalParameter struct {
		Name    string  // key in Pedal.Parameters
		Min     float32 // minimum value, inclusive
		Max     float32 // maximum value, inclusive
		Default float32 // value a freshly created pedal starts with
		Step    float32 // quantization hint for GUIs; 0 = continuous
	}
)

// PedalTypes documents all the available pedal kinds and the parameters they
// take. The "vst2" kind accepts arbitrary parameter names (they are defined by
// the loaded plugin), always ranged 0..1; its entry here only lists the
// host-side ones.
var PedalTypes = map[string]([]PedalParameter){
	"gain": {
		{Name: "volume", Min: 0, Max: 3, Default: 1}},
	"overdrive": {
		{Name: "drive", Min: 1, Max: 100, Default: 20},
		{Name: "level", Min: 0, Max: 2, Default: 1},
		{Name: "tone", Min: 200, Max: 8000, Default: 4000}},
	"fuzz": {
		{Name: "gain", Min: 0, Max: 100, Default: 20},
		{Name: "level", Min: 0, Max: 2, Default: 1},
		{Name: "drywet", Min: 0, Max: 1, Default: 1}},
	"distortion": {
		{Name: "drive", Min: 1, Max: 200, Default: 50},
		{Name: "level", Min: 0, Max: 2, Default: 1}},
	"delay": {
		{Name: "time", Min: 10, Max: 2000, Default: 300, Step: 1}, // milliseconds
		{Name: "feedback", Min: 0, Max: 0.95, Default: 0.4},
		{Name: "mix", Min: 0, Max: 1, Default: 0.5}},
	"chorus": {
		{Name: "rate", Min: 0.1, Max: 5, Default: 0.8}, // Hz
		{Name: "depth", Min: 0, Max: 1, Default: 0.25},
		{Name: "mix", Min: 0, Max: 1, Default: 0.5}},
	"tremolo": {
		{Name: "rate", Min: 0.1, Max: 20, Default: 5}, // Hz
		{Name: "depth", Min: 0, Max: 1, Default: 0.8}},
	"vibrato": {
		{Name: "rate", Min: 0.1, Max: 10, Default: 5}, // Hz
		{Name: "depth", Min: 0.1, Max: 15, Default: 5}}, // milliseconds of delay sweep
	"compressor": {
		{Name: "threshold", Min: -30, Max: 0, Default: -6}, // dBFS
		{Name: "ratio", Min: 1, Max: 20, Default: 5},
		{Name: "attack", Min: 1, Max: 50, Default: 10}, // milliseconds
		{Name: "release", Min: 5, Max: 300, Default: 100}, // milliseconds
		{Name: "level", Min: 0, Max: 5, Default: 1}},
	"reverb": {
		{Name: "roomsize", Min: 0, Max: 1, Default: 0.5},
		{Name: "damping", Min: 0, Max: 1, Default: 0.5},
		{Name: "mix", Min: 0, Max: 1, Default: 0.5}},
	"noisegate": {
		{Name: "threshold", Min: 0, Max: 1, Default: 0.05},
		{Name: "release", Min: 1, Max: 1000, Default: 100}}, // milliseconds
	"eq7": {
		{Name: "100", Min: -12, Max: 12, Default: 0}, // dB per band
		{Name: "200", Min: -12, Max: 12, Default: 0},
		{Name: "400", Min: -12, Max: 12, Default: 0},
		{Name: "800", Min: -12, Max: 12, Default: 0},
		{Name: "1600", Min: -12, Max: 12, Default: 0},
		{Name: "3200", Min: -12, Max: 12, Default: 0},
		{Name: "6400", Min: -12, Max: 12, Default: 0}},
	"nam": {
		{Name: "input", Min: 0, Max: 2, Default: 1},
		{Name: "output", Min: 0, Max: 2, Default: 1}},
	"vst2": {},
}

// NewPedal creates a pedal of the given kind with all parameters at their
// defaults. Unknown kinds are an error.
func NewPedal(kind string) (Pedal, error) {
	params, ok := PedalTypes[kind]
	if !ok {
		return Pedal{}, fmt.Errorf("unknown pedal kind %q", kind)
	}
	p := Pedal{Kind: kind, Parameters: make(map[string]float32, len(params))}
	for _, param := range params {
		p.Parameters[param.Name] = param.Default
	}
	return p, nil
}

// Copy makes a deep copy of a pedal.
func (p *Pedal) Copy() Pedal {
	parameters := make(map[string]float32, len(p.Parameters))
	for k, v := range p.Parameters {
		parameters[k] = v
	}
	var options map[string]string
	if p.Options != nil {
		options = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			options[k] = v
		}
	}
	return Pedal{Kind: p.Kind, Parameters: parameters, Options: options}
}

// ParameterRange returns the declared range of a parameter of this pedal. For
// the "vst2" kind every name is valid and ranged 0..1, as VST2 parameters are
// normalized by convention.
func (p *Pedal) ParameterRange(name string) (min, max float32, err error) {
	if p.Kind == "vst2" {
		return 0, 1, nil
	}
	for _, param := range PedalTypes[p.Kind] {
		if param.Name == name {
			return param.Min, param.Max, nil
		}
	}
	return 0, 0, fmt.Errorf("pedal kind %q has no parameter %q", p.Kind, name)
}

// Validate checks that the pedal kind is known and that every parameter is
// declared and within its range. Out-of-range values never reach processing;
// they are caught here or in Pedal.SetParameter.
func (p *Pedal) Validate() error {
	if _, ok := PedalTypes[p.Kind]; !ok {
		return fmt.Errorf("unknown pedal kind %q", p.Kind)
	}
	for name, value := range p.Parameters {
		min, max, err := p.ParameterRange(name)
		if err != nil {
			return err
		}
		if value < min || value > max {
			return fmt.Errorf("parameter %q of pedal %q is %v, outside range %v..%v", name, p.Kind, value, min, max)
		}
	}
	return nil
}

// SetParameter updates one parameter value, rejecting unknown names and
// out-of-range values. Values are never clamped silently.
func (p *Pedal) SetParameter(name string, value float32) error {
	min, max, err := p.ParameterRange(name)
	if err != nil {
		return err
	}
	if value < min || value > max {
		return fmt.Errorf("value %v for parameter %q outside range %v..%v", value, name, min, max)
	}
	if p.Parameters == nil {
		p.Parameters = make(map[string]float32)
	}
	p.Parameters[name] = value
	return nil
}
