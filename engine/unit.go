// Package engine contains the real-time side of pedalhost: compiled pedal
// chains, the render engine state machine and the coordinator that hands
// immutable snapshots of the pedalboard set to the audio callback.
//
// The package is split across a strict boundary. Everything reachable from
// Engine.Process runs on the real-time thread and must not block, allocate or
// perform I/O. Unit construction, plugin loading and snapshot mutation run in
// the control domain; only fully constructed units are ever published to the
// audio side.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/tvuorela/pedalhost"
)

type (
	// Unit is the runtime form of one pedal: a processing kernel plus its
	// parameter cells. Parameter writes are single atomic stores picked up by
	// the next Process call, so they are safe to invoke from the control
	// domain while audio is running. A Unit is exclusively owned by the chain
	// that contains it and is never shared.
	Unit struct {
		kind   string
		names  []string
		index  map[string]int
		ranges []paramRange
		params []atomic.Uint32 // float32 bits
		dirty  atomic.Bool     // a parameter changed; kernel recomputes derived state
		kernel kernel

		options map[string]string

		// failed marks a native plugin unit whose load failed: Process copies
		// input to output unchanged. Set during construction, read-only after.
		failed  bool
		loadErr error
	}

	paramRange struct{ min, max float32 }

	// kernel is the closed set of processing implementations: the built-in
	// DSP kinds, the vst2 plugin adapter and the nam inference pass.
	kernel interface {
		// updateParams recomputes state derived from parameters (filter
		// coefficients etc). Called from the audio thread at block start
		// whenever a parameter changed; must be bounded and allocation free.
		updateParams(u *Unit)
		process(u *Unit, buffer []float32)
	}

	// PluginLoadError reports a native plugin or model that failed to
	// initialize. The affected unit stays in the chain as a pass-through;
	// the error is reported once and does not abort anything.
	PluginLoadError struct {
		Path string
		Err  error
	}
)

func (e *PluginLoadError) Error() string {
	return fmt.Sprintf("loading %q failed: %v", e.Path, e.Err)
}

func (e *PluginLoadError) Unwrap() error { return e.Err }

// NewUnit compiles a model pedal into a runtime unit. Runs in the control
// domain; this is the only place that may allocate or load foreign code. A
// plugin that fails to load still yields a working (pass-through) unit; the
// load error is available via LoadError.
func NewUnit(p pedalhost.Pedal, sampleRate, blockSize int) (*Unit, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	u := &Unit{kind: p.Kind}
	if p.Options != nil {
		u.options = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			u.options[k] = v
		}
	}
	switch p.Kind {
	case "vst2":
		// parameters are defined by the plugin; the unit mirrors whatever the
		// model carries so writes can be validated and forwarded by index
		for name := range p.Parameters {
			u.names = append(u.names, name)
		}
	default:
		for _, param := range pedalhost.PedalTypes[p.Kind] {
			u.names = append(u.names, param.Name)
		}
	}
	u.index = make(map[string]int, len(u.names))
	u.ranges = make([]paramRange, len(u.names))
	u.params = make([]atomic.Uint32, len(u.names))
	for i, name := range u.names {
		u.index[name] = i
		min, max, err := p.ParameterRange(name)
		if err != nil {
			return nil, err
		}
		u.ranges[i] = paramRange{min, max}
		u.params[i].Store(math.Float32bits(p.Parameters[name]))
	}
	kern, err := newKernel(u, p, sampleRate, blockSize)
	if err != nil {
		var loadErr *PluginLoadError
		if !errors.As(err, &loadErr) {
			return nil, err
		}
		u.failed = true
		u.loadErr = loadErr
		kern = passthroughKernel{}
	}
	u.kernel = kern
	u.kernel.updateParams(u)
	return u, nil
}

func newKernel(u *Unit, p pedalhost.Pedal, sampleRate, blockSize int) (kernel, error) {
	switch p.Kind {
	case "gain":
		return newGainKernel(u), nil
	case "overdrive":
		return newOverdriveKernel(u, sampleRate), nil
	case "fuzz":
		return newFuzzKernel(u), nil
	case "distortion":
		return newDistortionKernel(u), nil
	case "delay":
		return newDelayKernel(u, sampleRate), nil
	case "chorus":
		return newChorusKernel(u, sampleRate), nil
	case "tremolo":
		return newTremoloKernel(u, sampleRate), nil
	case "vibrato":
		return newVibratoKernel(u, sampleRate), nil
	case "compressor":
		return newCompressorKernel(u, sampleRate), nil
	case "reverb":
		return newReverbKernel(u, sampleRate), nil
	case "noisegate":
		return newNoiseGateKernel(u, sampleRate), nil
	case "eq7":
		return newEq7Kernel(u, sampleRate), nil
	case "nam":
		return newNamKernel(u, p.Options["path"], blockSize)
	case "vst2":
		return newVst2Kernel(u, p, sampleRate, blockSize)
	}
	return nil, fmt.Errorf("unknown pedal kind %q", p.Kind)
}

// Kind returns the pedal kind this unit was compiled from.
func (u *Unit) Kind() string { return u.kind }

// Failed reports whether the unit fell back to pass-through because its
// plugin or model could not be loaded.
func (u *Unit) Failed() bool { return u.failed }

// LoadError returns the load failure of a Failed unit, nil otherwise.
func (u *Unit) LoadError() error { return u.loadErr }

// SetParameter validates and stores one parameter value. Lock free; the
// running Process call keeps using the old value, the next one sees the new.
// Out-of-range values are rejected and the stored value is unchanged.
func (u *Unit) SetParameter(name string, value float32) error {
	i, ok := u.index[name]
	if !ok {
		return fmt.Errorf("pedal kind %q has no parameter %q", u.kind, name)
	}
	if r := u.ranges[i]; value < r.min || value > r.max {
		return fmt.Errorf("value %v for parameter %q outside range %v..%v", value, name, r.min, r.max)
	}
	u.params[i].Store(math.Float32bits(value))
	u.dirty.Store(true)
	return nil
}

// Parameter returns the current value of a parameter.
func (u *Unit) Parameter(name string) (float32, error) {
	i, ok := u.index[name]
	if !ok {
		return 0, fmt.Errorf("pedal kind %q has no parameter %q", u.kind, name)
	}
	return math.Float32frombits(u.params[i].Load()), nil
}

func (u *Unit) param(i int) float32 {
	return math.Float32frombits(u.params[i].Load())
}

// adoptPluginParams extends the parameter tables with parameters a hosted
// plugin reports beyond those the model carried. Called during construction
// only, before the unit is published.
func (u *Unit) adoptPluginParams(names []string, values []float32) {
	extra := make([]int, 0, len(names))
	for i, name := range names {
		if _, ok := u.index[name]; !ok {
			extra = append(extra, i)
		}
	}
	if len(extra) == 0 {
		return
	}
	params := make([]atomic.Uint32, len(u.names)+len(extra))
	for i := range u.params {
		params[i].Store(u.params[i].Load())
	}
	for _, i := range extra {
		u.index[names[i]] = len(u.names)
		u.names = append(u.names, names[i])
		u.ranges = append(u.ranges, paramRange{0, 1})
		params[len(u.names)-1].Store(math.Float32bits(values[i]))
	}
	u.params = params
}

// Process runs one block through the unit, in place. Real-time safe.
func (u *Unit) Process(buffer []float32) {
	if u.failed {
		return // pass-through: input stays in the buffer unchanged
	}
	if u.dirty.Swap(false) {
		u.kernel.updateParams(u)
	}
	u.kernel.process(u, buffer)
}

// Model converts the unit's current state back into a model pedal.
func (u *Unit) Model() pedalhost.Pedal {
	p := pedalhost.Pedal{Kind: u.kind, Parameters: make(map[string]float32, len(u.names))}
	for i, name := range u.names {
		p.Parameters[name] = math.Float32frombits(u.params[i].Load())
	}
	if u.options != nil {
		p.Options = make(map[string]string, len(u.options))
		for k, v := range u.options {
			p.Options[k] = v
		}
	}
	return p
}

// passthroughKernel copies input to output unchanged. Used for units whose
// plugin failed to load.
type passthroughKernel struct{}

func (passthroughKernel) updateParams(*Unit)           {}
func (passthroughKernel) process(_ *Unit, _ []float32) {}
