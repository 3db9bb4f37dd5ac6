//go:build plugin

package engine

import (
	"errors"
	"unsafe"

	"pipelined.dev/audio/vst2"

	"github.com/tvuorela/pedalhost"
)

var (
	errNoPluginPath   = errors.New("no plugin path given")
	errPluginInstance = errors.New("plugin instance creation failed")
)

// vst2Kernel hosts an external VST2 effect. The library is opened and the
// plugin instantiated in the control domain; process only shuffles samples
// through preallocated buffers and issues no dispatcher calls.
type vst2Kernel struct {
	plugin  *vst2.Plugin
	in, out vst2.FloatBuffer
	names   []string
	last    []float32
}

func hostCallback(op vst2.HostOpcode, index int32, value int64, ptr unsafe.Pointer, opt float32) int64 {
	switch op {
	case vst2.HostGetCurrentProcessLevel:
		return 2 // realtime
	default:
		return 0
	}
}

func newVst2Kernel(u *Unit, p pedalhost.Pedal, sampleRate, blockSize int) (*vst2Kernel, error) {
	path := p.Options["path"]
	if path == "" {
		return nil, &PluginLoadError{Path: path, Err: errNoPluginPath}
	}
	vst, err := vst2.Open(path)
	if err != nil {
		return nil, &PluginLoadError{Path: path, Err: err}
	}
	plugin := vst.Plugin(hostCallback)
	if plugin == nil {
		vst.Close()
		return nil, &PluginLoadError{Path: path, Err: errPluginInstance}
	}
	plugin.SetSampleRate(sampleRate)
	plugin.SetBufferSize(blockSize)
	plugin.Start()
	k := &vst2Kernel{
		plugin: plugin,
		in:     vst2.NewFloatBuffer(1, blockSize),
		out:    vst2.NewFloatBuffer(1, blockSize),
		names:  make([]string, plugin.NumParams()),
		last:   make([]float32, plugin.NumParams()),
	}
	for i := range k.names {
		k.names[i] = plugin.ParamName(i)
		k.last[i] = plugin.ParamValue(i)
	}
	// expose the plugin's own parameter list through the unit tables
	u.adoptPluginParams(k.names, k.last)
	return k, nil
}

func (k *vst2Kernel) updateParams(u *Unit) {
	for i, name := range k.names {
		idx, ok := u.index[name]
		if !ok {
			continue
		}
		if v := u.param(idx); v != k.last[i] {
			k.plugin.SetParamValue(i, v)
			k.last[i] = v
		}
	}
}

func (k *vst2Kernel) process(_ *Unit, buffer []float32) {
	copy(k.in.Channel(0), buffer)
	k.plugin.ProcessFloat(k.in, k.out)
	copy(buffer, k.out.Channel(0))
}
