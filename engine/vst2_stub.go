//go:build !plugin

package engine

import (
	"errors"

	"github.com/tvuorela/pedalhost"
)

// Builds without the plugin tag cannot host VST2 effects. Such pedals still
// load as pass-through units so set files referencing them keep working.
func newVst2Kernel(_ *Unit, p pedalhost.Pedal, _, _ int) (kernel, error) {
	return nil, &PluginLoadError{
		Path: p.Options["path"],
		Err:  errors.New("built without vst2 support"),
	}
}
