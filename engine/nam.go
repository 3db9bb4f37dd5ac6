package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/viterin/vek/vek32"
)

// namProfile is the on-disk amp capture format: a convolution window over
// the recent input followed by a tanh waveshaper. Loaded in the control
// domain only; the kernel itself never touches the filesystem.
type namProfile struct {
	Name      string    `json:"name"`
	Weights   []float32 `json:"weights"`
	Bias      float32   `json:"bias"`
	PreGain   float32   `json:"pre_gain"`
	PostGain  float32   `json:"post_gain"`
	Waveshape bool      `json:"waveshape"`
}

type namKernel struct {
	input, output int
	profile       namProfile
	history       []float32
	window        []float32
}

func newNamKernel(u *Unit, path string, blockSize int) (*namKernel, error) {
	if path == "" {
		return nil, &PluginLoadError{Path: path, Err: fmt.Errorf("no model path given")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PluginLoadError{Path: path, Err: err}
	}
	var profile namProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, &PluginLoadError{Path: path, Err: err}
	}
	if len(profile.Weights) == 0 {
		return nil, &PluginLoadError{Path: path, Err: fmt.Errorf("model has no weights")}
	}
	return &namKernel{
		input:   u.index["input"],
		output:  u.index["output"],
		profile: profile,
		history: make([]float32, len(profile.Weights)+blockSize),
		window:  make([]float32, len(profile.Weights)),
	}, nil
}

func (k *namKernel) updateParams(*Unit) {}

func (k *namKernel) process(u *Unit, buffer []float32) {
	in := u.param(k.input)
	out := u.param(k.output)
	n := len(k.profile.Weights)
	// history keeps the last n-1 samples of the previous block in front
	copy(k.history[n-1:], buffer)
	for i := range buffer {
		copy(k.window, k.history[i:i+n])
		y := vek32.Dot(k.window, k.profile.Weights)*k.profile.PreGain*in + k.profile.Bias
		if k.profile.Waveshape {
			y = float32(math.Tanh(float64(y)))
		}
		buffer[i] = y * k.profile.PostGain * out
	}
	copy(k.history, k.history[len(buffer):])
}
