package server

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type (
	Settings struct {
		Addr       string `yaml:"addr"`
		SampleRate int    `yaml:"samplerate"`
		BlockSize  int    `yaml:"blocksize"`
		MIDI       MIDISettings
		YmlError   error `yaml:"-"`
	}

	MIDISettings struct {
		Enabled  bool   `yaml:"enabled"`
		Input    string `yaml:"input"`    // substring match of the port name, empty = first port
		PCOffset int    `yaml:"pcoffset"` // added to incoming program change numbers
		MasterCC uint8  `yaml:"mastercc"` // controller mapped to master gain
	}
)

//go:embed settings.yml
var defaultSettingsYaml []byte

func loadDefaultSettings() Settings {
	var settings Settings
	err := yaml.UnmarshalStrict(defaultSettingsYaml, &settings)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal settings: %w", err))
	}
	return settings
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, "pedalhost", filename)
	bytes, err2 := os.ReadFile(path)
	if err2 != nil {
		return false, err2
	}
	err = yaml.Unmarshal(bytes, target)
	return true, err
}

// MakeSettings returns the embedded defaults, overlaid with the user's
// settings.yml if one exists. A malformed user file keeps the defaults and
// records the parse error in YmlError rather than failing startup.
func MakeSettings() Settings {
	settings := loadDefaultSettings()
	exists, err := ReadCustomConfigYml("settings.yml", &settings)
	if exists {
		settings.YmlError = err
	}
	return settings
}
