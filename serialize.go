package pedalhost

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Command payloads on the wire are always JSON; set files on disk may be
// either .json or .yml, so the file parsers try both, the same way song files
// are handled elsewhere in the ecosystem.

// ParsePedal parses one serialized pedal (JSON) and validates it.
func ParsePedal(data []byte) (Pedal, error) {
	var p Pedal
	if err := json.Unmarshal(data, &p); err != nil {
		return Pedal{}, fmt.Errorf("could not parse pedal: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Pedal{}, err
	}
	return p, nil
}

// ParsePedalboard parses one serialized pedalboard (JSON) and validates it.
func ParsePedalboard(data []byte) (Pedalboard, error) {
	var b Pedalboard
	if err := json.Unmarshal(data, &b); err != nil {
		return Pedalboard{}, fmt.Errorf("could not parse pedalboard: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Pedalboard{}, err
	}
	return b, nil
}

// ParseSet parses a serialized set, accepting JSON or YAML, and validates it.
func ParseSet(data []byte) (Set, error) {
	var s Set
	if errJSON := json.Unmarshal(data, &s); errJSON != nil {
		if errYaml := yaml.Unmarshal(data, &s); errYaml != nil {
			return Set{}, fmt.Errorf("the set could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := s.Validate(); err != nil {
		return Set{}, err
	}
	return s, nil
}

// MarshalSet serializes a set as YAML for saving to disk.
func MarshalSet(s Set) ([]byte, error) {
	return yaml.Marshal(s)
}
