package pedalhost

import "fmt"

// Pedalboard is an ordered chain of pedals with a display name. The order is
// the processing order: the output of pedal i feeds the input of pedal i+1.
type Pedalboard struct {
	Name   string  `yaml:"name" json:"name"`
	Pedals []Pedal `json:"pedals"`
}

// Copy makes a deep copy of a pedalboard.
func (b *Pedalboard) Copy() Pedalboard {
	pedals := make([]Pedal, len(b.Pedals))
	for i, p := range b.Pedals {
		pedals[i] = p.Copy()
	}
	return Pedalboard{Name: b.Name, Pedals: pedals}
}

// Validate checks every pedal in the chain.
func (b *Pedalboard) Validate() error {
	for i, p := range b.Pedals {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pedal %d: %w", i, err)
		}
	}
	return nil
}

// InsertPedal inserts a pedal at the given index, so that it ends up at that
// index in the chain. index == len(Pedals) appends.
func (b *Pedalboard) InsertPedal(index int, p Pedal) error {
	if index < 0 || index > len(b.Pedals) {
		return fmt.Errorf("pedal index %d out of range 0..%d", index, len(b.Pedals))
	}
	b.Pedals = append(b.Pedals, Pedal{})
	copy(b.Pedals[index+1:], b.Pedals[index:])
	b.Pedals[index] = p
	return nil
}

// DeletePedal removes the pedal at the given index.
func (b *Pedalboard) DeletePedal(index int) error {
	if index < 0 || index >= len(b.Pedals) {
		return fmt.Errorf("pedal index %d out of range 0..%d", index, len(b.Pedals)-1)
	}
	b.Pedals = append(b.Pedals[:index], b.Pedals[index+1:]...)
	return nil
}

// MovePedal moves the pedal at src to the insertion gap dst, where dst is
// counted in the chain as it is before the move: a dst above src lands the
// pedal at dst-1 once its old slot has closed, a dst at or below src lands it
// at dst exactly. dst may equal the chain length to move the pedal to the
// end. The chain always stays gapless: either the full reorder happens or
// nothing does.
func (b *Pedalboard) MovePedal(src, dst int) error {
	n := len(b.Pedals)
	if src < 0 || src >= n {
		return fmt.Errorf("source pedal index %d out of range 0..%d", src, n-1)
	}
	if dst < 0 || dst > n {
		return fmt.Errorf("destination pedal index %d out of range 0..%d", dst, n)
	}
	if dst > src {
		dst--
	}
	p := b.Pedals[src]
	if src < dst {
		copy(b.Pedals[src:], b.Pedals[src+1:dst+1])
	} else {
		copy(b.Pedals[dst+1:], b.Pedals[dst:src])
	}
	b.Pedals[dst] = p
	return nil
}
