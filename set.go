package pedalhost

import "fmt"

// Set is an ordered list of pedalboards with at most one marked active (the
// one that processes audio). Active == -1 means no pedalboard is active.
type Set struct {
	Pedalboards []Pedalboard `json:"pedalboards"`
	Active      int          `yaml:"active" json:"active"`
}

// NewSet returns an empty set with no active pedalboard.
func NewSet() Set {
	return Set{Active: -1}
}

// Copy makes a deep copy of a set.
func (s *Set) Copy() Set {
	boards := make([]Pedalboard, len(s.Pedalboards))
	for i, b := range s.Pedalboards {
		boards[i] = b.Copy()
	}
	return Set{Pedalboards: boards, Active: s.Active}
}

// Validate checks all pedalboards and that the active index, if any, is in
// range.
func (s *Set) Validate() error {
	if s.Active < -1 || s.Active >= len(s.Pedalboards) {
		return fmt.Errorf("active index %d out of range for %d pedalboards", s.Active, len(s.Pedalboards))
	}
	for i := range s.Pedalboards {
		if err := s.Pedalboards[i].Validate(); err != nil {
			return fmt.Errorf("pedalboard %d: %w", i, err)
		}
	}
	return nil
}

// ActiveBoard returns the active pedalboard, or nil if none.
func (s *Set) ActiveBoard() *Pedalboard {
	if s.Active < 0 || s.Active >= len(s.Pedalboards) {
		return nil
	}
	return &s.Pedalboards[s.Active]
}

// AddPedalboard appends a pedalboard to the set. The first board added to an
// empty set does not become active by itself; activation is always explicit.
func (s *Set) AddPedalboard(b Pedalboard) {
	s.Pedalboards = append(s.Pedalboards, b)
}

// DeletePedalboard removes the pedalboard at the given index. The active mark
// follows the same logical pedalboard: deleting below it shifts the index
// down, deleting the active one leaves the mark at the board that took its
// place (or the new last board, or none if the set became empty).
func (s *Set) DeletePedalboard(index int) error {
	if index < 0 || index >= len(s.Pedalboards) {
		return fmt.Errorf("pedalboard index %d out of range 0..%d", index, len(s.Pedalboards)-1)
	}
	s.Pedalboards = append(s.Pedalboards[:index], s.Pedalboards[index+1:]...)
	switch {
	case s.Active > index:
		s.Active--
	case s.Active == index:
		if s.Active >= len(s.Pedalboards) {
			s.Active = len(s.Pedalboards) - 1 // -1 when the set became empty
		}
	}
	return nil
}

// MovePedalboard moves the pedalboard at src to the insertion gap dst,
// counted before the move: a dst above src lands the board at dst-1, a dst at
// or below src lands it at dst. dst may equal the set length to move the
// board to the end. The active mark keeps pointing at the same logical
// pedalboard.
func (s *Set) MovePedalboard(src, dst int) error {
	n := len(s.Pedalboards)
	if src < 0 || src >= n {
		return fmt.Errorf("source pedalboard index %d out of range 0..%d", src, n-1)
	}
	if dst < 0 || dst > n {
		return fmt.Errorf("destination pedalboard index %d out of range 0..%d", dst, n)
	}
	if dst > src {
		dst--
	}
	b := s.Pedalboards[src]
	if src < dst {
		copy(s.Pedalboards[src:], s.Pedalboards[src+1:dst+1])
	} else {
		copy(s.Pedalboards[dst+1:], s.Pedalboards[dst:src])
	}
	s.Pedalboards[dst] = b
	if s.Active >= 0 {
		switch {
		case s.Active == src:
			s.Active = dst
		case src < s.Active && dst >= s.Active:
			s.Active--
		case src > s.Active && dst <= s.Active:
			s.Active++
		}
	}
	return nil
}

// SetActive marks the pedalboard at the given index as the playing one.
func (s *Set) SetActive(index int) error {
	if index < 0 || index >= len(s.Pedalboards) {
		return fmt.Errorf("pedalboard index %d out of range 0..%d", index, len(s.Pedalboards)-1)
	}
	s.Active = index
	return nil
}
