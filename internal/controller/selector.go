package controller

import "scrappy/internal/types"

// DifficultySelector is the menu cursor. Positive deltas move towards Hard,
// negative towards Easy, wrapping at both ends.
type DifficultySelector struct {
	current types.Difficulty
}

func (s *DifficultySelector) Move(delta int) types.Difficulty {
	for ; delta > 0; delta-- {
		s.current = s.current.Next()
	}
	for ; delta < 0; delta++ {
		s.current = s.current.Prev()
	}
	return s.current
}

func (s *DifficultySelector) Current() types.Difficulty {
	return s.current
}

func (s *DifficultySelector) Reset() {
	s.current = types.Easy
}
