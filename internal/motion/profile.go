package motion

import (
	"time"

	"scrappy/internal/types"
)

// Profile parameterizes autonomous motion for one difficulty. Speed bounds
// are inclusive percentages; duration bounds are sampled uniformly.
type Profile struct {
	MinSpeed, MaxSpeed int
	MinMove, MaxMove   time.Duration
	MinPause, MaxPause time.Duration
}

var profiles = map[types.Difficulty]Profile{
	types.Easy: {
		MinSpeed: 55, MaxSpeed: 60,
		MinMove: 200 * time.Millisecond, MaxMove: 500 * time.Millisecond,
		MinPause: 1500 * time.Millisecond, MaxPause: 2000 * time.Millisecond,
	},
	types.Medium: {
		MinSpeed: 60, MaxSpeed: 65,
		MinMove: 400 * time.Millisecond, MaxMove: 600 * time.Millisecond,
		MinPause: 0, MaxPause: 1500 * time.Millisecond,
	},
	types.Hard: {
		MinSpeed: 70, MaxSpeed: 75,
		MinMove: 300 * time.Millisecond, MaxMove: 1000 * time.Millisecond,
		MinPause: 400 * time.Millisecond, MaxPause: 500 * time.Millisecond,
	},
}

// ProfileFor returns the profile of d, falling back to Easy.
func ProfileFor(d types.Difficulty) Profile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[types.Easy]
}
