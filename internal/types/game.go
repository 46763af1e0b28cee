package types

import (
	"fmt"
	"strings"
	"time"
)

type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

var difficultyNames = [...]string{"EASY", "MEDIUM", "HARD"}

func (d Difficulty) String() string {
	if d < Easy || d > Hard {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

// Title is the menu label, e.g. "Medium".
func (d Difficulty) Title() string {
	s := d.String()
	return s[:1] + strings.ToLower(s[1:])
}

func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

// Next cycles Easy, Medium, Hard and back to Easy.
func (d Difficulty) Next() Difficulty {
	return (d + 1) % 3
}

func (d Difficulty) Prev() Difficulty {
	return (d + 2) % 3
}

// ParseDifficulty is case-insensitive.
func ParseDifficulty(s string) (Difficulty, bool) {
	for i, name := range difficultyNames {
		if strings.EqualFold(s, name) {
			return Difficulty(i), true
		}
	}
	return Easy, false
}

// Direction of a motion command.
type Direction int

const (
	Stop Direction = iota
	Forward
	Backward
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Stop:
		return "stop"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MotionCommand is regenerated every control tick and never stored.
type MotionCommand struct {
	Direction    Direction
	SpeedPercent int
	Duration     time.Duration
}

// Button is a controller direction button.
type Button int

const (
	NoButton Button = iota
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "UP"
	case ButtonDown:
		return "DOWN"
	case ButtonLeft:
		return "LEFT"
	case ButtonRight:
		return "RIGHT"
	default:
		return ""
	}
}

// Direction maps a button to the motion it requests from the robot.
func (b Button) Direction() Direction {
	switch b {
	case ButtonUp:
		return Forward
	case ButtonDown:
		return Backward
	case ButtonLeft:
		return Left
	case ButtonRight:
		return Right
	default:
		return Stop
	}
}

// Reading is a 3-axis acceleration sample in m/s^2.
type Reading struct {
	X, Y, Z float64
}

func (r Reading) Sub(o Reading) Reading {
	return Reading{X: r.X - o.X, Y: r.Y - o.Y, Z: r.Z - o.Z}
}
