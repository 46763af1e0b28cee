// Package motion generates the robot's randomized autonomous movement.
//
// The Generator alternates between a moving phase and a pausing phase. Each
// call to Update is non-blocking: it only acts once the current phase has
// elapsed, at which point it either stops the actuator and samples a pause,
// or samples and issues a fresh move. A freshly reset generator pauses first.
package motion

import (
	"math/rand"
	"time"

	"scrappy/internal/logger"
	"scrappy/internal/types"
)

// Actuator is the motor command sink. Speeds are percentages in [0,100].
type Actuator interface {
	Forward(speed int) error
	Backward(speed int) error
	Left(speed int) error
	Right(speed int) error
	Stop() error
}

// Drive issues cmd on a, mapping Stop and unknown directions to a.Stop.
func Drive(a Actuator, dir types.Direction, speed int) error {
	switch dir {
	case types.Forward:
		return a.Forward(speed)
	case types.Backward:
		return a.Backward(speed)
	case types.Left:
		return a.Left(speed)
	case types.Right:
		return a.Right(speed)
	default:
		return a.Stop()
	}
}

var directions = [...]types.Direction{types.Forward, types.Backward, types.Left, types.Right}

// Move is one sampled step of autonomous motion.
type Move struct {
	Direction types.Direction
	Speed     int
	Duration  time.Duration
	Pause     time.Duration
}

func (m Move) Command() types.MotionCommand {
	return types.MotionCommand{Direction: m.Direction, SpeedPercent: m.Speed, Duration: m.Duration}
}

type Generator struct {
	actuator Actuator
	rng      *rand.Rand
	logger   *logger.Logger

	level      int
	difficulty types.Difficulty

	moveEnd time.Time
	pausing bool
}

// NewGenerator uses rng for all sampling so a fixed seed replays the same
// pattern.
func NewGenerator(actuator Actuator, rng *rand.Rand, l *logger.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Generator{
		actuator:   actuator,
		rng:        rng,
		logger:     l.WithTag("motion"),
		difficulty: types.Easy,
	}
}

// NextMove samples a move for difficulty d.
func (g *Generator) NextMove(d types.Difficulty) Move {
	p := ProfileFor(d)
	return Move{
		Direction: directions[g.rng.Intn(len(directions))],
		Speed:     p.MinSpeed + g.rng.Intn(p.MaxSpeed-p.MinSpeed+1),
		Duration:  g.uniform(p.MinMove, p.MaxMove),
		Pause:     g.uniform(p.MinPause, p.MaxPause),
	}
}

func (g *Generator) uniform(lo, hi time.Duration) time.Duration {
	return lo + time.Duration(g.rng.Float64()*float64(hi-lo))
}

// Update advances the move/pause cycle at now.
func (g *Generator) Update(now time.Time) {
	if now.Before(g.moveEnd) {
		return
	}

	move := g.NextMove(g.difficulty)
	if g.pausing {
		if err := Drive(g.actuator, move.Direction, move.Speed); err != nil {
			g.logger.Warnf("Failed to drive %s: %v", move.Direction, err)
		}
		g.moveEnd = now.Add(move.Duration)
		g.pausing = false
		g.logger.Debugf("Auto: %s @ %d%% for %v", move.Direction, move.Speed, move.Duration)
		return
	}

	if err := g.actuator.Stop(); err != nil {
		g.logger.Warnf("Failed to stop: %v", err)
	}
	g.moveEnd = now.Add(move.Pause)
	g.pausing = true
	g.logger.Debugf("Pausing for %v", move.Pause)
}

// Reset stops the actuator and restarts the cycle.
func (g *Generator) Reset() {
	if err := g.actuator.Stop(); err != nil {
		g.logger.Warnf("Failed to stop: %v", err)
	}
	g.moveEnd = time.Time{}
	g.pausing = false
}

func (g *Generator) SetLevel(level int, d types.Difficulty) {
	g.level = level
	g.difficulty = d
	g.Reset()
	g.logger.Infof("Level set to %d - %s", level, d)
}

func (g *Generator) Level() int                   { return g.level }
func (g *Generator) Difficulty() types.Difficulty { return g.difficulty }
func (g *Generator) Pausing() bool                { return g.pausing }
func (g *Generator) MoveEnd() time.Time           { return g.moveEnd }
