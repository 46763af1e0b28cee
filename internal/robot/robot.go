package robot

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/librescoot/librefsm"

	"scrappy/internal/fsm"
	"scrappy/internal/link"
	"scrappy/internal/logger"
	"scrappy/internal/motion"
	"scrappy/internal/protocol"
	"scrappy/internal/sensor"
	"scrappy/internal/types"
)

const (
	// BaseSpeed is the speed used for controller-directed moves.
	BaseSpeed = 60

	DefaultManualWindow     = 5 * time.Second
	DefaultUserMoveDuration = 200 * time.Millisecond
)

type Options struct {
	BaseSpeed        int
	ManualWindow     time.Duration
	UserMoveDuration time.Duration
	// Rand seeds the movement generator; nil picks a time-based seed.
	Rand *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.BaseSpeed <= 0 {
		o.BaseSpeed = BaseSpeed
	}
	if o.ManualWindow <= 0 {
		o.ManualWindow = DefaultManualWindow
	}
	if o.UserMoveDuration <= 0 {
		o.UserMoveDuration = DefaultUserMoveDuration
	}
	return o
}

// Robot interprets controller commands and owns the actuator. It is driven
// by Tick from a single goroutine; state entry actions run on the librefsm
// goroutine while Tick waits in SendSync.
type Robot struct {
	link      link.Link
	actuator  motion.Actuator
	movement  *motion.Generator
	impact    *sensor.ImpactDetector
	publisher StatePublisher
	logger    *logger.Logger
	opts      Options

	machine *librefsm.Machine

	now         time.Time
	level       int
	difficulty  types.Difficulty
	manualEnd   time.Time
	userMoveEnd time.Time
}

func New(l link.Link, actuator motion.Actuator, impact *sensor.ImpactDetector, publisher StatePublisher, log *logger.Logger, opts Options) *Robot {
	opts = opts.withDefaults()
	return &Robot{
		link:      l,
		actuator:  actuator,
		movement:  motion.NewGenerator(actuator, opts.Rand, log),
		impact:    impact,
		publisher: publisher,
		logger:    log.WithTag("robot"),
		opts:      opts,
	}
}

// Start builds and starts the state machine in WAITING.
func (r *Robot) Start(ctx context.Context) error {
	return r.initFSM(ctx)
}

func (r *Robot) State() types.RobotState {
	return stateIDToRobotState(r.machine.CurrentState())
}

// ImpactArmed reports whether impact checks apply in the current state.
func (r *Robot) ImpactArmed() bool {
	return isAlive(r.machine.CurrentState())
}

func (r *Robot) Level() (int, types.Difficulty) {
	return r.level, r.difficulty
}

func (r *Robot) ManualEnd() time.Time   { return r.manualEnd }
func (r *Robot) UserMoveEnd() time.Time { return r.userMoveEnd }

// Tick processes one control step at now: an impact check when alive, at
// most one inbound line, then the timed behavior of the current state.
// reading is the latest raw accelerometer sample, or nil if none was taken.
// Tick returns link.ErrLinkLost when the link is gone and nil otherwise.
func (r *Robot) Tick(now time.Time, reading *types.Reading) error {
	r.now = now

	if !r.link.Connected() {
		return link.ErrLinkLost
	}

	state := r.machine.CurrentState()
	if isAlive(state) && reading != nil && r.impact.Check(*reading) {
		r.logger.Warnf("Impact detected (z=%.2f)", reading.Z)
		r.impact.MarkDead()
		r.sendEvent(fsm.EvImpact)
		return nil
	}

	line, ok, err := r.link.ReadLine()
	if err != nil {
		if errors.Is(err, link.ErrLinkLost) {
			return err
		}
		r.logger.Warnf("Failed to read from link: %v", err)
	}
	if ok {
		r.handleLine(line)
	}

	r.update(now)
	return nil
}

// LinkLost stops the motor and returns to WAITING so the next link starts a
// fresh session.
func (r *Robot) LinkLost() {
	r.stopActuator()
	r.userMoveEnd = time.Time{}
	if r.machine.CurrentState() != fsm.StateRobotWaiting {
		r.sendEvent(fsm.EvLinkLost)
	}
}

func (r *Robot) handleLine(line string) {
	msg, err := protocol.Decode(line)
	if err != nil {
		r.logger.Debugf("Ignoring line: %v", err)
	} else {
		r.logger.Debugf("Received %s", msg)
	}

	switch msg.Kind {
	case protocol.KindLevel:
		r.handleLevel(msg.Level, msg.Difficulty)
	case protocol.KindManual:
		r.handleManual()
	case protocol.KindMove:
		r.handleMove(msg.Button.Direction())
	case protocol.KindStop:
		r.handleStop()
	case protocol.KindAck, protocol.KindDead, protocol.KindUnknown:
	}

	r.reply(protocol.Ack())
}

func (r *Robot) handleLevel(level int, d types.Difficulty) {
	r.level = level
	r.difficulty = d
	r.impact.Reset()
	r.userMoveEnd = time.Time{}
	r.movement.SetLevel(level, d)

	if r.machine.CurrentState() == fsm.StateRobotAuto {
		r.publish(types.RobotAuto)
		return
	}
	r.sendEvent(fsm.EvLevel)
}

func (r *Robot) handleManual() {
	state := r.machine.CurrentState()
	if state != fsm.StateRobotAuto {
		r.logger.Debugf("MANUAL ignored in %s", state)
		return
	}
	r.sendEvent(fsm.EvManual)
}

func (r *Robot) handleMove(dir types.Direction) {
	switch r.machine.CurrentState() {
	case fsm.StateRobotManual:
		r.drive(dir)
	case fsm.StateRobotAuto:
		r.stopActuator()
		r.drive(dir)
		r.userMoveEnd = r.now.Add(r.opts.UserMoveDuration)
	default:
		r.logger.Debugf("Move %s ignored", dir)
	}
}

func (r *Robot) handleStop() {
	if r.machine.CurrentState() == fsm.StateRobotWaiting {
		r.stopActuator()
		r.userMoveEnd = time.Time{}
		return
	}
	r.sendEvent(fsm.EvStop)
}

func (r *Robot) update(now time.Time) {
	switch r.machine.CurrentState() {
	case fsm.StateRobotAuto:
		if !now.Before(r.userMoveEnd) {
			r.movement.Update(now)
		}
	case fsm.StateRobotManual:
		if !now.Before(r.manualEnd) {
			r.sendEvent(fsm.EvManualExpired)
		}
	}
}

func (r *Robot) drive(dir types.Direction) {
	if err := motion.Drive(r.actuator, dir, r.opts.BaseSpeed); err != nil {
		r.logger.Warnf("Failed to drive %s: %v", dir, err)
	}
}

func (r *Robot) stopActuator() {
	if err := r.actuator.Stop(); err != nil {
		r.logger.Warnf("Failed to stop motors: %v", err)
	}
}

func (r *Robot) reply(msg protocol.Message) {
	if err := r.link.Write(msg.Encode()); err != nil {
		r.logger.Warnf("Failed to send %s: %v", msg, err)
	}
}

func (r *Robot) publish(state types.RobotState) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishRobotState(state, r.level, r.difficulty); err != nil {
		r.logger.Warnf("Failed to publish state: %v", err)
	}
}

func isAlive(id librefsm.StateID) bool {
	return id == fsm.StateRobotAuto || id == fsm.StateRobotManual
}
