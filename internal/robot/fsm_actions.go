package robot

import (
	"context"
	"time"

	"github.com/librescoot/librefsm"

	"scrappy/internal/fsm"
	"scrappy/internal/protocol"
	"scrappy/internal/types"
)

// Ensure Robot implements fsm.RobotActions
var _ fsm.RobotActions = (*Robot)(nil)

// stateIDToRobotState converts librefsm StateID to types.RobotState
func stateIDToRobotState(id librefsm.StateID) types.RobotState {
	switch id {
	case fsm.StateRobotWaiting:
		return types.RobotWaiting
	case fsm.StateRobotAuto:
		return types.RobotAuto
	case fsm.StateRobotManual:
		return types.RobotManual
	case fsm.StateRobotDead:
		return types.RobotDead
	default:
		return types.RobotState(string(id))
	}
}

// initFSM initializes and starts the librefsm machine
func (r *Robot) initFSM(ctx context.Context) error {
	def := fsm.NewRobotDefinition(r)
	machine, err := def.Build()
	if err != nil {
		return err
	}
	r.machine = machine

	r.machine.OnStateChange(func(from, to librefsm.StateID) {
		newState := stateIDToRobotState(to)
		r.logger.Infof("State transition: %s -> %s", stateIDToRobotState(from), newState)

		// to is passed in directly; CurrentState would deadlock here
		r.publish(newState)
	})

	if err := r.machine.Start(ctx); err != nil {
		return err
	}

	r.logger.Infof("Robot state machine started")
	return nil
}

// sendEvent sends an event to the FSM and waits for it to be handled
func (r *Robot) sendEvent(event librefsm.EventID) {
	if err := r.machine.SendSync(librefsm.Event{ID: event}); err != nil {
		r.logger.Errorf("Failed to handle event %s: %v", event, err)
	}
}

func (r *Robot) EnterWaiting(c *librefsm.Context) error {
	r.stopActuator()
	r.userMoveEnd = time.Time{}
	r.logger.Infof("Waiting for level")
	return nil
}

func (r *Robot) EnterAuto(c *librefsm.Context) error {
	r.logger.Infof("AUTO mode - level %d %s", r.level, r.difficulty)
	return nil
}

func (r *Robot) EnterManual(c *librefsm.Context) error {
	r.stopActuator()
	r.manualEnd = r.now.Add(r.opts.ManualWindow)
	r.logger.Infof("MANUAL mode until %s", r.manualEnd.Format("15:04:05.000"))
	return nil
}

func (r *Robot) EnterDead(c *librefsm.Context) error {
	r.stopActuator()
	r.reply(protocol.Dead())
	r.logger.Infof("Robot is DEAD")
	return nil
}

func (r *Robot) OnManualExpired(c *librefsm.Context) error {
	r.stopActuator()
	r.movement.Reset()
	r.userMoveEnd = time.Time{}
	r.logger.Infof("Manual window expired")
	return nil
}
