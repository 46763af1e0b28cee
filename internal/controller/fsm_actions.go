package controller

import (
	"context"

	"github.com/librescoot/librefsm"

	"scrappy/internal/fsm"
	"scrappy/internal/types"
)

// Ensure Session implements fsm.ControllerActions
var _ fsm.ControllerActions = (*Session)(nil)

// stateIDToPhase converts librefsm StateID to types.Phase
func stateIDToPhase(id librefsm.StateID) types.Phase {
	switch id {
	case fsm.StateConnecting:
		return types.PhaseConnecting
	case fsm.StateMenu:
		return types.PhaseMenu
	case fsm.StateGame:
		return types.PhaseGame
	case fsm.StateTransition:
		return types.PhaseTransition
	case fsm.StateGameOver:
		return types.PhaseGameOver
	case fsm.StateGameWin:
		return types.PhaseGameWin
	default:
		return types.Phase(string(id))
	}
}

// initFSM initializes and starts the librefsm machine
func (s *Session) initFSM(ctx context.Context) error {
	def := fsm.NewControllerDefinition(s)
	machine, err := def.Build()
	if err != nil {
		return err
	}
	s.machine = machine

	s.machine.OnStateChange(func(from, to librefsm.StateID) {
		phase := stateIDToPhase(to)
		s.logger.Infof("Phase transition: %s -> %s", stateIDToPhase(from), phase)
		s.publish(phase)
	})

	if err := s.machine.Start(ctx); err != nil {
		return err
	}

	s.logger.Infof("Controller state machine started")
	return nil
}

// sendEvent sends an event to the FSM and waits for it to be handled
func (s *Session) sendEvent(event librefsm.EventID) {
	if err := s.machine.SendSync(librefsm.Event{ID: event}); err != nil {
		s.logger.Errorf("Failed to handle event %s: %v", event, err)
	}
}

func (s *Session) EnterConnecting(c *librefsm.Context) error {
	s.clearWait()
	s.levelSent = false
	s.awaitRelease = false
	s.display.ShowConnection("Scanning...", "")
	return nil
}

func (s *Session) EnterMenu(c *librefsm.Context) error {
	s.selector.Reset()
	s.level = 1
	s.display.ShowMenu(s.selector.Current())
	return nil
}

func (s *Session) EnterGame(c *librefsm.Context) error {
	if c.FromState == fsm.StateMenu {
		s.gameStart = s.now
		s.lastErr = nil
	}
	s.clearWait()
	s.levelStart = s.now
	s.lastTimer = -1
	s.display.ShowGame(s.level, s.difficulty)
	s.display.UpdateLevel(s.level)
	s.logger.Infof("Level %d started (%v)", s.level, s.LevelDuration())
	return nil
}

func (s *Session) EnterTransition(c *librefsm.Context) error {
	s.level++
	s.settleUntil = s.now.Add(s.opts.SettleDelay)
	s.levelSent = false
	s.display.ShowTransition(s.level)
	return nil
}

func (s *Session) EnterGameOver(c *librefsm.Context) error {
	s.display.ShowGameOver(gameOverReason)
	s.recordGame(types.OutcomeDead)
	return nil
}

func (s *Session) EnterGameWin(c *librefsm.Context) error {
	s.display.ShowWin()
	s.recordGame(types.OutcomeWin)
	s.logger.Infof("Game completed! Player wins!")
	return nil
}

// IsFinalLevel guards the win transition.
func (s *Session) IsFinalLevel(c *librefsm.Context) bool {
	return s.level >= s.opts.MaxLevel
}
