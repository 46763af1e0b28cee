package fsm

import (
	"github.com/librescoot/librefsm"
)

// NewRobotDefinition creates the robot FSM definition.
// Timed behavior (the manual window, autonomous move phases) is driven by the
// robot's tick against an injected clock, so no state carries a librefsm
// timeout.
func NewRobotDefinition(actions RobotActions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateRobotWaiting,
			librefsm.WithOnEnter(actions.EnterWaiting),
		).
		State(StateRobotAuto,
			librefsm.WithOnEnter(actions.EnterAuto),
		).
		State(StateRobotManual,
			librefsm.WithOnEnter(actions.EnterManual),
		).
		State(StateRobotDead,
			librefsm.WithOnEnter(actions.EnterDead),
		).

		// === Transitions ===

		// LEVEL starts a game from any state; a dead robot is revived by the
		// next game's LEVEL:1.
		Transition(StateRobotWaiting, EvLevel, StateRobotAuto).
		Transition(StateRobotManual, EvLevel, StateRobotAuto).
		Transition(StateRobotDead, EvLevel, StateRobotAuto).

		// Manual window
		Transition(StateRobotAuto, EvManual, StateRobotManual).
		Transition(StateRobotManual, EvManualExpired, StateRobotAuto,
			librefsm.WithAction(actions.OnManualExpired),
		).

		// Impact
		Transition(StateRobotAuto, EvImpact, StateRobotDead).
		Transition(StateRobotManual, EvImpact, StateRobotDead).

		// STOP and link loss return to waiting
		Transition(StateRobotAuto, EvStop, StateRobotWaiting).
		Transition(StateRobotManual, EvStop, StateRobotWaiting).
		Transition(StateRobotDead, EvStop, StateRobotWaiting).
		Transition(StateRobotAuto, EvLinkLost, StateRobotWaiting).
		Transition(StateRobotManual, EvLinkLost, StateRobotWaiting).
		Transition(StateRobotDead, EvLinkLost, StateRobotWaiting).

		Initial(StateRobotWaiting)
}

// NewControllerDefinition creates the controller session FSM definition.
func NewControllerDefinition(actions ControllerActions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateConnecting,
			librefsm.WithOnEnter(actions.EnterConnecting),
		).
		State(StateMenu,
			librefsm.WithOnEnter(actions.EnterMenu),
		).
		State(StateGame,
			librefsm.WithOnEnter(actions.EnterGame),
		).
		State(StateTransition,
			librefsm.WithOnEnter(actions.EnterTransition),
		).
		State(StateGameOver,
			librefsm.WithOnEnter(actions.EnterGameOver),
		).
		State(StateGameWin,
			librefsm.WithOnEnter(actions.EnterGameWin),
		).

		// === Transitions ===

		Transition(StateConnecting, EvLinkUp, StateMenu).
		Transition(StateMenu, EvDifficultyChosen, StateGame).

		// Countdown expiry: the last level wins, earlier ones advance
		Transition(StateGame, EvLevelComplete, StateGameWin,
			librefsm.WithGuard(actions.IsFinalLevel),
		).
		Transition(StateGame, EvLevelComplete, StateTransition).
		Transition(StateTransition, EvLevelStarted, StateGame).

		Transition(StateGame, EvRobotDead, StateGameOver).
		Transition(StateTransition, EvRobotDead, StateGameOver).

		Transition(StateGameOver, EvShake, StateMenu).
		Transition(StateGameWin, EvShake, StateMenu).

		// Link loss aborts the session from any phase
		Transition(StateMenu, EvLinkLost, StateConnecting).
		Transition(StateGame, EvLinkLost, StateConnecting).
		Transition(StateTransition, EvLinkLost, StateConnecting).
		Transition(StateGameOver, EvLinkLost, StateConnecting).
		Transition(StateGameWin, EvLinkLost, StateConnecting).

		Initial(StateConnecting)
}
