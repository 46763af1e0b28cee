package fsm

import "github.com/librescoot/librefsm"

// Robot states
const (
	StateRobotWaiting librefsm.StateID = "waiting"
	StateRobotAuto    librefsm.StateID = "auto"
	StateRobotManual  librefsm.StateID = "manual"
	StateRobotDead    librefsm.StateID = "dead"
)

// Robot events
const (
	// Commands from the controller
	EvLevel  librefsm.EventID = "level"
	EvManual librefsm.EventID = "manual"
	EvStop   librefsm.EventID = "stop"

	// Local events
	EvImpact        librefsm.EventID = "impact"
	EvManualExpired librefsm.EventID = "manual-expired"
)

// Controller phases
const (
	StateConnecting librefsm.StateID = "connecting"
	StateMenu       librefsm.StateID = "menu"
	StateGame       librefsm.StateID = "game"
	StateTransition librefsm.StateID = "transition"
	StateGameOver   librefsm.StateID = "game-over"
	StateGameWin    librefsm.StateID = "game-win"
)

// Controller events
const (
	EvLinkUp           librefsm.EventID = "link-up"
	EvDifficultyChosen librefsm.EventID = "difficulty-chosen"
	EvLevelComplete    librefsm.EventID = "level-complete"
	EvLevelStarted     librefsm.EventID = "level-started"
	EvRobotDead        librefsm.EventID = "robot-dead"
	EvShake            librefsm.EventID = "shake"
)

// EvLinkLost is shared by both machines.
const EvLinkLost librefsm.EventID = "link-lost"
