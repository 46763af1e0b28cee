package types

// RobotState is the published lifecycle state of the robot.
type RobotState string

const (
	RobotWaiting RobotState = "waiting"
	RobotAuto    RobotState = "auto"
	RobotManual  RobotState = "manual"
	RobotDead    RobotState = "dead"
)

// Phase is the published phase of the controller session.
type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhaseMenu       Phase = "menu"
	PhaseGame       Phase = "game"
	PhaseTransition Phase = "transition"
	PhaseGameOver   Phase = "game-over"
	PhaseGameWin    Phase = "game-win"
)

type Role string

const (
	RoleController Role = "controller"
	RoleRobot      Role = "robot"
)

type LinkState string

const (
	LinkConnected    LinkState = "connected"
	LinkDisconnected LinkState = "disconnected"
)

// Outcome of a finished game as recorded by the controller.
type Outcome string

const (
	OutcomeWin          Outcome = "win"
	OutcomeDead         Outcome = "dead"
	OutcomeDisconnected Outcome = "disconnected"
)
