package fsm

import "github.com/librescoot/librefsm"

// RobotActions is implemented by robot.Robot to handle state entry and
// transition side effects.
type RobotActions interface {
	// State entry actions
	EnterWaiting(c *librefsm.Context) error
	EnterAuto(c *librefsm.Context) error
	EnterManual(c *librefsm.Context) error
	EnterDead(c *librefsm.Context) error

	// Transition actions
	OnManualExpired(c *librefsm.Context) error
}

// ControllerActions is implemented by controller.Session.
type ControllerActions interface {
	EnterConnecting(c *librefsm.Context) error
	EnterMenu(c *librefsm.Context) error
	EnterGame(c *librefsm.Context) error
	EnterTransition(c *librefsm.Context) error
	EnterGameOver(c *librefsm.Context) error
	EnterGameWin(c *librefsm.Context) error

	// Guards
	IsFinalLevel(c *librefsm.Context) bool
}
