package orchestrator

import (
	"time"

	"scrappy/internal/types"
)

// StatusIndicator shows link state, red while disconnected and green while
// connected.
type StatusIndicator interface {
	ShowConnected() error
	ShowDisconnected() error
}

// ButtonSource reports the highest priority pressed button, or
// types.NoButton.
type ButtonSource interface {
	PressedButton() (types.Button, error)
}

// RotarySource reports menu movement in detents.
type RotarySource interface {
	// Update reports whether the position changed since the last Delta.
	Update() bool
	Delta() int
}

// Device adapts one state machine to the loop.
type Device interface {
	LinkUp(now time.Time)
	// Step runs one tick. It returns link.ErrLinkLost when the link is gone.
	Step(now time.Time) error
	LinkLost(now time.Time)
	Phase() string
}
