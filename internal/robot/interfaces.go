package robot

import (
	"scrappy/internal/types"
)

// StatePublisher reports robot state changes to whoever is listening
// (Redis telemetry in production, nothing in tests).
type StatePublisher interface {
	PublishRobotState(state types.RobotState, level int, difficulty types.Difficulty) error
}
