package hardware

import (
	"sync"

	"scrappy/internal/logger"
	"scrappy/internal/types"
)

// Simulated devices stand in for the real ones when no hardware is
// attached. They log what they would have done.

type SimMotor struct {
	logger *logger.Logger

	mu   sync.Mutex
	last string
}

func NewSimMotor(l *logger.Logger) *SimMotor {
	return &SimMotor{logger: l.WithTag("sim-motor")}
}

func (m *SimMotor) Forward(speed int) error  { return m.set("forward", speed) }
func (m *SimMotor) Backward(speed int) error { return m.set("backward", speed) }
func (m *SimMotor) Left(speed int) error     { return m.set("left", speed) }
func (m *SimMotor) Right(speed int) error    { return m.set("right", speed) }
func (m *SimMotor) Stop() error              { return m.set("stop", 0) }

func (m *SimMotor) set(action string, speed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last != action {
		m.logger.Infof("Motors: %s at %d%%", action, speed)
	}
	m.last = action
	return nil
}

// SimAccelerometer reports a device lying flat and still.
type SimAccelerometer struct{}

func (SimAccelerometer) Acceleration() (types.Reading, error) {
	return types.Reading{Z: StandardGravity}, nil
}

type SimStatusLED struct {
	logger *logger.Logger
}

func NewSimStatusLED(l *logger.Logger) *SimStatusLED {
	return &SimStatusLED{logger: l.WithTag("sim-led")}
}

func (s *SimStatusLED) ShowConnected() error {
	s.logger.Infof("Status LED: green")
	return nil
}

func (s *SimStatusLED) ShowDisconnected() error {
	s.logger.Infof("Status LED: red")
	return nil
}
