package hardware

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"scrappy/internal/logger"
)

type outputLines interface {
	SetValues(values []int) error
	Close() error
}

type dutyChannel interface {
	SetDuty(percent int) error
	Close() error
}

type MotorConfig struct {
	Chip         string
	Pins         MotorPins
	PWMRoot      string
	PWM          [2]PWMChannel
	KickDuration time.Duration
}

func DefaultMotorConfig() MotorConfig {
	return MotorConfig{
		Chip:         DefaultGPIOChip,
		Pins:         DefaultMotorPins,
		PWMRoot:      DefaultPWMRoot,
		PWM:          DefaultMotorPWM,
		KickDuration: KickDuration,
	}
}

// MotorDriver runs two DC motors through an H-bridge: four GPIO direction
// lines and one PWM enable per motor.
type MotorDriver struct {
	lines  outputLines
	enA    dutyChannel
	enB    dutyChannel
	kick   time.Duration
	sleep  func(time.Duration)
	logger *logger.Logger
}

func NewMotorDriver(cfg MotorConfig, l *logger.Logger) (*MotorDriver, error) {
	p := cfg.Pins
	lines, err := gpiocdev.RequestLines(cfg.Chip, []int{p.IN1, p.IN2, p.IN3, p.IN4},
		gpiocdev.AsOutput(0, 0, 0, 0),
		gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request motor lines on %s: %w", cfg.Chip, err)
	}

	enA, err := NewSysfsPWM(cfg.PWMRoot, cfg.PWM[0], MotorFrequency)
	if err != nil {
		lines.Close()
		return nil, fmt.Errorf("failed to set up motor A PWM: %w", err)
	}
	enB, err := NewSysfsPWM(cfg.PWMRoot, cfg.PWM[1], MotorFrequency)
	if err != nil {
		enA.Close()
		lines.Close()
		return nil, fmt.Errorf("failed to set up motor B PWM: %w", err)
	}

	return newMotorDriver(lines, enA, enB, cfg.KickDuration, l), nil
}

func newMotorDriver(lines outputLines, enA, enB dutyChannel, kick time.Duration, l *logger.Logger) *MotorDriver {
	return &MotorDriver{
		lines:  lines,
		enA:    enA,
		enB:    enB,
		kick:   kick,
		sleep:  time.Sleep,
		logger: l.WithTag("motor"),
	}
}

// motor direction: 1 forward, -1 backward, 0 coast
func dirBits(d int) (int, int) {
	switch {
	case d > 0:
		return 1, 0
	case d < 0:
		return 0, 1
	}
	return 0, 0
}

func (m *MotorDriver) drive(a, b, speed int) error {
	in1, in2 := dirBits(a)
	in3, in4 := dirBits(b)
	if err := m.lines.SetValues([]int{in1, in2, in3, in4}); err != nil {
		return fmt.Errorf("failed to set motor direction: %w", err)
	}

	speed = clampPercent(speed)
	if speed > 0 && m.kick > 0 {
		if err := m.setDuty(KickDuty); err != nil {
			return err
		}
		m.sleep(m.kick)
	}
	return m.setDuty(speed)
}

func (m *MotorDriver) setDuty(percent int) error {
	if err := m.enA.SetDuty(percent); err != nil {
		return fmt.Errorf("motor A: %w", err)
	}
	if err := m.enB.SetDuty(percent); err != nil {
		return fmt.Errorf("motor B: %w", err)
	}
	return nil
}

func (m *MotorDriver) Forward(speed int) error {
	m.logger.Debugf("Forward at %d%%", speed)
	return m.drive(1, 1, speed)
}

func (m *MotorDriver) Backward(speed int) error {
	m.logger.Debugf("Backward at %d%%", speed)
	return m.drive(-1, -1, speed)
}

// Left spins in place: motor A forward, motor B backward.
func (m *MotorDriver) Left(speed int) error {
	m.logger.Debugf("Left at %d%%", speed)
	return m.drive(1, -1, speed)
}

func (m *MotorDriver) Right(speed int) error {
	m.logger.Debugf("Right at %d%%", speed)
	return m.drive(-1, 1, speed)
}

func (m *MotorDriver) Stop() error {
	return m.drive(0, 0, 0)
}

func (m *MotorDriver) Close() error {
	err := m.Stop()
	m.enA.Close()
	m.enB.Close()
	m.lines.Close()
	return err
}
