package orchestrator

import (
	"time"

	"scrappy/internal/controller"
	"scrappy/internal/logger"
	"scrappy/internal/robot"
	"scrappy/internal/sensor"
	"scrappy/internal/types"
)

// RobotDevice feeds accelerometer samples to the robot while impact checks
// apply.
type RobotDevice struct {
	robot  *robot.Robot
	accel  sensor.Source
	logger *logger.Logger
}

func NewRobotDevice(r *robot.Robot, accel sensor.Source, l *logger.Logger) *RobotDevice {
	return &RobotDevice{robot: r, accel: accel, logger: l.WithTag("robot-device")}
}

func (d *RobotDevice) LinkUp(now time.Time) {}

func (d *RobotDevice) Step(now time.Time) error {
	var reading *types.Reading
	if d.robot.ImpactArmed() {
		r, err := d.accel.Acceleration()
		if err != nil {
			d.logger.Debugf("Accelerometer read failed: %v", err)
		} else {
			reading = &r
		}
	}
	return d.robot.Tick(now, reading)
}

func (d *RobotDevice) LinkLost(now time.Time) {
	d.robot.LinkLost()
}

func (d *RobotDevice) Phase() string {
	return string(d.robot.State())
}

// ControllerDevice samples shake, buttons and the rotary encoder into one
// controller.Input per tick.
type ControllerDevice struct {
	session *controller.Session
	accel   sensor.Source
	shake   *sensor.ShakeDetector
	buttons ButtonSource
	rotary  RotarySource
	logger  *logger.Logger
}

func NewControllerDevice(s *controller.Session, accel sensor.Source, shake *sensor.ShakeDetector, buttons ButtonSource, rotary RotarySource, l *logger.Logger) *ControllerDevice {
	return &ControllerDevice{
		session: s,
		accel:   accel,
		shake:   shake,
		buttons: buttons,
		rotary:  rotary,
		logger:  l.WithTag("controller-device"),
	}
}

func (d *ControllerDevice) LinkUp(now time.Time) {
	d.session.LinkUp(now)
}

func (d *ControllerDevice) Step(now time.Time) error {
	return d.session.Tick(now, d.sample(now))
}

func (d *ControllerDevice) sample(now time.Time) controller.Input {
	var in controller.Input

	if d.session.ListeningForShake() {
		if r, err := d.accel.Acceleration(); err != nil {
			d.logger.Debugf("Accelerometer read failed: %v", err)
		} else {
			in.Shake = d.shake.Detect(r, now)
		}
	}

	if b, err := d.buttons.PressedButton(); err != nil {
		d.logger.Debugf("Button read failed: %v", err)
	} else {
		in.Button = b
	}

	if d.rotary != nil && d.rotary.Update() {
		in.RotaryDelta = d.rotary.Delta()
	}
	return in
}

func (d *ControllerDevice) LinkLost(now time.Time) {
	d.session.LinkLost(now)
}

func (d *ControllerDevice) Phase() string {
	return string(d.session.Phase())
}
