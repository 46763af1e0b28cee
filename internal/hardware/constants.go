package hardware

import "time"

const (
	Consumer = "scrappy"

	DefaultGPIOChip = "gpiochip0"
	DefaultPWMRoot  = "/sys/class/pwm"

	// MotorFrequency is the PWM carrier for both enable pins.
	MotorFrequency = 5000

	// Motors get a short burst at KickDuty before settling on the requested
	// speed so they break static friction at low duty.
	KickDuty     = 80
	KickDuration = 10 * time.Millisecond

	PulsesPerDetent = 3

	// StandardGravity converts g to m/s².
	StandardGravity = 9.80665
)

// MotorPins are the H-bridge direction inputs. IN1/IN2 drive motor A and
// IN3/IN4 drive motor B.
type MotorPins struct {
	IN1, IN2, IN3, IN4 int
}

var DefaultMotorPins = MotorPins{IN1: 9, IN2: 10, IN3: 3, IN4: 2}

// PWM channels on DefaultPWMRoot: enable A and enable B.
var DefaultMotorPWM = [2]PWMChannel{{Chip: 0, Channel: 0}, {Chip: 0, Channel: 1}}

// ButtonPins are the controller's push buttons, wired active-low.
type ButtonPins struct {
	Right, Left, Down, Up int
}

var DefaultButtonPins = ButtonPins{Right: 0, Left: 1, Down: 2, Up: 3}

// LEDPins drive the two-colour status LED.
type LEDPins struct {
	Red, Green int
}

var DefaultLEDPins = LEDPins{Red: 8, Green: 11}
