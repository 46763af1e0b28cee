// Package config loads device settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	HardwareLinux = "linux"
	HardwareSim   = "sim"
)

// Common holds settings shared by both devices.
type Common struct {
	LogLevel     string        `env:"SCRAPPY_LOG_LEVEL" envDefault:"info"`
	Hardware     string        `env:"SCRAPPY_HARDWARE" envDefault:"linux"`
	SerialPort   string        `env:"SCRAPPY_SERIAL_PORT" envDefault:"/dev/ttyS1"`
	BaudRate     int           `env:"SCRAPPY_BAUD_RATE" envDefault:"115200"`
	TickInterval time.Duration `env:"SCRAPPY_TICK_INTERVAL" envDefault:"10ms"`
	RedisAddr    string        `env:"SCRAPPY_REDIS_ADDR"`
	RedisDB      int           `env:"SCRAPPY_REDIS_DB" envDefault:"0"`
	GPIOChip     string        `env:"SCRAPPY_GPIO_CHIP" envDefault:"gpiochip0"`
	I2CBus       string        `env:"SCRAPPY_I2C_BUS" envDefault:"/dev/i2c-1"`
	AccelAddress uint16        `env:"SCRAPPY_ACCEL_ADDRESS" envDefault:"83"`
}

type RobotConfig struct {
	Common

	ImpactThreshold  float64       `env:"SCRAPPY_IMPACT_THRESHOLD" envDefault:"12"`
	BaseSpeed        int           `env:"SCRAPPY_BASE_SPEED" envDefault:"60"`
	ManualWindow     time.Duration `env:"SCRAPPY_MANUAL_WINDOW" envDefault:"5s"`
	UserMoveDuration time.Duration `env:"SCRAPPY_USER_MOVE_DURATION" envDefault:"200ms"`
	PWMRoot          string        `env:"SCRAPPY_PWM_ROOT" envDefault:"/sys/class/pwm"`
	MotorKick        time.Duration `env:"SCRAPPY_MOTOR_KICK" envDefault:"10ms"`
}

type ControllerConfig struct {
	Common

	ShakeThreshold    float64       `env:"SCRAPPY_SHAKE_THRESHOLD" envDefault:"15"`
	ShakeCooldown     time.Duration `env:"SCRAPPY_SHAKE_COOLDOWN" envDefault:"500ms"`
	BaseLevelDuration time.Duration `env:"SCRAPPY_LEVEL_DURATION" envDefault:"10s"`
	LevelIncrement    time.Duration `env:"SCRAPPY_LEVEL_INCREMENT" envDefault:"2s"`
	MaxLevel          int           `env:"SCRAPPY_MAX_LEVEL" envDefault:"10"`
	ReplyTimeout      time.Duration `env:"SCRAPPY_REPLY_TIMEOUT" envDefault:"2s"`
	LevelAckTimeout   time.Duration `env:"SCRAPPY_LEVEL_ACK_TIMEOUT" envDefault:"5s"`
	SettleDelay       time.Duration `env:"SCRAPPY_SETTLE_DELAY" envDefault:"2s"`
	RotaryDevice      string        `env:"SCRAPPY_ROTARY_DEVICE" envDefault:"/dev/input/by-path/platform-rotary@0-event"`
	DBPath            string        `env:"SCRAPPY_DB_PATH"`
}

// LoadDotEnv loads variables from the given files, or ./.env when none are
// named, without overriding the environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

func LoadRobot() (RobotConfig, error) {
	var cfg RobotConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func LoadController() (ControllerConfig, error) {
	var cfg ControllerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Common) Validate() error {
	var errs []error
	if c.Hardware != HardwareLinux && c.Hardware != HardwareSim {
		errs = append(errs, fmt.Errorf("SCRAPPY_HARDWARE must be %q or %q, got %q", HardwareLinux, HardwareSim, c.Hardware))
	}
	if c.SerialPort == "" {
		errs = append(errs, errors.New("SCRAPPY_SERIAL_PORT is required"))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPPY_BAUD_RATE must be positive, got %d", c.BaudRate))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPPY_TICK_INTERVAL must be positive, got %s", c.TickInterval))
	}
	return errors.Join(errs...)
}

func (c RobotConfig) Validate() error {
	errs := []error{c.Common.Validate()}
	if c.ImpactThreshold <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPPY_IMPACT_THRESHOLD must be positive, got %g", c.ImpactThreshold))
	}
	if c.BaseSpeed <= 0 || c.BaseSpeed > 100 {
		errs = append(errs, fmt.Errorf("SCRAPPY_BASE_SPEED must be 1-100, got %d", c.BaseSpeed))
	}
	if c.ManualWindow <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPPY_MANUAL_WINDOW must be positive, got %s", c.ManualWindow))
	}
	return errors.Join(errs...)
}

func (c ControllerConfig) Validate() error {
	errs := []error{c.Common.Validate()}
	if c.ShakeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPPY_SHAKE_THRESHOLD must be positive, got %g", c.ShakeThreshold))
	}
	if c.MaxLevel < 1 {
		errs = append(errs, fmt.Errorf("SCRAPPY_MAX_LEVEL must be at least 1, got %d", c.MaxLevel))
	}
	if c.BaseLevelDuration <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPPY_LEVEL_DURATION must be positive, got %s", c.BaseLevelDuration))
	}
	if c.ReplyTimeout <= 0 || c.LevelAckTimeout <= 0 {
		errs = append(errs, errors.New("reply timeouts must be positive"))
	}
	return errors.Join(errs...)
}
