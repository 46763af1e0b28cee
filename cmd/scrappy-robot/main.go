package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"scrappy/internal/config"
	"scrappy/internal/hardware"
	"scrappy/internal/link"
	"scrappy/internal/logger"
	"scrappy/internal/messaging"
	"scrappy/internal/motion"
	"scrappy/internal/orchestrator"
	"scrappy/internal/robot"
	"scrappy/internal/sensor"
	"scrappy/internal/types"
)

type devices struct {
	motor  motion.Actuator
	accel  sensor.Source
	status orchestrator.StatusIndicator
	close  func()
}

func main() {
	// Service log level
	var serviceLogLevel int
	flag.IntVar(&serviceLogLevel, "log", -1, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG), default from SCRAPPY_LOG_LEVEL")
	envFile := flag.String("env", ".env", "Optional dotenv file")

	flag.Parse()

	stdLogger := logger.StdLogger()
	if err := config.LoadDotEnv(*envFile); err != nil {
		stdLogger.Fatalf("Failed to load %s: %v", *envFile, err)
	}
	cfg, err := config.LoadRobot()
	if err != nil {
		stdLogger.Fatalf("Invalid configuration: %v", err)
	}

	level := logger.LogLevel(serviceLogLevel)
	if serviceLogLevel < 0 {
		if level, err = logger.ParseLevel(cfg.LogLevel); err != nil {
			stdLogger.Fatalf("Invalid configuration: %v", err)
		}
	}
	l := logger.NewLogger(stdLogger, level)

	l.Infof("Starting scrappy robot (%s hardware)...", cfg.Hardware)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		l.Infof("Received signal %v, shutting down...", sig)
		cancel()
	}()

	dev, err := openDevices(cfg, l)
	if err != nil {
		l.Fatalf("Failed to initialize hardware: %v", err)
	}
	defer dev.close()

	impact := sensor.NewImpactDetector(cfg.ImpactThreshold)
	l.Infof("Calibrating accelerometer, keep the robot still")
	offsets, err := sensor.Calibrate(ctx, dev.accel, sensor.RobotCalibrationSamples, sensor.RobotCalibrationInterval)
	if err != nil {
		l.Warnf("Calibration failed, using zero offsets: %v", err)
	} else {
		impact.SetOffsets(offsets)
		l.Infof("Calibrated offsets: x=%.2f y=%.2f z=%.2f", offsets.X, offsets.Y, offsets.Z)
	}

	var publisher robot.StatePublisher
	if cfg.RedisAddr != "" {
		rc := messaging.NewRedisClient(cfg.RedisAddr, cfg.RedisDB, l)
		if err := rc.Connect(); err != nil {
			l.Warnf("Telemetry disabled: %v", err)
		} else {
			publisher = rc
			defer rc.Close()
		}
	}

	rng, err := motion.NewRand()
	if err != nil {
		l.Warnf("Falling back to time seed: %v", err)
	}

	serial := link.NewSerialLink(cfg.SerialPort, cfg.BaudRate, l)
	r := robot.New(serial, dev.motor, impact, publisher, l, robot.Options{
		BaseSpeed:        cfg.BaseSpeed,
		ManualWindow:     cfg.ManualWindow,
		UserMoveDuration: cfg.UserMoveDuration,
		Rand:             rng,
	})
	if err := r.Start(ctx); err != nil {
		l.Fatalf("Failed to start state machine: %v", err)
	}

	loop := orchestrator.NewLoop(types.RoleRobot, serial, orchestrator.NewRobotDevice(r, dev.accel, l), dev.status, l, cfg.TickInterval, nil)
	l.Infof("Robot started, waiting for controller on %s", cfg.SerialPort)

	if err := loop.Run(ctx); err != nil {
		l.Errorf("Loop stopped: %v", err)
	}
	if err := dev.motor.Stop(); err != nil {
		l.Warnf("Failed to stop motors: %v", err)
	}
	l.Infof("Shutdown complete")
}

func openDevices(cfg config.RobotConfig, l *logger.Logger) (*devices, error) {
	if cfg.Hardware == config.HardwareSim {
		return &devices{
			motor:  hardware.NewSimMotor(l),
			accel:  hardware.SimAccelerometer{},
			status: hardware.NewSimStatusLED(l),
			close:  func() {},
		}, nil
	}

	motorCfg := hardware.DefaultMotorConfig()
	motorCfg.Chip = cfg.GPIOChip
	motorCfg.PWMRoot = cfg.PWMRoot
	motorCfg.KickDuration = cfg.MotorKick
	motor, err := hardware.NewMotorDriver(motorCfg, l)
	if err != nil {
		return nil, err
	}

	bus, err := hardware.OpenI2CBus(cfg.I2CBus)
	if err != nil {
		motor.Close()
		return nil, err
	}
	accel, err := hardware.NewAccelerometer(bus, cfg.AccelAddress)
	if err != nil {
		bus.Close()
		motor.Close()
		return nil, err
	}

	led, err := hardware.NewStatusLED(cfg.GPIOChip, hardware.DefaultLEDPins)
	if err != nil {
		bus.Close()
		motor.Close()
		return nil, err
	}

	return &devices{
		motor:  motor,
		accel:  accel,
		status: led,
		close: func() {
			led.Close()
			bus.Close()
			motor.Close()
		},
	}, nil
}
