package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"scrappy/internal/config"
	"scrappy/internal/controller"
	"scrappy/internal/hardware"
	"scrappy/internal/link"
	"scrappy/internal/logger"
	"scrappy/internal/messaging"
	"scrappy/internal/orchestrator"
	"scrappy/internal/sensor"
	"scrappy/internal/store"
	"scrappy/internal/types"
)

type devices struct {
	accel   sensor.Source
	buttons orchestrator.ButtonSource
	rotary  orchestrator.RotarySource
	status  orchestrator.StatusIndicator
	close   func()
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
	cfg, err := config.LoadController()
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

	l.Infof("Starting scrappy controller (%s hardware)...", cfg.Hardware)

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

	shake := sensor.NewShakeDetector(cfg.ShakeThreshold, cfg.ShakeCooldown)
	baseline, err := sensor.Calibrate(ctx, dev.accel, sensor.ControllerCalibrationSamples, sensor.ControllerCalibrationInterval)
	if err != nil {
		l.Warnf("Calibration failed, keeping baseline %.2f: %v", shake.Baseline(), err)
	} else {
		shake.SetBaseline(baseline.Z)
		l.Infof("Calibrated baseline Z: %.2f m/s²", baseline.Z)
	}

	var (
		publisher controller.StatePublisher
		recorders controller.MultiRecorder
	)
	if cfg.RedisAddr != "" {
		rc := messaging.NewRedisClient(cfg.RedisAddr, cfg.RedisDB, l)
		if err := rc.Connect(); err != nil {
			l.Warnf("Telemetry disabled: %v", err)
		} else {
			publisher = rc
			recorders = append(recorders, rc)
			defer rc.Close()
		}
	}
	if cfg.DBPath != "" {
		games, err := store.Open(cfg.DBPath)
		if err != nil {
			l.Warnf("Game history disabled: %v", err)
		} else {
			recorders = append(recorders, games)
			defer games.Close()
		}
	}
	var recorder controller.GameRecorder
	if len(recorders) > 0 {
		recorder = recorders
	}

	serial := link.NewSerialLink(cfg.SerialPort, cfg.BaudRate, l)
	session := controller.New(serial, hardware.NewConsoleDisplay(l), publisher, recorder, l, controller.Options{
		BaseLevelDuration: cfg.BaseLevelDuration,
		LevelIncrement:    cfg.LevelIncrement,
		MaxLevel:          cfg.MaxLevel,
		ReplyTimeout:      cfg.ReplyTimeout,
		LevelAckTimeout:   cfg.LevelAckTimeout,
		SettleDelay:       cfg.SettleDelay,
		ResponseHold:      controller.DefaultResponseHold,
	})
	if err := session.Start(ctx); err != nil {
		l.Fatalf("Failed to start state machine: %v", err)
	}

	device := orchestrator.NewControllerDevice(session, dev.accel, shake, dev.buttons, dev.rotary, l)
	loop := orchestrator.NewLoop(types.RoleController, serial, device, dev.status, l, cfg.TickInterval, nil)
	l.Infof("Controller started, looking for robot on %s", cfg.SerialPort)

	if err := loop.Run(ctx); err != nil {
		l.Errorf("Loop stopped: %v", err)
	}
	l.Infof("Shutdown complete")
}

func openDevices(cfg config.ControllerConfig, l *logger.Logger) (*devices, error) {
	if cfg.Hardware == config.HardwareSim {
		in := hardware.NewConsoleInput(os.Stdin, l)
		l.Infof("Simulated controller: type up, down, left, right, +, - or shake")
		return &devices{
			accel:   in,
			buttons: in,
			rotary:  in,
			status:  hardware.NewSimStatusLED(l),
			close:   func() {},
		}, nil
	}

	bus, err := hardware.OpenI2CBus(cfg.I2CBus)
	if err != nil {
		return nil, err
	}
	accel, err := hardware.NewAccelerometer(bus, cfg.AccelAddress)
	if err != nil {
		bus.Close()
		return nil, err
	}

	buttons, err := hardware.NewButtons(cfg.GPIOChip, hardware.DefaultButtonPins)
	if err != nil {
		bus.Close()
		return nil, err
	}

	led, err := hardware.NewStatusLED(cfg.GPIOChip, hardware.DefaultLEDPins)
	if err != nil {
		buttons.Close()
		bus.Close()
		return nil, err
	}

	dev := &devices{
		accel:   accel,
		buttons: buttons,
		status:  led,
	}

	// The menu still works without the encoder, just without selection.
	rotary, err := hardware.OpenRotaryEncoder(cfg.RotaryDevice, hardware.PulsesPerDetent, l)
	if err != nil {
		l.Warnf("Rotary encoder unavailable: %v", err)
	} else {
		dev.rotary = rotary
	}

	dev.close = func() {
		if rotary != nil {
			rotary.Close()
		}
		led.Close()
		buttons.Close()
		bus.Close()
	}
	return dev, nil
}
