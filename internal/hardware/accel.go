package hardware

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/adxl345"

	"scrappy/internal/types"
)

// errorBus is an I2C bus that remembers failed transfers.
type errorBus interface {
	drivers.I2C
	TakeErr() error
}

// Accelerometer is an ADXL345 on I2C reporting m/s².
type Accelerometer struct {
	bus errorBus

	mu  sync.Mutex
	dev adxl345.Device
}

func NewAccelerometer(bus errorBus, addr uint16) (*Accelerometer, error) {
	dev := adxl345.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	dev.Configure()
	dev.SetRate(adxl345.RATE_100HZ)
	dev.SetRange(adxl345.RANGE_16G)
	if err := bus.TakeErr(); err != nil {
		return nil, fmt.Errorf("failed to configure ADXL345 at 0x%02x: %w", dev.Address, err)
	}
	return &Accelerometer{bus: bus, dev: dev}, nil
}

func (a *Accelerometer) Acceleration() (types.Reading, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// ReadAcceleration reports milli-g whatever its doc says.
	x, y, z, _ := a.dev.ReadAcceleration()
	if err := a.bus.TakeErr(); err != nil {
		return types.Reading{}, fmt.Errorf("failed to read acceleration: %w", err)
	}
	return types.Reading{X: milliG(x), Y: milliG(y), Z: milliG(z)}, nil
}

func milliG(v int32) float64 {
	return float64(v) / 1000 * StandardGravity
}
