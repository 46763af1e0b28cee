package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scrappy/internal/types"
)

const (
	ControllerCalibrationSamples  = 20
	ControllerCalibrationInterval = 10 * time.Millisecond
	RobotCalibrationSamples       = 50
	RobotCalibrationInterval      = 20 * time.Millisecond
)

// Source yields raw acceleration samples in m/s^2.
type Source interface {
	Acceleration() (types.Reading, error)
}

var errNoSamples = errors.New("calibration needs at least one sample")

// Calibrate averages n samples taken interval apart. The device must be at
// rest while it runs.
func Calibrate(ctx context.Context, src Source, n int, interval time.Duration) (types.Reading, error) {
	if n < 1 {
		return types.Reading{}, errNoSamples
	}

	var sum types.Reading
	for i := 0; i < n; i++ {
		r, err := src.Acceleration()
		if err != nil {
			return types.Reading{}, fmt.Errorf("calibration sample %d: %w", i, err)
		}
		sum.X += r.X
		sum.Y += r.Y
		sum.Z += r.Z

		if interval > 0 && i < n-1 {
			select {
			case <-ctx.Done():
				return types.Reading{}, ctx.Err()
			case <-time.After(interval):
			}
		}
	}

	k := float64(n)
	return types.Reading{X: sum.X / k, Y: sum.Y / k, Z: sum.Z / k}, nil
}
