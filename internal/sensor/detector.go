package sensor

import (
	"math"
	"time"

	"scrappy/internal/types"
)

const (
	DefaultShakeThreshold  = 15.0
	DefaultShakeCooldown   = 500 * time.Millisecond
	DefaultImpactThreshold = 12.0

	// DefaultGravity is the shake baseline used until calibration succeeds.
	DefaultGravity = 9.8
)

// ShakeDetector fires when the z axis deviates from its baseline by more
// than Threshold, at most once per Cooldown.
type ShakeDetector struct {
	threshold float64
	cooldown  time.Duration
	baselineZ float64

	lastFire time.Time
	fired    bool
}

func NewShakeDetector(threshold float64, cooldown time.Duration) *ShakeDetector {
	if threshold <= 0 {
		threshold = DefaultShakeThreshold
	}
	if cooldown < 0 {
		cooldown = DefaultShakeCooldown
	}
	return &ShakeDetector{
		threshold: threshold,
		cooldown:  cooldown,
		baselineZ: DefaultGravity,
	}
}

func (d *ShakeDetector) SetBaseline(z float64) {
	d.baselineZ = z
}

func (d *ShakeDetector) Baseline() float64 {
	return d.baselineZ
}

// Detect reports a shake for a raw reading taken at now.
func (d *ShakeDetector) Detect(r types.Reading, now time.Time) bool {
	if d.fired && now.Sub(d.lastFire) < d.cooldown {
		return false
	}
	if math.Abs(r.Z-d.baselineZ) <= d.threshold {
		return false
	}
	d.lastFire = now
	d.fired = true
	return true
}

// ImpactDetector flags a tip-over when the offset-corrected z axis exceeds
// Threshold. Check has no memory, so the same reading always gives the same
// answer; the caller stops checking once the robot is dead.
type ImpactDetector struct {
	threshold float64
	offsets   types.Reading
	alive     bool
}

func NewImpactDetector(threshold float64) *ImpactDetector {
	if threshold <= 0 {
		threshold = DefaultImpactThreshold
	}
	return &ImpactDetector{threshold: threshold, alive: true}
}

func (d *ImpactDetector) SetOffsets(o types.Reading) {
	d.offsets = o
}

func (d *ImpactDetector) Offsets() types.Reading {
	return d.offsets
}

// Check takes a raw reading.
func (d *ImpactDetector) Check(r types.Reading) bool {
	return math.Abs(r.Z-d.offsets.Z) > d.threshold
}

func (d *ImpactDetector) Alive() bool {
	return d.alive
}

func (d *ImpactDetector) MarkDead() {
	d.alive = false
}

// Reset marks the robot alive again. Offsets are kept.
func (d *ImpactDetector) Reset() {
	d.alive = true
}
