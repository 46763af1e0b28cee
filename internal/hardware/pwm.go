package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

type PWMChannel struct {
	Chip    int
	Channel int
}

// SysfsPWM drives one channel of the kernel PWM class interface.
type SysfsPWM struct {
	dir      string
	periodNs int64
	mu       sync.Mutex
	percent  int
}

// NewSysfsPWM exports the channel under root if needed, sets the period for
// freqHz and enables it at 0% duty.
func NewSysfsPWM(root string, ch PWMChannel, freqHz int) (*SysfsPWM, error) {
	if freqHz <= 0 {
		return nil, fmt.Errorf("invalid PWM frequency %d", freqHz)
	}
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", ch.Chip))
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", ch.Channel))

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := writeSysfs(filepath.Join(chipDir, "export"), strconv.Itoa(ch.Channel)); err != nil {
			return nil, fmt.Errorf("failed to export PWM %d/%d: %w", ch.Chip, ch.Channel, err)
		}
		// udev needs a moment to fix up permissions on the new node
		for i := 0; i < 10; i++ {
			if _, err := os.Stat(filepath.Join(dir, "period")); err == nil {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	p := &SysfsPWM{
		dir:      dir,
		periodNs: int64(time.Second) / int64(freqHz),
	}
	if err := writeSysfs(filepath.Join(dir, "duty_cycle"), "0"); err != nil {
		return nil, err
	}
	if err := writeSysfs(filepath.Join(dir, "period"), strconv.FormatInt(p.periodNs, 10)); err != nil {
		return nil, err
	}
	if err := writeSysfs(filepath.Join(dir, "enable"), "1"); err != nil {
		return nil, err
	}
	return p, nil
}

// SetDuty sets the duty cycle in percent, clamped to 0-100.
func (p *SysfsPWM) SetDuty(percent int) error {
	percent = clampPercent(percent)
	duty := p.periodNs * int64(percent) / 100

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := writeSysfs(filepath.Join(p.dir, "duty_cycle"), strconv.FormatInt(duty, 10)); err != nil {
		return err
	}
	p.percent = percent
	return nil
}

func (p *SysfsPWM) Duty() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}

// Close zeroes and disables the channel.
func (p *SysfsPWM) Close() error {
	if err := p.SetDuty(0); err != nil {
		return err
	}
	return writeSysfs(filepath.Join(p.dir, "enable"), "0")
}

func writeSysfs(path, value string) error {
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed writing %s: %w", path, err)
	}
	return nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
