package hardware

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// StatusLED is a two-colour LED: red while the link is down, green while it
// is up. It starts red.
type StatusLED struct {
	lines outputLines
}

func NewStatusLED(chip string, pins LEDPins) (*StatusLED, error) {
	lines, err := gpiocdev.RequestLines(chip, []int{pins.Red, pins.Green},
		gpiocdev.AsOutput(1, 0),
		gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request LED lines on %s: %w", chip, err)
	}
	return &StatusLED{lines: lines}, nil
}

func (s *StatusLED) ShowConnected() error {
	return s.set(0, 1)
}

func (s *StatusLED) ShowDisconnected() error {
	return s.set(1, 0)
}

func (s *StatusLED) set(red, green int) error {
	if err := s.lines.SetValues([]int{red, green}); err != nil {
		return fmt.Errorf("failed to set status LED: %w", err)
	}
	return nil
}

func (s *StatusLED) Close() error {
	s.set(0, 0)
	return s.lines.Close()
}
