package hardware

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"scrappy/internal/types"
)

type inputLines interface {
	Values(values []int) error
	Close() error
}

// buttonOrder is the request order of the lines and also the priority when
// several buttons are held.
var buttonOrder = [4]types.Button{types.ButtonRight, types.ButtonLeft, types.ButtonDown, types.ButtonUp}

// Buttons reads the four direction buttons. They pull the line low when
// pressed; the lines are requested active-low so a pressed button reads 1.
type Buttons struct {
	lines inputLines
}

func NewButtons(chip string, pins ButtonPins) (*Buttons, error) {
	lines, err := gpiocdev.RequestLines(chip, []int{pins.Right, pins.Left, pins.Down, pins.Up},
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.AsActiveLow,
		gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request button lines on %s: %w", chip, err)
	}
	return &Buttons{lines: lines}, nil
}

// PressedButton returns the highest priority pressed button: RIGHT, LEFT,
// DOWN, then UP.
func (b *Buttons) PressedButton() (types.Button, error) {
	vals := make([]int, len(buttonOrder))
	if err := b.lines.Values(vals); err != nil {
		return types.NoButton, fmt.Errorf("failed to read buttons: %w", err)
	}
	for i, v := range vals {
		if v != 0 {
			return buttonOrder[i], nil
		}
	}
	return types.NoButton, nil
}

func (b *Buttons) Close() error {
	return b.lines.Close()
}
