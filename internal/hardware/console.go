package hardware

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"scrappy/internal/logger"
	"scrappy/internal/types"
)

// shakeZ is well past any sane shake threshold from a resting baseline.
const shakeZ = 4 * StandardGravity

// ConsoleInput drives the simulated controller from text commands, one per
// line: up, down, left, right, +, -, shake. A button reads as pressed for a
// single sample and then released, and a shake is a single spike.
type ConsoleInput struct {
	logger *logger.Logger

	mu      sync.Mutex
	buttons []types.Button
	release bool
	detents int
	shakes  int
}

func NewConsoleInput(r io.Reader, l *logger.Logger) *ConsoleInput {
	c := &ConsoleInput{logger: l.WithTag("console")}
	go c.scan(r)
	return c
}

func (c *ConsoleInput) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		c.handle(sc.Text())
	}
}

func (c *ConsoleInput) handle(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd := strings.ToLower(strings.TrimSpace(line)); cmd {
	case "":
	case "up", "w":
		c.buttons = append(c.buttons, types.ButtonUp)
	case "down", "s":
		c.buttons = append(c.buttons, types.ButtonDown)
	case "left", "a":
		c.buttons = append(c.buttons, types.ButtonLeft)
	case "right", "d", "go":
		c.buttons = append(c.buttons, types.ButtonRight)
	case "+":
		c.detents++
	case "-":
		c.detents--
	case "shake":
		c.shakes++
	default:
		c.logger.Warnf("Unknown command %q (up, down, left, right, +, -, shake)", cmd)
	}
}

// PressedButton alternates queued presses with a released sample so each
// command is one distinct press.
func (c *ConsoleInput) PressedButton() (types.Button, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.release || len(c.buttons) == 0 {
		c.release = false
		return types.NoButton, nil
	}
	b := c.buttons[0]
	c.buttons = c.buttons[1:]
	c.release = true
	return b, nil
}

func (c *ConsoleInput) Update() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detents != 0
}

func (c *ConsoleInput) Delta() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.detents
	c.detents = 0
	return d
}

func (c *ConsoleInput) Acceleration() (types.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shakes > 0 {
		c.shakes--
		return types.Reading{Z: shakeZ}, nil
	}
	return types.Reading{Z: StandardGravity}, nil
}
