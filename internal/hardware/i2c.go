package hardware

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

const i2cSlave = 0x0703 // I2C_SLAVE

// I2CBus is a Linux i2c-dev adapter. It satisfies the tinygo drivers.I2C
// interface. Drivers built on that interface drop transfer errors, so the
// bus keeps the first one for the caller to collect with TakeErr.
type I2CBus struct {
	fd int

	mu      sync.Mutex
	addr    uint16
	lastErr error
}

func OpenI2CBus(path string) (*I2CBus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", path, err)
	}
	return &I2CBus{fd: fd, addr: 0xffff}, nil
}

// Tx writes w then reads len(r) bytes from the device at addr.
func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.tx(addr, w, r)
	if err != nil && b.lastErr == nil {
		b.lastErr = err
	}
	return err
}

func (b *I2CBus) tx(addr uint16, w, r []byte) error {
	if addr != b.addr {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("failed to select I2C device 0x%02x: %w", addr, err)
		}
		b.addr = addr
	}
	if len(w) > 0 {
		if _, err := unix.Write(b.fd, w); err != nil {
			return fmt.Errorf("I2C write to 0x%02x failed: %w", addr, err)
		}
	}
	if len(r) > 0 {
		if _, err := unix.Read(b.fd, r); err != nil {
			return fmt.Errorf("I2C read from 0x%02x failed: %w", addr, err)
		}
	}
	return nil
}

// TakeErr returns and clears the first transfer error since the last call.
func (b *I2CBus) TakeErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.lastErr
	b.lastErr = nil
	return err
}

func (b *I2CBus) Close() error {
	return unix.Close(b.fd)
}
