package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"scrappy/internal/logger"
	"scrappy/internal/protocol"
)

const (
	serialReadTimeout = 100 * time.Millisecond
	serialRetryDelay  = time.Second
)

// SerialLink talks to a BLE UART bridge module over a serial port. The link
// counts as connected while the port is open and no I/O error has occurred.
type SerialLink struct {
	portName string
	mode     *serial.Mode
	logger   *logger.Logger

	mu        sync.Mutex
	port      serial.Port
	lines     protocol.LineBuffer
	connected bool
	wg        sync.WaitGroup
}

func NewSerialLink(portName string, baudRate int, l *logger.Logger) *SerialLink {
	return &SerialLink{
		portName: portName,
		mode:     &serial.Mode{BaudRate: baudRate},
		logger:   l.WithTag("serial"),
	}
}

// Connect opens the port, retrying until it succeeds or ctx is done.
func (s *SerialLink) Connect(ctx context.Context) error {
	s.wg.Wait()

	for {
		port, err := serial.Open(s.portName, s.mode)
		if err == nil {
			if err := port.SetReadTimeout(serialReadTimeout); err != nil {
				port.Close()
				return fmt.Errorf("failed to set read timeout on %s: %w", s.portName, err)
			}

			s.mu.Lock()
			s.port = port
			s.lines.Reset()
			s.connected = true
			s.mu.Unlock()

			s.logger.Infof("Opened %s at %d baud", s.portName, s.mode.BaudRate)
			s.wg.Add(1)
			go s.readLoop(port)
			return nil
		}

		s.logger.Debugf("Failed to open %s: %v", s.portName, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(serialRetryDelay):
		}
	}
}

func (s *SerialLink) readLoop(port serial.Port) {
	defer s.wg.Done()
	buf := make([]byte, 128)

	for {
		n, err := port.Read(buf)
		if err != nil {
			s.logger.Warnf("Read from %s failed: %v", s.portName, err)
			s.drop(port)
			return
		}
		if n == 0 {
			// Read timeout; check whether the port was closed under us.
			s.mu.Lock()
			open := s.port == port
			s.mu.Unlock()
			if !open {
				return
			}
			continue
		}

		s.mu.Lock()
		s.lines.Write(buf[:n])
		s.mu.Unlock()
	}
}

func (s *SerialLink) drop(port serial.Port) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != port {
		return
	}
	s.connected = false
	s.port = nil
	port.Close()
}

func (s *SerialLink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *SerialLink) ReadLine() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines.Next(); ok {
		return line, true, nil
	}
	if !s.connected {
		return "", false, ErrLinkLost
	}
	return "", false, nil
}

func (s *SerialLink) Write(p []byte) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return ErrLinkLost
	}

	if _, err := port.Write(p); err != nil {
		s.drop(port)
		return fmt.Errorf("write to %s: %w: %v", s.portName, ErrLinkLost, err)
	}
	return nil
}

func (s *SerialLink) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.connected = false
	s.mu.Unlock()

	if port == nil {
		return nil
	}
	return port.Close()
}
