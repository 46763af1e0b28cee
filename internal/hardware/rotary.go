package hardware

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"scrappy/internal/logger"
)

const relX = 0x00

// inputEventSize is sizeof(struct input_event): a timeval followed by type,
// code and value.
var inputEventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

// RotaryEncoder turns the REL_X steps reported by the kernel rotary-encoder
// input driver into detents.
type RotaryEncoder struct {
	file   io.ReadCloser
	pulses int
	logger *logger.Logger

	mu        sync.Mutex
	steps     int
	reported  int
	closeOnce sync.Once
}

func OpenRotaryEncoder(path string, pulsesPerDetent int, l *logger.Logger) (*RotaryEncoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rotary input %s: %w", path, err)
	}
	r := newRotaryEncoder(f, pulsesPerDetent, l)
	go r.monitor()
	return r, nil
}

func newRotaryEncoder(rc io.ReadCloser, pulsesPerDetent int, l *logger.Logger) *RotaryEncoder {
	if pulsesPerDetent <= 0 {
		pulsesPerDetent = PulsesPerDetent
	}
	return &RotaryEncoder{file: rc, pulses: pulsesPerDetent, logger: l.WithTag("rotary")}
}

func (r *RotaryEncoder) monitor() {
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(r.file, buf); err != nil {
			r.logger.Debugf("Input monitoring stopped: %v", err)
			return
		}
		typ, code, val := decodeInputEvent(buf)
		if typ == unix.EV_REL && code == relX {
			r.addSteps(int(val))
		}
	}
}

func decodeInputEvent(buf []byte) (uint16, uint16, int32) {
	off := len(buf) - 8
	typ := binary.LittleEndian.Uint16(buf[off : off+2])
	code := binary.LittleEndian.Uint16(buf[off+2 : off+4])
	val := int32(binary.LittleEndian.Uint32(buf[off+4 : off+8]))
	return typ, code, val
}

func (r *RotaryEncoder) addSteps(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps += n
}

func (r *RotaryEncoder) detent() int {
	return r.steps / r.pulses
}

// Update reports whether the encoder moved a full detent since the last
// Delta.
func (r *RotaryEncoder) Update() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detent() != r.reported
}

// Delta returns the detents turned since the last call; negative is
// counter-clockwise.
func (r *RotaryEncoder) Delta() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.detent()
	delta := d - r.reported
	r.reported = d
	return delta
}

func (r *RotaryEncoder) Close() error {
	var err error
	r.closeOnce.Do(func() { err = r.file.Close() })
	return err
}
