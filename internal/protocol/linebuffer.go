package protocol

import "bytes"

// MaxLineLength bounds a buffered line. A longer run of bytes without a
// terminator is flushed as one line and will decode as unknown.
const MaxLineLength = 256

// LineBuffer accumulates raw transport reads and hands out complete lines.
// It is not safe for concurrent use.
type LineBuffer struct {
	buf   []byte
	lines []string
}

func (b *LineBuffer) Write(p []byte) (int, error) {
	for _, c := range p {
		if c == '\n' {
			b.flush()
			continue
		}
		b.buf = append(b.buf, c)
		if len(b.buf) >= MaxLineLength {
			b.flush()
		}
	}
	return len(p), nil
}

func (b *LineBuffer) flush() {
	line := string(bytes.TrimRight(b.buf, "\r"))
	b.buf = b.buf[:0]
	if line == "" {
		return
	}
	b.lines = append(b.lines, line)
}

// Next pops the oldest complete line.
func (b *LineBuffer) Next() (string, bool) {
	if len(b.lines) == 0 {
		return "", false
	}
	line := b.lines[0]
	b.lines = b.lines[1:]
	return line, true
}

// Pending reports the number of complete lines waiting.
func (b *LineBuffer) Pending() int {
	return len(b.lines)
}

// Reset drops complete lines and any partial line.
func (b *LineBuffer) Reset() {
	b.buf = b.buf[:0]
	b.lines = nil
}
