// Package protocol implements the line-oriented text protocol spoken between
// the controller and the robot.
//
// Every message is one ASCII line terminated by a single '\n':
//
//	LEVEL:<n>:<EASY|MEDIUM|HARD>   controller -> robot
//	UP | DOWN | LEFT | RIGHT       controller -> robot
//	MANUAL                         controller -> robot
//	STOP                           controller -> robot
//	ACK                            robot -> controller
//	DEAD                           robot -> controller, unsolicited
//
// Decoding is permissive. Lines outside the grammar decode to KindUnknown and
// the receiver still acknowledges them.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"scrappy/internal/types"
)

// ErrMalformedMessage is returned by Decode for lines outside the grammar.
var ErrMalformedMessage = errors.New("malformed message")

type Kind int

const (
	KindUnknown Kind = iota
	KindLevel
	KindMove
	KindManual
	KindStop
	KindAck
	KindDead
)

func (k Kind) String() string {
	switch k {
	case KindLevel:
		return "level"
	case KindMove:
		return "move"
	case KindManual:
		return "manual"
	case KindStop:
		return "stop"
	case KindAck:
		return "ack"
	case KindDead:
		return "dead"
	default:
		return "unknown"
	}
}

const (
	keywordLevel  = "LEVEL"
	keywordManual = "MANUAL"
	keywordStop   = "STOP"
	keywordAck    = "ACK"
	keywordDead   = "DEAD"
)

// Message is one decoded protocol line. Only the fields that belong to Kind
// are meaningful.
type Message struct {
	Kind       Kind
	Level      int
	Difficulty types.Difficulty
	Button     types.Button
	// Raw holds the trimmed line for KindUnknown.
	Raw string
}

func Level(n int, d types.Difficulty) Message {
	return Message{Kind: KindLevel, Level: n, Difficulty: d}
}

func Move(b types.Button) Message {
	return Message{Kind: KindMove, Button: b}
}

func Manual() Message { return Message{Kind: KindManual} }
func Stop() Message   { return Message{Kind: KindStop} }
func Ack() Message    { return Message{Kind: KindAck} }
func Dead() Message   { return Message{Kind: KindDead} }

// String returns the wire text without the terminator.
func (m Message) String() string {
	switch m.Kind {
	case KindLevel:
		return fmt.Sprintf("%s:%d:%s", keywordLevel, m.Level, m.Difficulty)
	case KindMove:
		return m.Button.String()
	case KindManual:
		return keywordManual
	case KindStop:
		return keywordStop
	case KindAck:
		return keywordAck
	case KindDead:
		return keywordDead
	default:
		return m.Raw
	}
}

// Encode returns the wire form, always ending in exactly one newline.
func (m Message) Encode() []byte {
	s := strings.TrimRight(m.String(), "\r\n")
	return []byte(s + "\n")
}

// Decode classifies a single line. Surrounding whitespace, including a
// trailing "\r", is ignored. Lines outside the grammar yield a KindUnknown
// message together with an error wrapping ErrMalformedMessage.
func Decode(line string) (Message, error) {
	line = strings.TrimSpace(line)

	switch line {
	case "UP":
		return Move(types.ButtonUp), nil
	case "DOWN":
		return Move(types.ButtonDown), nil
	case "LEFT":
		return Move(types.ButtonLeft), nil
	case "RIGHT":
		return Move(types.ButtonRight), nil
	case keywordManual:
		return Manual(), nil
	case keywordStop:
		return Stop(), nil
	case keywordAck:
		return Ack(), nil
	case keywordDead:
		return Dead(), nil
	}

	if strings.HasPrefix(line, keywordLevel+":") {
		return decodeLevel(line)
	}

	return unknown(line, "unrecognized command")
}

func decodeLevel(line string) (Message, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 3 {
		return unknown(line, "expected LEVEL:<n>:<difficulty>")
	}

	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 {
		return unknown(line, "level must be a positive integer")
	}

	d, ok := types.ParseDifficulty(parts[2])
	if !ok {
		return unknown(line, "invalid difficulty")
	}

	return Level(n, d), nil
}

func unknown(line, reason string) (Message, error) {
	return Message{Kind: KindUnknown, Raw: line}, fmt.Errorf("%w: %s: %q", ErrMalformedMessage, reason, line)
}
