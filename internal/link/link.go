// Package link carries protocol lines between the two devices.
package link

import (
	"context"
	"errors"
)

// ErrLinkLost is returned once the underlying connection is gone. Buffered
// lines that arrived before the loss are still handed out first.
var ErrLinkLost = errors.New("link lost")

// Link is what the state machines see: a connected predicate, a
// non-blocking line reader and a writer.
type Link interface {
	Connected() bool
	// ReadLine returns the next complete line without the terminator.
	// ok is false when nothing is pending.
	ReadLine() (line string, ok bool, err error)
	Write(p []byte) error
}

// Transport adds connection management for the orchestrator.
type Transport interface {
	Link
	// Connect blocks until a peer is attached or ctx is done.
	Connect(ctx context.Context) error
	Close() error
}
